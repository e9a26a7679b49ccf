package discovery

import (
	"sync"

	"github.com/muurk/ocast/pkg/upnp"
)

// Observer receives discovery notifications. Calls are made one at a time,
// in order, from a goroutine owned by the engine, so an observer may call
// back into the engine.
type Observer interface {
	DevicesAdded(devices []upnp.Device)
	DevicesRemoved(devices []upnp.Device)
	// DiscoveryStopped reports the end of discovery. err is nil after Stop
	// and carries the socket failure otherwise.
	DiscoveryStopped(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Added   func([]upnp.Device)
	Removed func([]upnp.Device)
	Stopped func(error)
}

func (o ObserverFuncs) DevicesAdded(devices []upnp.Device) {
	if o.Added != nil {
		o.Added(devices)
	}
}

func (o ObserverFuncs) DevicesRemoved(devices []upnp.Device) {
	if o.Removed != nil {
		o.Removed(devices)
	}
}

func (o ObserverFuncs) DiscoveryStopped(err error) {
	if o.Stopped != nil {
		o.Stopped(err)
	}
}

// notifier delivers callbacks in order without ever blocking the owner
// goroutine.
type notifier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func newNotifier() *notifier {
	n := &notifier{done: make(chan struct{})}
	n.cond = sync.NewCond(&n.mu)
	go n.run()
	return n
}

func (n *notifier) push(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.queue = append(n.queue, fn)
	n.cond.Signal()
}

// close stops accepting callbacks; queued ones are still delivered.
func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	n.cond.Signal()
	n.mu.Unlock()
	<-n.done
}

func (n *notifier) run() {
	defer close(n.done)
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.cond.Wait()
		}
		if len(n.queue) == 0 {
			n.mu.Unlock()
			return
		}
		fn := n.queue[0]
		n.queue[0] = nil
		n.queue = n.queue[1:]
		n.mu.Unlock()

		fn()
	}
}
