package discovery

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ocast/internal/logging"
	"github.com/muurk/ocast/pkg/ssdp"
	"github.com/muurk/ocast/pkg/upnp"
)

const (
	// DefaultInterval is the delay between two refresh cycles.
	DefaultInterval = 30 * time.Second

	// MinInterval is the shortest accepted refresh interval.
	MinInterval = 5 * time.Second

	// DefaultEvictionGrace is added to MX before stale devices are evicted.
	DefaultEvictionGrace = time.Second

	// probeRepeat is how many times each M-SEARCH is sent per cycle.
	probeRepeat = 2

	readBufferSize = 8192
)

// State is the lifecycle state of an Engine.
type State int

const (
	StateStopped State = iota
	StatePaused
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePaused:
		return "paused"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// DescriptorFetcher resolves an SSDP location into a Device.
// *upnp.Fetcher satisfies it.
type DescriptorFetcher interface {
	Fetch(ctx context.Context, location string) (upnp.Device, error)
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	// SearchTargets are probed on every cycle. Defaults to the OCast target.
	SearchTargets []string

	// Interval between refresh cycles, clamped to MinInterval.
	Interval time.Duration

	// MaxTime is sent as MX and bounds how long receivers may wait before answering.
	MaxTime time.Duration

	// EvictionGrace is added to MaxTime before the eviction check runs.
	EvictionGrace time.Duration

	Fetcher  DescriptorFetcher
	Listen   SocketFactory
	Observer Observer
}

// Engine keeps a live view of receivers answering the configured search
// targets. All state is owned by a single goroutine: public calls, socket
// reads, timer ticks and descriptor fetch completions are all marshaled
// onto it.
type Engine struct {
	targets []string
	maxTime time.Duration
	grace   time.Duration
	fetcher DescriptorFetcher
	listen  SocketFactory
	now     func() time.Time

	ops       chan func()
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
	events    *notifier
	observer  Observer
	log       *zap.Logger

	// owned by the run goroutine
	state    State
	interval time.Duration
	sock     Socket
	sockGen  uint64
	session  uint64
	cycle    uint64
	devices  map[string]upnp.Device
	lastSeen map[string]time.Time
	fetching map[string]bool
	cancel   context.CancelFunc
	fetchCtx context.Context
	timers   []*time.Timer
}

// New creates a stopped Engine. Call Close when done with it.
func New(opts Options) *Engine {
	e := &Engine{
		targets:  uniqueTargets(opts.SearchTargets),
		maxTime:  opts.MaxTime,
		grace:    opts.EvictionGrace,
		fetcher:  opts.Fetcher,
		listen:   opts.Listen,
		observer: opts.Observer,
		now:      time.Now,
		ops:      make(chan func()),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
		events:   newNotifier(),
		log:      logging.Named("discovery"),
		interval: clampInterval(opts.Interval),
		devices:  make(map[string]upnp.Device),
		lastSeen: make(map[string]time.Time),
		fetching: make(map[string]bool),
	}
	if e.maxTime <= 0 {
		e.maxTime = ssdp.DefaultMaxTime
	}
	if e.grace <= 0 {
		e.grace = DefaultEvictionGrace
	}
	if e.fetcher == nil {
		e.fetcher = upnp.NewFetcher()
	}
	if e.listen == nil {
		e.listen = ListenMulticast
	}

	go e.run()
	return e
}

func uniqueTargets(targets []string) []string {
	if len(targets) == 0 {
		return []string{ssdp.DefaultSearchTarget}
	}
	seen := make(map[string]bool, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func clampInterval(d time.Duration) time.Duration {
	if d == 0 {
		return DefaultInterval
	}
	if d < MinInterval {
		return MinInterval
	}
	return d
}

func (e *Engine) run() {
	defer close(e.exited)
	for {
		select {
		case fn := <-e.ops:
			fn()
		case <-e.done:
			return
		}
	}
}

// do runs fn on the owner goroutine and waits for it. It reports false once
// the engine is closed.
func (e *Engine) do(fn func()) bool {
	finished := make(chan struct{})
	select {
	case e.ops <- func() { fn(); close(finished) }:
	case <-e.done:
		return false
	}
	<-finished
	return true
}

// post queues fn on the owner goroutine without waiting for it to run.
func (e *Engine) post(fn func()) {
	select {
	case e.ops <- fn:
	case <-e.done:
	}
}

// Resume opens the socket and starts probing. It returns false when
// discovery is already running, and an error when the socket cannot be
// opened.
func (e *Engine) Resume() (bool, error) {
	var (
		started bool
		err     error
	)
	e.do(func() { started, err = e.resume() })
	return started, err
}

// Pause stops probing and closes the socket but keeps the known devices.
// It returns false unless discovery is running.
func (e *Engine) Pause() bool {
	var ok bool
	e.do(func() { ok = e.pause() })
	return ok
}

// Stop ends discovery, reports every known device as removed and then
// reports the stop. It returns false when already stopped.
func (e *Engine) Stop() bool {
	var ok bool
	e.do(func() { ok = e.teardown(nil) })
	return ok
}

// SetInterval changes the refresh cadence. While running, scheduled work is
// dropped and a refresh cycle starts immediately.
func (e *Engine) SetInterval(d time.Duration) {
	e.do(func() {
		e.interval = clampInterval(d)
		if e.state == StateRunning {
			e.refresh()
		}
	})
}

// Interval returns the effective refresh interval.
func (e *Engine) Interval() time.Duration {
	var d time.Duration
	e.do(func() { d = e.interval })
	return d
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	state := StateStopped
	e.do(func() { state = e.state })
	return state
}

// Devices returns a snapshot of the discovered devices ordered by id.
func (e *Engine) Devices() []upnp.Device {
	var out []upnp.Device
	e.do(func() {
		out = make([]upnp.Device, 0, len(e.devices))
		for _, d := range e.devices {
			out = append(out, d)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops discovery and releases the engine goroutines. Queued
// notifications are delivered before Close returns, so it must not be called
// from an Observer.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.Stop()
		close(e.done)
		<-e.exited
		e.events.close()
	})
}

func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	logging.LogStateChange("discovery", e.state, s)
	e.state = s
}

func (e *Engine) resume() (bool, error) {
	if e.state == StateRunning {
		return false, nil
	}

	sock, err := e.listen()
	if err != nil {
		e.log.Error("Failed to open SSDP socket", zap.Error(err))
		return false, err
	}

	e.sockGen++
	e.sock = sock
	e.session++
	e.fetchCtx, e.cancel = context.WithCancel(context.Background())
	e.setState(StateRunning)

	go e.readLoop(sock, e.sockGen)
	e.refresh()
	return true, nil
}

func (e *Engine) pause() bool {
	if e.state != StateRunning {
		return false
	}
	e.release()
	e.setState(StatePaused)
	return true
}

// release closes the socket, cancels timers and abandons in-flight fetches.
func (e *Engine) release() {
	e.stopTimers()
	e.cycle++
	if e.sock != nil {
		e.sockGen++
		if err := e.sock.Close(); err != nil {
			e.log.Debug("Error closing SSDP socket", zap.Error(err))
		}
		e.sock = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.session++
	clear(e.fetching)
}

// teardown is the shared path for Stop and socket failure.
func (e *Engine) teardown(cause error) bool {
	if e.state == StateStopped {
		return false
	}
	e.release()

	removed := make([]upnp.Device, 0, len(e.devices))
	for _, d := range e.devices {
		removed = append(removed, d)
	}
	clear(e.devices)
	clear(e.lastSeen)
	e.setState(StateStopped)

	if len(removed) > 0 {
		e.notifyRemoved(removed)
	}
	if e.observer != nil {
		e.events.push(func() { e.observer.DiscoveryStopped(cause) })
	}
	return true
}

func (e *Engine) stopTimers() {
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = e.timers[:0]
}

// after schedules fn on the owner goroutine for the current cycle. Callbacks
// from an older cycle are discarded.
func (e *Engine) after(d time.Duration, fn func()) {
	cycle := e.cycle
	e.timers = append(e.timers, time.AfterFunc(d, func() {
		e.post(func() {
			if e.cycle != cycle || e.state != StateRunning {
				return
			}
			fn()
		})
	}))
}

func (e *Engine) refresh() {
	e.stopTimers()
	e.cycle++

	group := ssdp.GroupAddr()
	for _, target := range e.targets {
		req := ssdp.MSearch(target, e.maxTime)
		for i := 0; i < probeRepeat; i++ {
			if _, err := e.sock.WriteTo(req, group); err != nil {
				e.log.Warn("Failed to send M-SEARCH",
					zap.String("search_target", target),
					zap.Error(err),
				)
				continue
			}
			logging.LogDatagram("out", group.String(), req)
		}
	}

	t0 := e.now()
	e.after(e.maxTime+e.grace, func() { e.evict(t0) })
	e.after(e.interval, e.refresh)
}

func (e *Engine) evict(t0 time.Time) {
	var removed []upnp.Device
	for id, seen := range e.lastSeen {
		if !seen.Before(t0) {
			continue
		}
		delete(e.lastSeen, id)
		if d, ok := e.devices[id]; ok {
			delete(e.devices, id)
			removed = append(removed, d)
		}
	}
	if len(removed) > 0 {
		e.notifyRemoved(removed)
	}
}

func (e *Engine) readLoop(sock Socket, gen uint64) {
	buf := make([]byte, readBufferSize)
	for {
		n, addr, err := sock.ReadFrom(buf)
		if err != nil {
			e.post(func() { e.socketFailed(gen, err) })
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		e.post(func() { e.handleDatagram(gen, payload, addr) })
	}
}

func (e *Engine) socketFailed(gen uint64, err error) {
	if gen != e.sockGen {
		// closed on purpose by pause or stop
		return
	}
	e.log.Error("SSDP socket failed", zap.Error(err))
	e.teardown(err)
}

func (e *Engine) handleDatagram(gen uint64, payload []byte, addr net.Addr) {
	if gen != e.sockGen || e.state != StateRunning {
		return
	}
	from := ""
	if addr != nil {
		from = addr.String()
	}
	logging.LogDatagram("in", from, payload)

	resp, err := ssdp.ParseResponse(payload)
	if err != nil {
		e.log.Debug("Ignoring datagram", zap.String("from", from), zap.Error(err))
		return
	}
	id, ok := resp.DeviceID()
	if !ok {
		e.log.Debug("Ignoring response without device id", zap.String("usn", resp.USN))
		return
	}

	e.lastSeen[id] = e.now()
	if _, known := e.devices[id]; known || e.fetching[id] {
		return
	}

	e.fetching[id] = true
	ctx, session := e.fetchCtx, e.session
	go func() {
		dev, err := e.fetcher.Fetch(ctx, resp.Location)
		e.post(func() { e.fetched(session, id, resp.Location, dev, err) })
	}()
}

func (e *Engine) fetched(session uint64, id, location string, dev upnp.Device, err error) {
	if session != e.session {
		return
	}
	delete(e.fetching, id)
	if err != nil {
		e.log.Warn("Failed to fetch device descriptor",
			zap.String("device_id", id),
			zap.String("location", location),
			zap.Error(err),
		)
		return
	}
	if e.state != StateRunning {
		return
	}
	if _, known := e.devices[id]; known {
		return
	}

	e.devices[id] = dev
	e.log.Info("Device added",
		zap.String("device_id", id),
		zap.String("friendly_name", dev.FriendlyName),
		zap.String("manufacturer", dev.Manufacturer),
	)
	if e.observer != nil {
		added := []upnp.Device{dev}
		e.events.push(func() { e.observer.DevicesAdded(added) })
	}
}

func (e *Engine) notifyRemoved(devices []upnp.Device) {
	for _, d := range devices {
		e.log.Info("Device removed", zap.String("device_id", d.ID))
	}
	if e.observer != nil {
		e.events.push(func() { e.observer.DevicesRemoved(devices) })
	}
}
