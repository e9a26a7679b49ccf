package ocast

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ocast/internal/logging"
	"github.com/muurk/ocast/pkg/device"
	"github.com/muurk/ocast/pkg/discovery"
	"github.com/muurk/ocast/pkg/ssdp"
	"github.com/muurk/ocast/pkg/upnp"
)

// ReferenceManufacturer is the manufacturer announced by reference receivers.
const ReferenceManufacturer = "Innopia"

// Factory builds the protocol client for a discovered receiver.
type Factory func(d upnp.Device) ProtocolClient

// ReferenceFactory builds reference protocol clients with opts.
func ReferenceFactory(opts ...device.Option) Factory {
	return func(d upnp.Device) ProtocolClient {
		return device.New(d, opts...)
	}
}

// Observer receives the clients of receivers as they come and go. Calls are
// made in order from one goroutine.
type Observer interface {
	ClientsAdded(clients []ProtocolClient)
	ClientsRemoved(clients []ProtocolClient)
	DiscoveryStopped(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Added   func([]ProtocolClient)
	Removed func([]ProtocolClient)
	Stopped func(error)
}

func (o ObserverFuncs) ClientsAdded(clients []ProtocolClient) {
	if o.Added != nil {
		o.Added(clients)
	}
}

func (o ObserverFuncs) ClientsRemoved(clients []ProtocolClient) {
	if o.Removed != nil {
		o.Removed(clients)
	}
}

func (o ObserverFuncs) DiscoveryStopped(err error) {
	if o.Stopped != nil {
		o.Stopped(err)
	}
}

// Options configures a Center. Discovery is passed to the engine; its
// SearchTargets and Observer are set by the center.
type Options struct {
	Discovery discovery.Options
	Observer  Observer
}

type registration struct {
	target  string
	factory Factory
}

// Center turns discovered receivers into protocol clients. Receivers are
// matched on their manufacturer against the registered factories.
type Center struct {
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	registry map[string]registration
	clients  map[string]ProtocolClient
	engine   *discovery.Engine
}

// NewCenter creates a center with an empty registry.
func NewCenter(opts Options) *Center {
	return &Center{
		opts:     opts,
		log:      logging.Named("center"),
		registry: make(map[string]registration),
		clients:  make(map[string]ProtocolClient),
	}
}

// Register maps manufacturer to f and adds searchTarget to the probed
// targets. An empty searchTarget selects the OCast target. Registrations
// made after the first Resume only affect client creation.
func (c *Center) Register(manufacturer, searchTarget string, f Factory) {
	if searchTarget == "" {
		searchTarget = ssdp.DefaultSearchTarget
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry[manufacturer] = registration{target: searchTarget, factory: f}
}

// SearchTargets returns the union of the registered search targets.
func (c *Center) SearchTargets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targetsLocked()
}

func (c *Center) targetsLocked() []string {
	var targets []string
	for _, r := range c.registry {
		if !slices.Contains(targets, r.target) {
			targets = append(targets, r.target)
		}
	}
	sort.Strings(targets)
	return targets
}

func (c *Center) discoverer() *discovery.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		opts := c.opts.Discovery
		opts.SearchTargets = c.targetsLocked()
		opts.Observer = centerObserver{c}
		c.engine = discovery.New(opts)
	}
	return c.engine
}

// Resume starts or resumes discovery. It reports false when discovery was
// already running.
func (c *Center) Resume() (bool, error) {
	return c.discoverer().Resume()
}

func (c *Center) Pause() bool {
	return c.discoverer().Pause()
}

func (c *Center) Stop() bool {
	return c.discoverer().Stop()
}

func (c *Center) SetInterval(d time.Duration) {
	c.discoverer().SetInterval(d)
}

func (c *Center) Interval() time.Duration {
	return c.discoverer().Interval()
}

// Clients returns the clients of the receivers currently known, sorted by
// device id.
func (c *Center) Clients() []ProtocolClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ProtocolClient, 0, len(c.clients))
	for _, cl := range c.clients {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device().ID < out[j].Device().ID })
	return out
}

// Client returns the client of the receiver with the given device id.
func (c *Center) Client(id string) (ProtocolClient, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.clients[id]
	return cl, ok
}

// Close releases the discovery engine.
func (c *Center) Close() {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine != nil {
		engine.Close()
	}
}

func (c *Center) added(devices []upnp.Device) {
	var added []ProtocolClient
	c.mu.Lock()
	for _, d := range devices {
		r, ok := c.lookupLocked(d.Manufacturer)
		if !ok {
			c.log.Warn("Receiver found but manufacturer not registered",
				zap.String("name", d.FriendlyName),
				zap.String("manufacturer", d.Manufacturer),
			)
			continue
		}
		cl := r.factory(d)
		c.clients[d.ID] = cl
		added = append(added, cl)
	}
	c.mu.Unlock()

	if len(added) > 0 && c.opts.Observer != nil {
		c.opts.Observer.ClientsAdded(added)
	}
}

// lookupLocked matches manufacturers case-insensitively.
func (c *Center) lookupLocked(manufacturer string) (registration, bool) {
	if r, ok := c.registry[manufacturer]; ok {
		return r, true
	}
	for name, r := range c.registry {
		if strings.EqualFold(name, manufacturer) {
			return r, true
		}
	}
	return registration{}, false
}

func (c *Center) removed(devices []upnp.Device) {
	var removed []ProtocolClient
	c.mu.Lock()
	for _, d := range devices {
		if cl, ok := c.clients[d.ID]; ok {
			removed = append(removed, cl)
			delete(c.clients, d.ID)
		}
	}
	c.mu.Unlock()

	if len(removed) > 0 && c.opts.Observer != nil {
		c.opts.Observer.ClientsRemoved(removed)
	}
}

func (c *Center) stopped(err error) {
	if err != nil {
		c.log.Warn("Discovery stopped", zap.Error(err))
	}
	if c.opts.Observer != nil {
		c.opts.Observer.DiscoveryStopped(err)
	}
}

type centerObserver struct {
	c *Center
}

func (o centerObserver) DevicesAdded(devices []upnp.Device)   { o.c.added(devices) }
func (o centerObserver) DevicesRemoved(devices []upnp.Device) { o.c.removed(devices) }
func (o centerObserver) DiscoveryStopped(err error)           { o.c.stopped(err) }
