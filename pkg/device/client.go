package device

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/ocast/internal/logging"
	"github.com/muurk/ocast/pkg/dial"
	"github.com/muurk/ocast/pkg/message"
	"github.com/muurk/ocast/pkg/transport"
	"github.com/muurk/ocast/pkg/upnp"
)

const (
	// DefaultStartTimeout bounds the wait for the application connected event.
	DefaultStartTimeout = 60 * time.Second

	// SettingsPort is the port of the receiver settings WebSocket.
	SettingsPort = 4433

	settingsPath = "/ocast"
)

var errNoDIAL = errors.New("device has no DIAL application URL")

// Sender is the command capability of a Client used by the media and
// settings controllers.
type Sender interface {
	Send(ctx context.Context, domain message.Domain, cmd message.ApplicationLayer[any]) error
	SendWithResult(ctx context.Context, domain message.Domain, cmd message.ApplicationLayer[any], result any) error
}

var _ Sender = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithDIAL replaces the DIAL service built from the device application URL.
func WithDIAL(s dial.Service) Option {
	return func(c *Client) { c.dial = s }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d transport.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithStartTimeout sets how long StartApplication waits for the receiver
// application to announce itself.
func WithStartTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.startTimeout = d
		}
	}
}

// WithNotify sets the function receiving out-of-band notifications. It is
// called from the connection's read goroutine and must not block.
func WithNotify(fn func(Notification)) Option {
	return func(c *Client) { c.notify = fn }
}

// WithSourceID sets the src field of outgoing commands.
func WithSourceID(id string) Option {
	return func(c *Client) { c.sourceID = id }
}

// WithSettingsURL replaces the default wss://<ip>:4433/ocast endpoint.
func WithSettingsURL(u string) Option {
	return func(c *Client) { c.settingsURL = u }
}

// WithApplicationName sets the receiver application to drive.
func WithApplicationName(name string) Option {
	return func(c *Client) { c.appName = name }
}

type reply struct {
	params json.RawMessage
	err    error
}

// waiter is one StartApplication call waiting for the connected event.
type waiter struct {
	app string
	ch  chan bool
}

// Client is the protocol client for one receiver. All methods are safe for
// concurrent use.
type Client struct {
	device       upnp.Device
	dial         dial.Service
	dialer       transport.Dialer
	startTimeout time.Duration
	notify       func(Notification)
	sourceID     string
	settingsURL  string
	log          *zap.Logger

	seq sequence

	mu             sync.Mutex
	state          State
	appName        string
	appRunning     bool
	conn           transport.Conn
	pending        map[int]chan reply
	events         map[string]EventHandler
	waiters        []*waiter
	disconnectDone chan error
}

// New creates a disconnected client for d.
func New(d upnp.Device, opts ...Option) *Client {
	c := &Client{
		device:       d,
		dialer:       transport.NewWebSocketDialer(),
		startTimeout: DefaultStartTimeout,
		sourceID:     uuid.NewString(),
		settingsURL: (&url.URL{
			Scheme: "wss",
			Host:   net.JoinHostPort(d.IPAddress, strconv.Itoa(SettingsPort)),
			Path:   settingsPath,
		}).String(),
		pending: make(map[int]chan reply),
		events:  make(map[string]EventHandler),
	}
	if d.ApplicationURL != "" {
		c.dial = dial.NewClient(d.ApplicationURL)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.Named("device").With(zap.String("device", d.ID))

	builtin := map[string]NotificationType{
		EventPlaybackStatus:  NotificationPlaybackStatus,
		EventMetadataChanged: NotificationMetadataChanged,
		EventUpdateStatus:    NotificationUpdateStatus,
	}
	for name, typ := range builtin {
		c.events[name] = func(params json.RawMessage) {
			c.emit(Notification{Type: typ, Device: d.ID, Params: params})
		}
	}
	return c
}

// Device returns the receiver this client talks to.
func (c *Client) Device() upnp.Device {
	return c.device
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ApplicationName returns the configured receiver application.
func (c *Client) ApplicationName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appName
}

// SetApplicationName changes the receiver application. A change clears the
// running flag and fails any StartApplication still waiting.
func (c *Client) SetApplicationName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == c.appName {
		return
	}
	c.appName = name
	c.appRunning = false
	c.wakeLocked(func(*waiter) bool { return true }, false)
}

// ApplicationRunning reports whether the application is known to be running.
func (c *Client) ApplicationRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appRunning
}

// RegisterEvent routes events named name to h, replacing any previous handler.
// h receives the event's data params only; the service, src and dst of the
// envelope are not passed on. Handlers run on the read goroutine and must
// not block.
func (c *Client) RegisterEvent(name string, h EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[name] = h
}

func (c *Client) setStateLocked(s State) {
	if s == c.state {
		return
	}
	logging.LogStateChange("device "+c.device.ID, c.state, s)
	c.state = s
	c.appRunning = false
}

// Connect opens the WebSocket. When an application name is set its endpoint
// is resolved through DIAL first; otherwise the settings endpoint is used.
// ssl may be nil for the default TLS behaviour.
func (c *Client) Connect(ctx context.Context, ssl *transport.SSLConfig) error {
	c.mu.Lock()
	if err := c.state.forbidden(StateConnecting, StateDisconnecting); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateConnecting)
	app := c.appName
	c.mu.Unlock()

	conn, err := c.open(ctx, app, ssl)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	conn.Start(&connHandler{client: c, conn: conn})
	return nil
}

func (c *Client) open(ctx context.Context, app string, ssl *transport.SSLConfig) (transport.Conn, error) {
	target := c.settingsURL
	if app != "" {
		if c.dial == nil {
			return nil, newError(CodeDIALRequestFailed, errNoDIAL)
		}
		info, err := c.dial.Info(ctx, app)
		if err != nil {
			return nil, newError(CodeDIALRequestFailed, err)
		}
		if info.WebSocketURL != "" {
			target = info.WebSocketURL
		}
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, newError(CodeBadApplicationURL, fmt.Errorf("%q", target))
	}

	var tlsConfig *tls.Config
	if ssl != nil {
		if tlsConfig, err = ssl.TLSConfig(); err != nil {
			return nil, newError(CodeConnectionFailed, err)
		}
	}

	conn, err := c.dialer.Dial(ctx, target, tlsConfig)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(CodeCanceled, ctx.Err())
		}
		return nil, newError(CodeConnectionFailed, err)
	}
	c.log.Info("Connected", zap.String("url", target))
	return conn, nil
}

// Disconnect closes the WebSocket and waits for the close to complete.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if err := c.state.forbidden(StateConnecting, StateDisconnecting); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	done := make(chan error, 1)
	c.disconnectDone = done
	conn := c.conn
	c.setStateLocked(StateDisconnecting)
	c.mu.Unlock()

	if err := conn.Close(); err != nil {
		c.log.Debug("Close failed", zap.Error(err))
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return newError(CodeCanceled, ctx.Err())
	}
}

// StartApplication makes sure the receiver application is running. When DIAL
// reports it stopped, it is started and the call waits for the application
// to announce itself over the WebSocket.
func (c *Client) StartApplication(ctx context.Context) error {
	c.mu.Lock()
	app := c.appName
	if app == "" {
		c.mu.Unlock()
		return ErrApplicationNameNotSet
	}
	if err := c.state.forbidden(StateDisconnected, StateConnecting, StateDisconnecting); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if c.dial == nil {
		return newError(CodeDIALRequestFailed, errNoDIAL)
	}
	info, err := c.dial.Info(ctx, app)
	if err != nil {
		return newError(CodeDIALRequestFailed, err)
	}
	running := info.State == dial.StateRunning

	c.mu.Lock()
	if c.appName == app && c.state == StateConnected {
		c.appRunning = running
	}
	c.mu.Unlock()
	if running {
		return nil
	}

	w := c.addWaiter(app)
	defer c.removeWaiter(w)

	if err := c.dial.Start(ctx, app); err != nil {
		return newError(CodeDIALRequestFailed, err)
	}

	timer := time.NewTimer(c.startTimeout)
	defer timer.Stop()

	select {
	case ok := <-w.ch:
		if !ok {
			return ErrConnectionEventNotReceived
		}
	case <-timer.C:
		return newError(CodeConnectionEventNotReceived, fmt.Errorf("no event within %s", c.startTimeout))
	case <-ctx.Done():
		return newError(CodeCanceled, ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appName != app || c.state != StateConnected {
		return ErrConnectionEventNotReceived
	}
	c.log.Info("Application started", zap.String("app", app))
	return nil
}

// StopApplication stops the receiver application through DIAL.
func (c *Client) StopApplication(ctx context.Context) error {
	app := c.ApplicationName()
	if app == "" {
		return ErrApplicationNameNotSet
	}
	if c.dial == nil {
		return newError(CodeDIALRequestFailed, errNoDIAL)
	}
	if err := c.dial.Stop(ctx, app); err != nil {
		return newError(CodeDIALRequestFailed, err)
	}

	c.mu.Lock()
	if c.appName == app {
		c.appRunning = false
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) addWaiter(app string) *waiter {
	w := &waiter{app: app, ch: make(chan bool, 1)}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	return w
}

func (c *Client) removeWaiter(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, o := range c.waiters {
		if o == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// wakeLocked resolves and removes every waiter matching match.
func (c *Client) wakeLocked(match func(*waiter) bool, connected bool) {
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if !match(w) {
			kept = append(kept, w)
			continue
		}
		w.ch <- connected
	}
	clear(c.waiters[len(kept):])
	c.waiters = kept
}

// Send sends a command and waits for its reply, discarding the reply params.
// Commands to the browser domain start the application first when it is not
// known to be running.
func (c *Client) Send(ctx context.Context, domain message.Domain, cmd message.ApplicationLayer[any]) error {
	_, err := c.send(ctx, domain, cmd)
	return err
}

// SendWithResult sends a command and decodes the reply params into result.
func (c *Client) SendWithResult(ctx context.Context, domain message.Domain, cmd message.ApplicationLayer[any], result any) error {
	params, err := c.send(ctx, domain, cmd)
	if err != nil {
		return err
	}
	if len(params) == 0 {
		return ErrEmptyReply
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(params, result); err != nil {
		return newError(CodeBadReplyFormat, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, domain message.Domain, cmd message.ApplicationLayer[any]) (json.RawMessage, error) {
	c.mu.Lock()
	if err := c.state.forbidden(StateDisconnected, StateConnecting, StateDisconnecting); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	needStart := domain == message.DomainBrowser && !c.appRunning
	c.mu.Unlock()

	if needStart {
		if err := c.StartApplication(ctx); err != nil {
			return nil, err
		}
	}

	id := c.seq.next()
	data, err := json.Marshal(message.DeviceLayer[any]{
		ID:          id,
		Source:      c.sourceID,
		Destination: string(domain),
		Type:        message.TypeCommand,
		Message:     cmd,
	})
	if err != nil {
		return nil, newError(CodeMalformedCommand, err)
	}

	ch := make(chan reply, 1)
	c.mu.Lock()
	if err := c.state.forbidden(StateDisconnected, StateConnecting, StateDisconnecting); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	conn := c.conn
	c.pending[id] = ch
	c.mu.Unlock()

	if err := conn.Send(string(data)); err != nil {
		c.dropPending(id)
		return nil, newError(CodeCommandNotSent, err)
	}

	select {
	case r := <-ch:
		return r.params, r.err
	case <-ctx.Done():
		c.dropPending(id)
		return nil, newError(CodeCanceled, ctx.Err())
	}
}

func (c *Client) dropPending(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// current reports whether conn is still the client's connection.
func (c *Client) current(conn transport.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == conn
}

func (c *Client) handleMessage(conn transport.Conn, text string) {
	if !c.current(conn) {
		return
	}
	env, err := message.Decode([]byte(text))
	if err != nil {
		c.log.Debug("Dropping malformed message", zap.Error(err))
		return
	}

	switch env.Type {
	case message.TypeReply:
		c.handleReply(env)
	case message.TypeEvent:
		c.handleEvent(env)
	default:
		c.log.Debug("Ignoring inbound command", zap.Int("id", env.ID), zap.String("service", env.Message.Service))
	}
}

func (c *Client) handleReply(env message.Inbound) {
	c.mu.Lock()
	ch, ok := c.pending[env.ID]
	delete(c.pending, env.ID)
	c.mu.Unlock()

	if !ok {
		c.log.Warn("Reply without pending command", zap.Int("id", env.ID))
		return
	}
	ch <- replyResult(env)
}

func replyResult(env message.Inbound) reply {
	if err := env.Status.Err(); err != nil {
		return reply{err: newError(CodeTransport, err)}
	}
	code, _, err := message.ReplyCode(env.Message.Data.Params)
	if err != nil {
		return reply{err: newError(CodeBadReplyFormat, err)}
	}
	if code != message.SuccessCode {
		return reply{err: &ReplyError{Code: code}}
	}
	return reply{params: env.Message.Data.Params}
}

func (c *Client) handleEvent(env message.Inbound) {
	if env.Message.Service == message.WebAppService {
		var st message.WebAppConnectionStatus
		if err := json.Unmarshal(env.Message.Data.Params, &st); err != nil {
			c.log.Debug("Dropping malformed web app event", zap.Error(err))
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		switch st.Status {
		case message.WebAppConnected:
			if c.state == StateConnected {
				c.appRunning = true
			}
			app := c.appName
			c.wakeLocked(func(w *waiter) bool { return w.app == app }, true)
		case message.WebAppDisconnected:
			c.appRunning = false
		}
		c.log.Debug("Web app status", zap.String("status", string(st.Status)))
		return
	}

	name := env.Message.Data.Name
	c.mu.Lock()
	h, ok := c.events[name]
	c.mu.Unlock()
	if !ok {
		c.log.Debug("Dropping unregistered event", zap.String("name", name), zap.String("service", env.Message.Service))
		return
	}
	h(env.Message.Data.Params)
}

func (c *Client) handleDisconnect(conn transport.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.setStateLocked(StateDisconnected)
	pending := c.pending
	c.pending = make(map[int]chan reply)
	c.wakeLocked(func(*waiter) bool { return true }, false)
	done := c.disconnectDone
	c.disconnectDone = nil
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- reply{err: newError(CodeDeviceDisconnected, err)}
	}

	if done != nil {
		if err != nil {
			done <- newError(CodeDeviceDisconnected, err)
		} else {
			done <- nil
		}
		return
	}

	c.log.Warn("Device disconnected", zap.Error(err))
	c.emit(Notification{Type: NotificationDeviceDisconnected, Device: c.device.ID, Err: err})
}

func (c *Client) emit(n Notification) {
	if c.notify != nil {
		c.notify(n)
	}
}

// connHandler binds transport callbacks to the connection they came from so
// late callbacks of a replaced connection are ignored.
type connHandler struct {
	client *Client
	conn   transport.Conn
}

func (h *connHandler) HandleMessage(text string) {
	h.client.handleMessage(h.conn, text)
}

func (h *connHandler) HandleDisconnect(err error) {
	h.client.handleDisconnect(h.conn, err)
}
