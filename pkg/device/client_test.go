package device

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/ocast/pkg/dial"
	"github.com/muurk/ocast/pkg/message"
	"github.com/muurk/ocast/pkg/transport"
	"github.com/muurk/ocast/pkg/upnp"
)

var testDevice = upnp.Device{
	ID:             "abcd",
	FriendlyName:   "Living room",
	Manufacturer:   "Innopia",
	ModelName:      "cle HDMI",
	ApplicationURL: "http://192.168.1.20:8008/apps",
	IPAddress:      "192.168.1.20",
	Port:           8008,
}

// fakeConn records what the client sends. onSend runs synchronously for
// every successful send and may answer through push.
type fakeConn struct {
	mu        sync.Mutex
	handler   transport.Handler
	sent      []message.Inbound
	sendErr   error
	onSend    func(c *fakeConn, env message.Inbound)
	closeOnce sync.Once
}

func (c *fakeConn) Start(h transport.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *fakeConn) Send(text string) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	var env message.Inbound
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, env)
	c.mu.Unlock()
	if c.onSend != nil {
		c.onSend(c, env)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.drop(nil)
	return nil
}

// drop reports the end of the connection once.
func (c *fakeConn) drop(err error) {
	c.closeOnce.Do(func() {
		go c.handler.HandleDisconnect(err)
	})
}

func (c *fakeConn) push(text string) {
	c.handler.HandleMessage(text)
}

func (c *fakeConn) sentCommands() []message.Inbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]message.Inbound(nil), c.sent...)
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	urls  []string
	tls   []*tls.Config
	calls atomic.Int32
}

func (d *fakeDialer) Dial(_ context.Context, url string, tlsConfig *tls.Config) (transport.Conn, error) {
	d.calls.Add(1)
	d.urls = append(d.urls, url)
	d.tls = append(d.tls, tlsConfig)
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

// fakeDIAL answers info with a fixed AppInfo and counts start/stop calls.
type fakeDIAL struct {
	info     dial.AppInfo
	infoErr  error
	startErr error
	stopErr  error
	onStart  func()
	starts   atomic.Int32
	stops    atomic.Int32
}

func (f *fakeDIAL) Info(_ context.Context, app string) (dial.AppInfo, error) {
	if f.infoErr != nil {
		return dial.AppInfo{}, f.infoErr
	}
	info := f.info
	info.Name = app
	return info, nil
}

func (f *fakeDIAL) Start(_ context.Context, _ string) error {
	f.starts.Add(1)
	if f.startErr != nil {
		return f.startErr
	}
	if f.onStart != nil {
		f.onStart()
	}
	return nil
}

func (f *fakeDIAL) Stop(_ context.Context, _ string) error {
	f.stops.Add(1)
	return f.stopErr
}

type harness struct {
	client *Client
	conn   *fakeConn
	dialer *fakeDialer
	dial   *fakeDIAL
	notes  chan Notification
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		conn:  &fakeConn{},
		dial:  &fakeDIAL{info: dial.AppInfo{State: dial.StateStopped, WebSocketURL: "ws://192.168.1.20:4434/ocast"}},
		notes: make(chan Notification, 16),
	}
	h.dialer = &fakeDialer{conn: h.conn}
	all := append([]Option{
		WithDialer(h.dialer),
		WithDIAL(h.dial),
		WithSourceID("test-src"),
		WithNotify(func(n Notification) { h.notes <- n }),
	}, opts...)
	h.client = New(testDevice, all...)
	return h
}

// connect brings the harness client to Connected.
func (h *harness) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, h.client.Connect(context.Background(), nil))
	require.Equal(t, StateConnected, h.client.State())
}

func encode(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func replyFor(t *testing.T, env message.Inbound, status message.Status, params string) string {
	t.Helper()
	return encode(t, message.DeviceLayer[json.RawMessage]{
		ID:          env.ID,
		Source:      env.Destination,
		Destination: env.Source,
		Status:      status,
		Type:        message.TypeReply,
		Message: message.ApplicationLayer[json.RawMessage]{
			Service: env.Message.Service,
			Data:    message.DataLayer[json.RawMessage]{Name: env.Message.Data.Name, Params: json.RawMessage(params)},
		},
	})
}

func event(t *testing.T, service, name, params string) string {
	t.Helper()
	return encode(t, message.DeviceLayer[json.RawMessage]{
		Source:      string(message.DomainBrowser),
		Destination: string(message.DomainAll),
		Type:        message.TypeEvent,
		Message: message.ApplicationLayer[json.RawMessage]{
			Service: service,
			Data:    message.DataLayer[json.RawMessage]{Name: name, Params: json.RawMessage(params)},
		},
	})
}

func webAppEvent(t *testing.T, status message.WebAppStatus) string {
	return event(t, message.WebAppService, "connectedStatus", `{"status":"`+string(status)+`"}`)
}

func mediaCommand(name string) message.ApplicationLayer[any] {
	return message.Command[any]("org.ocast.media", name, map[string]any{})
}

func TestSequence(t *testing.T) {
	var s sequence
	for want := 1; want <= 5; want++ {
		assert.Equal(t, want, s.next())
	}

	s.last = math.MaxInt - 1
	assert.Equal(t, math.MaxInt, s.next())
	assert.Equal(t, 1, s.next())
}

func TestSequence_Concurrent(t *testing.T) {
	var s sequence
	const workers, each = 8, 200

	ids := make(chan int, workers*each)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				ids <- s.next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*each)
}

func TestClient_StateGates(t *testing.T) {
	ctx := context.Background()
	ops := map[string]func(c *Client) error{
		"connect":    func(c *Client) error { return c.Connect(ctx, nil) },
		"disconnect": func(c *Client) error { return c.Disconnect(ctx) },
		"send":       func(c *Client) error { return c.Send(ctx, message.DomainSettings, mediaCommand("play")) },
		"start":      func(c *Client) error { return c.StartApplication(ctx) },
	}

	tests := []struct {
		state State
		want  map[string]error
	}{
		{
			state: StateDisconnected,
			want: map[string]error{
				"disconnect": nil,
				"send":       ErrWrongStateDisconnected,
				"start":      ErrWrongStateDisconnected,
			},
		},
		{
			state: StateConnecting,
			want: map[string]error{
				"connect":    ErrWrongStateConnecting,
				"disconnect": ErrWrongStateConnecting,
				"send":       ErrWrongStateConnecting,
				"start":      ErrWrongStateConnecting,
			},
		},
		{
			state: StateConnected,
			want: map[string]error{
				"connect": nil,
			},
		},
		{
			state: StateDisconnecting,
			want: map[string]error{
				"connect":    ErrWrongStateDisconnecting,
				"disconnect": ErrWrongStateDisconnecting,
				"send":       ErrWrongStateDisconnecting,
				"start":      ErrWrongStateDisconnecting,
			},
		},
	}

	for _, tt := range tests {
		for name, want := range tt.want {
			t.Run(tt.state.String()+"/"+name, func(t *testing.T) {
				h := newHarness(t, WithApplicationName("App1"))
				h.client.state = tt.state

				err := ops[name](h.client)
				if want == nil {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, want)
					assert.True(t, IsStateError(err))
				}
				assert.Zero(t, h.dialer.calls.Load(), "gate must not dial")
				assert.Empty(t, h.conn.sentCommands(), "gate must not send")
				assert.Equal(t, tt.state, h.client.State())
			})
		}
	}
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	h := newHarness(t)

	err := h.client.Send(context.Background(), message.DomainBrowser, mediaCommand("play"))

	require.ErrorIs(t, err, ErrWrongStateDisconnected)
	assert.Zero(t, h.dialer.calls.Load())
	assert.Zero(t, h.dial.starts.Load())
	assert.Empty(t, h.conn.sentCommands())
}

func TestClient_ConnectEndpoint(t *testing.T) {
	t.Run("settings endpoint without application", func(t *testing.T) {
		h := newHarness(t)
		h.connect(t)
		assert.Equal(t, []string{"wss://192.168.1.20:4433/ocast"}, h.dialer.urls)
	})

	t.Run("DIAL websocket URL", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.connect(t)
		assert.Equal(t, []string{"ws://192.168.1.20:4434/ocast"}, h.dialer.urls)
	})

	t.Run("DIAL without websocket URL", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.dial.info.WebSocketURL = ""
		h.connect(t)
		assert.Equal(t, []string{"wss://192.168.1.20:4433/ocast"}, h.dialer.urls)
	})

	t.Run("TLS config from SSL config", func(t *testing.T) {
		h := newHarness(t)
		ssl := transport.SSLConfig{DisablesValidation: true}
		require.NoError(t, h.client.Connect(context.Background(), &ssl))
		require.Len(t, h.dialer.tls, 1)
		require.NotNil(t, h.dialer.tls[0])
		assert.True(t, h.dialer.tls[0].InsecureSkipVerify)
	})

	t.Run("connect twice", func(t *testing.T) {
		h := newHarness(t)
		h.connect(t)
		h.connect(t)
		assert.EqualValues(t, 1, h.dialer.calls.Load())
	})
}

func TestClient_ConnectFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		want  error
	}{
		{
			name:  "DIAL info fails",
			setup: func(h *harness) { h.dial.infoErr = errors.New("404") },
			want:  ErrDIALRequestFailed,
		},
		{
			name:  "websocket URL is not a websocket",
			setup: func(h *harness) { h.dial.info.WebSocketURL = "http://192.168.1.20/ocast" },
			want:  ErrBadApplicationURL,
		},
		{
			name:  "dial fails",
			setup: func(h *harness) { h.dialer.err = errors.New("connection refused") },
			want:  ErrConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, WithApplicationName("App1"))
			tt.setup(h)

			err := h.client.Connect(context.Background(), nil)

			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateDisconnected, h.client.State())
		})
	}
}

func TestClient_StartApplication(t *testing.T) {
	t.Run("connected event arrives", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.connect(t)
		h.dial.onStart = func() { h.conn.push(webAppEvent(t, message.WebAppConnected)) }

		require.NoError(t, h.client.StartApplication(context.Background()))
		assert.EqualValues(t, 1, h.dial.starts.Load())
		assert.True(t, h.client.ApplicationRunning())
	})

	t.Run("connected event arrives later", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.connect(t)
		h.dial.onStart = func() {
			time.AfterFunc(50*time.Millisecond, func() { h.conn.push(webAppEvent(t, message.WebAppConnected)) })
		}

		require.NoError(t, h.client.StartApplication(context.Background()))
		assert.True(t, h.client.ApplicationRunning())
	})

	t.Run("event never arrives", func(t *testing.T) {
		const timeout = 150 * time.Millisecond
		h := newHarness(t, WithApplicationName("App1"), WithStartTimeout(timeout))
		h.connect(t)

		started := time.Now()
		err := h.client.StartApplication(context.Background())
		elapsed := time.Since(started)

		require.ErrorIs(t, err, ErrConnectionEventNotReceived)
		assert.True(t, IsProtocolError(err))
		assert.EqualValues(t, 1, h.dial.starts.Load())
		assert.GreaterOrEqual(t, elapsed, timeout)
		assert.Less(t, elapsed, timeout+time.Second)
		assert.False(t, h.client.ApplicationRunning())
	})

	t.Run("already running", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.dial.info.State = dial.StateRunning
		h.connect(t)

		require.NoError(t, h.client.StartApplication(context.Background()))
		assert.Zero(t, h.dial.starts.Load())
		assert.True(t, h.client.ApplicationRunning())
	})

	t.Run("application renamed while waiting", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.connect(t)
		h.dial.onStart = func() {
			time.AfterFunc(20*time.Millisecond, func() { h.client.SetApplicationName("App2") })
		}

		err := h.client.StartApplication(context.Background())
		require.ErrorIs(t, err, ErrConnectionEventNotReceived)
	})

	t.Run("disconnected while waiting", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.connect(t)
		h.dial.onStart = func() {
			time.AfterFunc(20*time.Millisecond, func() { h.conn.drop(errors.New("reset")) })
		}

		err := h.client.StartApplication(context.Background())
		require.ErrorIs(t, err, ErrConnectionEventNotReceived)
		assert.Equal(t, StateDisconnected, h.client.State())
	})

	t.Run("DIAL start fails", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.connect(t)
		h.dial.startErr = errors.New("503")

		err := h.client.StartApplication(context.Background())
		require.ErrorIs(t, err, ErrDIALRequestFailed)
	})

	t.Run("no application name", func(t *testing.T) {
		h := newHarness(t)
		h.connect(t)

		err := h.client.StartApplication(context.Background())
		require.ErrorIs(t, err, ErrApplicationNameNotSet)
		assert.Zero(t, h.dial.starts.Load())
	})

	t.Run("context canceled", func(t *testing.T) {
		h := newHarness(t, WithApplicationName("App1"))
		h.connect(t)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		err := h.client.StartApplication(ctx)
		require.ErrorIs(t, err, ErrCanceled)
	})
}

func TestClient_StopApplication(t *testing.T) {
	h := newHarness(t, WithApplicationName("App1"))
	h.dial.info.State = dial.StateRunning
	h.connect(t)
	require.NoError(t, h.client.StartApplication(context.Background()))
	require.True(t, h.client.ApplicationRunning())

	require.NoError(t, h.client.StopApplication(context.Background()))
	assert.EqualValues(t, 1, h.dial.stops.Load())
	assert.False(t, h.client.ApplicationRunning())

	h.dial.stopErr = errors.New("404")
	assert.ErrorIs(t, h.client.StopApplication(context.Background()), ErrDIALRequestFailed)

	h.client.SetApplicationName("")
	assert.ErrorIs(t, h.client.StopApplication(context.Background()), ErrApplicationNameNotSet)
}

func TestClient_SendWithResult(t *testing.T) {
	h := newHarness(t)
	h.connect(t)
	h.conn.onSend = func(c *fakeConn, env message.Inbound) {
		c.push(replyFor(t, env, message.StatusOK, `{"code":0,"id":"device-1"}`))
	}

	var result struct {
		ID string `json:"id"`
	}
	cmd := message.Command[any]("org.ocast.settings.device", "getDeviceID", map[string]any{})
	require.NoError(t, h.client.SendWithResult(context.Background(), message.DomainSettings, cmd, &result))
	assert.Equal(t, "device-1", result.ID)

	sent := h.conn.sentCommands()
	require.Len(t, sent, 1)
	assert.Equal(t, 1, sent[0].ID)
	assert.Equal(t, "test-src", sent[0].Source)
	assert.Equal(t, "settings", sent[0].Destination)
	assert.Equal(t, message.TypeCommand, sent[0].Type)
	assert.Equal(t, "getDeviceID", sent[0].Message.Data.Name)

	// A second reply for the same id has nobody waiting and is dropped.
	h.conn.push(replyFor(t, sent[0], message.StatusOK, `{"code":0}`))

	require.NoError(t, h.client.Send(context.Background(), message.DomainSettings, cmd))
	sent = h.conn.sentCommands()
	require.Len(t, sent, 2)
	assert.Equal(t, 2, sent[1].ID)
}

func TestClient_DuplicateReply(t *testing.T) {
	h := newHarness(t)
	h.connect(t)
	h.conn.onSend = func(c *fakeConn, env message.Inbound) {
		c.push(replyFor(t, env, message.StatusOK, `{"code":0,"id":"first"}`))
		c.push(replyFor(t, env, message.StatusOK, `{"code":0,"id":"second"}`))

		unknown := env
		unknown.ID = env.ID + 100
		c.push(replyFor(t, unknown, message.StatusOK, `{"code":0,"id":"stray"}`))
	}

	var result struct {
		ID string `json:"id"`
	}
	cmd := message.Command[any]("org.ocast.settings.device", "getDeviceID", map[string]any{})

	done := make(chan error, 1)
	go func() {
		done <- h.client.SendWithResult(context.Background(), message.DomainSettings, cmd, &result)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SendWithResult blocked on duplicate replies")
	}
	assert.Equal(t, "first", result.ID)

	h.client.mu.Lock()
	assert.Empty(t, h.client.pending)
	h.client.mu.Unlock()
	assert.Equal(t, StateConnected, h.client.State())
}

func TestClient_ReplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		status message.Status
		params string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "receiver code",
			status: message.StatusOK,
			params: `{"code":2404}`,
			check: func(t *testing.T, err error) {
				code, ok := ReplyCode(err)
				require.True(t, ok)
				assert.Equal(t, 2404, code)
				assert.True(t, IsReplyError(err))
			},
		},
		{
			name:   "transport status",
			status: "json_format_error",
			params: `{}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrTransport)
				var te *message.TransportError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, message.TransportErrorJSONFormat, te.Kind)
			},
		},
		{
			name:   "missing status",
			status: "",
			params: `{"code":0}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrTransport)
				var te *message.TransportError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, message.TransportErrorMissingStatus, te.Kind)
			},
		},
		{
			name:   "params are not an object",
			status: message.StatusOK,
			params: `[1,2]`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrBadReplyFormat)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.connect(t)
			h.conn.onSend = func(c *fakeConn, env message.Inbound) {
				c.push(replyFor(t, env, tt.status, tt.params))
			}

			err := h.client.Send(context.Background(), message.DomainSettings, mediaCommand("play"))
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, h.client.pending)
		})
	}
}

func TestClient_SendResultFormat(t *testing.T) {
	h := newHarness(t)
	h.connect(t)
	h.conn.onSend = func(c *fakeConn, env message.Inbound) {
		c.push(replyFor(t, env, message.StatusOK, `{"code":0,"volume":"loud"}`))
	}

	var result struct {
		Volume float64 `json:"volume"`
	}
	err := h.client.SendWithResult(context.Background(), message.DomainSettings, mediaCommand("getPlaybackStatus"), &result)
	require.ErrorIs(t, err, ErrBadReplyFormat)
}

func TestClient_SendFailure(t *testing.T) {
	h := newHarness(t)
	h.connect(t)
	h.conn.sendErr = transport.ErrPayloadTooLarge

	err := h.client.Send(context.Background(), message.DomainSettings, mediaCommand("play"))

	require.ErrorIs(t, err, ErrCommandNotSent)
	assert.ErrorIs(t, err, transport.ErrPayloadTooLarge)
	assert.Empty(t, h.client.pending)
}

func TestClient_SendCanceled(t *testing.T) {
	h := newHarness(t)
	h.connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := h.client.Send(ctx, message.DomainSettings, mediaCommand("play"))

	require.ErrorIs(t, err, ErrCanceled)
	assert.Empty(t, h.client.pending)
}

func TestClient_BrowserCommandStartsApplication(t *testing.T) {
	h := newHarness(t, WithApplicationName("App1"))
	h.connect(t)
	h.dial.onStart = func() { h.conn.push(webAppEvent(t, message.WebAppConnected)) }
	h.conn.onSend = func(c *fakeConn, env message.Inbound) {
		c.push(replyFor(t, env, message.StatusOK, `{"code":0}`))
	}

	require.NoError(t, h.client.Send(context.Background(), message.DomainBrowser, mediaCommand("resume")))
	require.NoError(t, h.client.Send(context.Background(), message.DomainBrowser, mediaCommand("pause")))

	assert.EqualValues(t, 1, h.dial.starts.Load(), "second command must reuse the running application")
	sent := h.conn.sentCommands()
	require.Len(t, sent, 2)
	assert.Equal(t, "browser", sent[0].Destination)

	// The application going away makes the next command start it again.
	h.conn.push(webAppEvent(t, message.WebAppDisconnected))
	assert.False(t, h.client.ApplicationRunning())
	require.NoError(t, h.client.Send(context.Background(), message.DomainBrowser, mediaCommand("play")))
	assert.EqualValues(t, 2, h.dial.starts.Load())
}

func TestClient_BrowserCommandWithoutApplication(t *testing.T) {
	h := newHarness(t)
	h.connect(t)

	err := h.client.Send(context.Background(), message.DomainBrowser, mediaCommand("play"))

	require.ErrorIs(t, err, ErrApplicationNameNotSet)
	assert.Empty(t, h.conn.sentCommands())
}

func TestClient_DisconnectFailsPending(t *testing.T) {
	h := newHarness(t)
	h.connect(t)

	errc := make(chan error, 1)
	go func() {
		errc <- h.client.Send(context.Background(), message.DomainSettings, mediaCommand("play"))
	}()
	require.Eventually(t, func() bool { return len(h.conn.sentCommands()) == 1 }, time.Second, 5*time.Millisecond)

	cause := errors.New("connection reset")
	h.conn.drop(cause)

	select {
	case err := <-errc:
		require.ErrorIs(t, err, ErrDeviceDisconnected)
		assert.ErrorIs(t, err, cause)
	case <-time.After(time.Second):
		t.Fatal("pending command not failed")
	}

	select {
	case n := <-h.notes:
		assert.Equal(t, NotificationDeviceDisconnected, n.Type)
		assert.Equal(t, "abcd", n.Device)
		assert.ErrorIs(t, n.Err, cause)
	case <-time.After(time.Second):
		t.Fatal("no disconnect notification")
	}
	assert.Equal(t, StateDisconnected, h.client.State())
}

func TestClient_Disconnect(t *testing.T) {
	h := newHarness(t)
	h.connect(t)

	require.NoError(t, h.client.Disconnect(context.Background()))
	assert.Equal(t, StateDisconnected, h.client.State())

	select {
	case n := <-h.notes:
		t.Fatalf("unexpected notification %v", n.Type)
	case <-time.After(50 * time.Millisecond):
	}

	// Reconnecting works after a clean disconnect.
	h.conn = &fakeConn{}
	h.dialer.conn = h.conn
	h.connect(t)
	assert.EqualValues(t, 2, h.dialer.calls.Load())
}

func TestClient_Events(t *testing.T) {
	h := newHarness(t)
	h.connect(t)

	got := make(chan json.RawMessage, 1)
	h.client.RegisterEvent("custom", func(params json.RawMessage) { got <- params })

	h.conn.push(`{not json`)
	h.conn.push(event(t, "org.ocast.custom", "unknown", `{"a":1}`))
	h.conn.push(event(t, "org.ocast.custom", "custom", `{"b":2}`))

	select {
	case params := <-got:
		// data params only, not the envelope
		assert.JSONEq(t, `{"b":2}`, string(params))
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}

	h.conn.push(event(t, "org.ocast.media", EventPlaybackStatus, `{"state":2,"volume":0.5}`))
	select {
	case n := <-h.notes:
		assert.Equal(t, NotificationPlaybackStatus, n.Type)
		assert.JSONEq(t, `{"state":2,"volume":0.5}`, string(n.Params))
	case <-time.After(time.Second):
		t.Fatal("no playback status notification")
	}
}

func TestClient_SetApplicationName(t *testing.T) {
	h := newHarness(t, WithApplicationName("App1"))
	h.dial.info.State = dial.StateRunning
	h.connect(t)
	require.NoError(t, h.client.StartApplication(context.Background()))
	require.True(t, h.client.ApplicationRunning())

	h.client.SetApplicationName("App1")
	assert.True(t, h.client.ApplicationRunning())

	h.client.SetApplicationName("App2")
	assert.Equal(t, "App2", h.client.ApplicationName())
	assert.False(t, h.client.ApplicationRunning())
}

func TestErrorKinds(t *testing.T) {
	err := newError(CodeConnectionFailed, errors.New("refused"))

	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.NotErrorIs(t, err, ErrDeviceDisconnected)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsStateError(err))
	assert.Contains(t, err.Error(), "refused")
	assert.NotEmpty(t, TroubleshootingHint(err))
	assert.Empty(t, TroubleshootingHint(errors.New("other")))

	_, ok := ReplyCode(err)
	assert.False(t, ok)
}
