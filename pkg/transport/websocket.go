package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/ocast/internal/logging"
)

const (
	// DefaultMaxPayloadSize caps outgoing text messages.
	DefaultMaxPayloadSize = 4096

	// DefaultPingPeriod is the keepalive cadence.
	DefaultPingPeriod = 5 * time.Second

	// DefaultMaxMissedPongs is how many pings may go unanswered before the
	// connection is considered dead.
	DefaultMaxMissedPongs = 2

	// DefaultHandshakeTimeout bounds the opening handshake.
	DefaultHandshakeTimeout = 10 * time.Second

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed for the peer to answer our close frame
	closeWait = 2 * time.Second

	// Maximum message size accepted from the peer
	maxMessageSize = 64 * 1024
)

// WebSocketDialer dials receivers with gorilla/websocket.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	PingPeriod       time.Duration
	MaxMissedPongs   int
	MaxPayloadSize   int
}

// NewWebSocketDialer returns a dialer with the default keepalive settings.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		HandshakeTimeout: DefaultHandshakeTimeout,
		PingPeriod:       DefaultPingPeriod,
		MaxMissedPongs:   DefaultMaxMissedPongs,
		MaxPayloadSize:   DefaultMaxPayloadSize,
	}
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context, url string, tlsConfig *tls.Config) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
		TLSClientConfig:  tlsConfig,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s: %w (HTTP %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	pingPeriod := d.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = DefaultPingPeriod
	}
	missed := d.MaxMissedPongs
	if missed <= 0 {
		missed = DefaultMaxMissedPongs
	}
	maxPayload := d.MaxPayloadSize
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayloadSize
	}

	logging.Info("WebSocket connected", zap.String("url", url))
	return &wsConn{
		url:        url,
		conn:       conn,
		maxPayload: maxPayload,
		pingPeriod: pingPeriod,
		pongWait:   pingPeriod * time.Duration(missed+1),
		done:       make(chan struct{}),
	}, nil
}

type wsConn struct {
	url        string
	conn       *websocket.Conn
	maxPayload int
	pingPeriod time.Duration
	pongWait   time.Duration

	writeMu sync.Mutex
	closing atomic.Bool
	started atomic.Bool
	done    chan struct{}
}

func (c *wsConn) Start(h Handler) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.readLoop(h)
	go c.pingLoop()
}

func (c *wsConn) readLoop(h Handler) {
	defer close(c.done)

	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	var err error
	for {
		var (
			kind int
			data []byte
		)
		kind, data, err = c.conn.ReadMessage()
		if err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		if kind != websocket.TextMessage {
			logging.Debug("Ignoring non-text WebSocket message", zap.String("url", c.url), zap.Int("type", kind))
			continue
		}
		text := string(data)
		logging.LogWebSocketMessage(c.url, "in", text)
		h.HandleMessage(text)
	}

	_ = c.conn.Close()
	if c.closing.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logging.Info("WebSocket closed", zap.String("url", c.url))
		h.HandleDisconnect(nil)
		return
	}
	logging.Warn("WebSocket connection lost", zap.String("url", c.url), zap.Error(err))
	h.HandleDisconnect(err)
}

func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logging.Debug("Ping failed", zap.String("url", c.url), zap.Error(err))
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) Send(text string) error {
	if len(text) > c.maxPayload {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(text), c.maxPayload)
	}
	if c.closing.Load() {
		return ErrNotConnected
	}
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return err
	}
	logging.LogWebSocketMessage(c.url, "out", text)
	return nil
}

func (c *wsConn) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	if !c.started.Load() {
		return c.conn.Close()
	}

	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) && !errors.Is(err, net.ErrClosed) {
		// peer unreachable, tear down right away
		return c.conn.Close()
	}

	// force the read loop out if the peer never echoes the close frame
	go func() {
		select {
		case <-c.done:
		case <-time.After(closeWait):
			_ = c.conn.Close()
		}
	}()
	return nil
}
