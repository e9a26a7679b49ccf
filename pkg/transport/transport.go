package transport

import (
	"context"
	"crypto/tls"
	"errors"
)

var (
	// ErrNotConnected is returned by Send once the connection is closing or closed.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrPayloadTooLarge is returned by Send for messages above the payload cap.
	ErrPayloadTooLarge = errors.New("transport: payload too large")
)

// Handler receives what the peer sends. Both methods are called from the
// connection's read goroutine; HandleDisconnect is called exactly once.
type Handler interface {
	HandleMessage(text string)
	// HandleDisconnect reports the end of the connection. err is nil for a
	// clean close.
	HandleDisconnect(err error)
}

// Conn is an open, message oriented connection to a receiver.
type Conn interface {
	// Start begins delivering messages to h. It must be called once.
	Start(h Handler)
	Send(text string) error
	// Close starts a close handshake. Completion is reported through
	// Handler.HandleDisconnect.
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string, tlsConfig *tls.Config) (Conn, error)
}
