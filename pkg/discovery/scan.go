package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/ocast/pkg/upnp"
)

// DefaultScanTimeout is how long the one-shot helpers listen for answers.
const DefaultScanTimeout = 5 * time.Second

// Scanner runs short-lived discovery sessions for tools that want a list
// rather than a live view.
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration

	// Options is passed to the underlying Engine. Observer is ignored.
	Options Options
}

// NewScanner creates a scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan probes once and returns every device whose descriptor was fetched
// before the timeout or ctx expired.
func (s *Scanner) Scan(ctx context.Context) ([]upnp.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	failed := make(chan error, 1)
	opts := s.Options
	opts.Observer = ObserverFuncs{Stopped: func(err error) {
		if err != nil {
			failed <- err
		}
	}}

	engine := New(opts)
	defer engine.Close()

	if _, err := engine.Resume(); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
	case err := <-failed:
		return nil, fmt.Errorf("discovery stopped: %w", err)
	}
	return engine.Devices(), nil
}

// WaitForDevice returns the first device accepted by match.
func (s *Scanner) WaitForDevice(ctx context.Context, match func(upnp.Device) bool) (upnp.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	found := make(chan upnp.Device, 1)
	failed := make(chan error, 1)
	opts := s.Options
	opts.Observer = ObserverFuncs{
		Added: func(devices []upnp.Device) {
			for _, d := range devices {
				if match(d) {
					select {
					case found <- d:
					default:
					}
					return
				}
			}
		},
		Stopped: func(err error) {
			if err != nil {
				failed <- err
			}
		},
	}

	engine := New(opts)
	defer engine.Close()

	if _, err := engine.Resume(); err != nil {
		return upnp.Device{}, err
	}

	select {
	case d := <-found:
		return d, nil
	case err := <-failed:
		return upnp.Device{}, fmt.Errorf("discovery stopped: %w", err)
	case <-ctx.Done():
		return upnp.Device{}, fmt.Errorf("no matching device found: %w", ctx.Err())
	}
}

// WaitForID waits for the device with the given id.
func (s *Scanner) WaitForID(ctx context.Context, id string) (upnp.Device, error) {
	return s.WaitForDevice(ctx, func(d upnp.Device) bool { return d.ID == id })
}

func (s *Scanner) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultScanTimeout
	}
	return s.Timeout
}
