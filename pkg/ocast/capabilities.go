package ocast

import (
	"context"
	"time"

	"github.com/muurk/ocast/pkg/device"
	"github.com/muurk/ocast/pkg/dial"
	"github.com/muurk/ocast/pkg/discovery"
	"github.com/muurk/ocast/pkg/transport"
	"github.com/muurk/ocast/pkg/upnp"
)

// Discoverer finds receivers.
type Discoverer interface {
	Resume() (bool, error)
	Pause() bool
	Stop() bool
	SetInterval(d time.Duration)
	Interval() time.Duration
	Devices() []upnp.Device
}

// ProtocolClient drives one receiver.
type ProtocolClient interface {
	device.Sender

	Device() upnp.Device
	State() device.State
	Connect(ctx context.Context, ssl *transport.SSLConfig) error
	Disconnect(ctx context.Context) error
	ApplicationName() string
	SetApplicationName(name string)
	StartApplication(ctx context.Context) error
	StopApplication(ctx context.Context) error
	RegisterEvent(name string, h device.EventHandler)
}

// DialService manages receiver applications.
type DialService interface {
	Info(ctx context.Context, app string) (dial.AppInfo, error)
	Start(ctx context.Context, app string) error
	Stop(ctx context.Context, app string) error
}

var (
	_ Discoverer     = (*discovery.Engine)(nil)
	_ ProtocolClient = (*device.Client)(nil)
	_ DialService    = (*dial.Client)(nil)
)
