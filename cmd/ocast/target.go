package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ocast/internal/logging"
	"github.com/muurk/ocast/internal/ui"
	"github.com/muurk/ocast/pkg/device"
	"github.com/muurk/ocast/pkg/discovery"
	"github.com/muurk/ocast/pkg/upnp"
)

// Receiver selection flags, shared by every command that talks to a receiver
var (
	deviceQuery string
	location    string
	appName     string
	insecure    bool
	timeout     time.Duration
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&deviceQuery, "device", "", "Receiver id, nickname or friendly name")
	flags.StringVar(&location, "location", "", "Descriptor URL of the receiver (skips discovery)")
	flags.StringVar(&appName, "app", "", "Receiver web application name (default from config)")
	flags.BoolVar(&insecure, "insecure", false, "Accept any receiver certificate")
	flags.DurationVar(&timeout, "timeout", 0, "Scan timeout (default from config)")
}

func scanTimeout() time.Duration {
	if timeout > 0 {
		return timeout
	}
	return cfg.Discovery.ScanTimeout
}

func newScanner() *discovery.Scanner {
	s := discovery.NewScanner()
	s.Timeout = scanTimeout()
	s.Options = cfg.DiscoveryOptions()
	return s
}

// matchDevice reports whether d answers to query by id or friendly name.
func matchDevice(query string) func(upnp.Device) bool {
	return func(d upnp.Device) bool {
		return d.ID == query || strings.EqualFold(d.FriendlyName, query)
	}
}

// resolveDevice finds the receiver named by --location or --device. Without
// either, a scan must find exactly one receiver.
func resolveDevice(ctx context.Context, p *ui.Printer) (upnp.Device, error) {
	fetcher := upnp.NewFetcher()

	if location != "" {
		return fetcher.Fetch(ctx, location)
	}

	if deviceQuery != "" {
		if id, r, ok := cfg.FindReceiver(deviceQuery); ok {
			d, err := fetcher.Fetch(ctx, r.Location)
			if err == nil {
				return d, nil
			}
			logging.Debug("Remembered location is stale, scanning",
				zap.String("id", id),
				zap.String("location", r.Location),
				zap.Error(err),
			)
			return newScanner().WaitForID(ctx, id)
		}
		return newScanner().WaitForDevice(ctx, matchDevice(deviceQuery))
	}

	devices, err := newScanner().Scan(ctx)
	if err != nil {
		return upnp.Device{}, err
	}
	switch len(devices) {
	case 0:
		return upnp.Device{}, fmt.Errorf("no receiver found, use --device or --location")
	case 1:
		return devices[0], nil
	default:
		for _, d := range devices {
			p.PrintDevice("?", d)
		}
		return upnp.Device{}, fmt.Errorf("%d receivers found, use --device to pick one", len(devices))
	}
}

func applicationName() string {
	if appName != "" {
		return appName
	}
	return cfg.Application.Name
}

// connect resolves the receiver and opens its WebSocket. The returned
// release function disconnects.
func connect(ctx context.Context, p *ui.Printer, opts ...device.Option) (*device.Client, func(), error) {
	d, err := resolveDevice(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	ssl, err := cfg.SSLConfig()
	if err != nil {
		return nil, nil, err
	}
	if insecure {
		ssl.DisablesValidation = true
	}

	opts = append([]device.Option{
		device.WithApplicationName(applicationName()),
		device.WithStartTimeout(cfg.Application.StartTimeout),
	}, opts...)
	client := device.New(d, opts...)

	if err := client.Connect(ctx, &ssl); err != nil {
		return nil, nil, err
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logging.Debug("Disconnect failed", zap.Error(err))
		}
	}
	return client, release, nil
}

// fail renders err with its troubleshooting hint and marks it reported.
func fail(p *ui.Printer, title string, err error) error {
	p.PrintError(title, err, device.TroubleshootingHint(err))
	return reportedError{err: err}
}

// targetParams lists the selection flags for command headers
func targetParams() map[string]string {
	params := map[string]string{}
	if deviceQuery != "" {
		params["Device"] = deviceQuery
	}
	if location != "" {
		params["Location"] = location
	}
	if name := applicationName(); name != "" {
		params["Application"] = name
	}
	return params
}
