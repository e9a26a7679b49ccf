package media

import (
	"context"

	"github.com/muurk/ocast/pkg/device"
	"github.com/muurk/ocast/pkg/message"
)

// Controller sends media commands to the receiver application. Commands go
// to the browser domain, so the application is started on demand.
type Controller struct {
	sender device.Sender
}

// NewController creates a media controller on top of a protocol client.
func NewController(s device.Sender) *Controller {
	return &Controller{sender: s}
}

func (c *Controller) send(ctx context.Context, name string, params any, options map[string]any) error {
	cmd := message.Command[any](ServiceName, name, params).WithOptions(options)
	return mapError(c.sender.Send(ctx, message.DomainBrowser, cmd))
}

func (c *Controller) query(ctx context.Context, name string, result any) error {
	cmd := message.Command[any](ServiceName, name, noParams{})
	return mapError(c.sender.SendWithResult(ctx, message.DomainBrowser, cmd, result))
}

// Prepare loads a media. options are passed through to the application.
func (c *Controller) Prepare(ctx context.Context, p PrepareParams, options map[string]any) error {
	return c.send(ctx, "prepare", p, options)
}

// SetTrack enables or disables a track.
func (c *Controller) SetTrack(ctx context.Context, p TrackParams) error {
	return c.send(ctx, "track", p, nil)
}

// Play starts playback at position seconds.
func (c *Controller) Play(ctx context.Context, position float64) error {
	return c.send(ctx, "play", positionParams{Position: position}, nil)
}

func (c *Controller) Stop(ctx context.Context) error {
	return c.send(ctx, "stop", noParams{}, nil)
}

func (c *Controller) Resume(ctx context.Context) error {
	return c.send(ctx, "resume", noParams{}, nil)
}

func (c *Controller) Pause(ctx context.Context) error {
	return c.send(ctx, "pause", noParams{}, nil)
}

// SetVolume sets the volume between 0 and 1.
func (c *Controller) SetVolume(ctx context.Context, volume float64) error {
	return c.send(ctx, "volume", volumeParams{Volume: volume}, nil)
}

// Seek moves playback to position seconds.
func (c *Controller) Seek(ctx context.Context, position float64) error {
	return c.send(ctx, "seek", positionParams{Position: position}, nil)
}

func (c *Controller) Mute(ctx context.Context, mute bool) error {
	return c.send(ctx, "mute", muteParams{Mute: mute}, nil)
}

// Metadata returns the metadata of the current media.
func (c *Controller) Metadata(ctx context.Context) (Metadata, error) {
	var md Metadata
	if err := c.query(ctx, "getMetadata", &md); err != nil {
		return Metadata{}, err
	}
	return md, nil
}

// PlaybackStatus returns the player status.
func (c *Controller) PlaybackStatus(ctx context.Context) (PlaybackStatus, error) {
	var st PlaybackStatus
	if err := c.query(ctx, "getPlaybackStatus", &st); err != nil {
		return PlaybackStatus{}, err
	}
	return st, nil
}
