package settings

import (
	"context"
	"fmt"

	"github.com/muurk/ocast/pkg/device"
	"github.com/muurk/ocast/pkg/message"
)

// Error is a device settings error code. The receiver defines a single one.
type Error int

// ErrUnknown is returned for any non-zero device settings reply code.
const ErrUnknown Error = 1199

func (e Error) Error() string {
	return fmt.Sprintf("settings error %d", int(e))
}

func mapError(err error) error {
	if _, ok := device.ReplyCode(err); ok {
		return ErrUnknown
	}
	return err
}

// Controller talks to the receiver settings services. Commands go to the
// settings domain and never start the receiver application.
type Controller struct {
	sender device.Sender
}

// NewController creates a settings controller on top of a protocol client.
func NewController(s device.Sender) *Controller {
	return &Controller{sender: s}
}

func (c *Controller) query(ctx context.Context, name string, result any) error {
	cmd := message.Command[any](DeviceService, name, noParams{})
	return mapError(c.sender.SendWithResult(ctx, message.DomainSettings, cmd, result))
}

func (c *Controller) input(ctx context.Context, name string, params any) error {
	return c.sender.Send(ctx, message.DomainSettings, message.Command[any](InputService, name, params))
}

// UpdateStatus returns the firmware update status.
func (c *Controller) UpdateStatus(ctx context.Context) (UpdateStatus, error) {
	var st UpdateStatus
	if err := c.query(ctx, "getUpdateStatus", &st); err != nil {
		return UpdateStatus{}, err
	}
	return st, nil
}

// DeviceID returns the receiver's own identifier.
func (c *Controller) DeviceID(ctx context.Context) (string, error) {
	var id deviceID
	if err := c.query(ctx, "getDeviceID", &id); err != nil {
		return "", err
	}
	return id.ID, nil
}

func (c *Controller) SendKey(ctx context.Context, e KeyEvent) error {
	return c.input(ctx, "keyPressed", e)
}

func (c *Controller) SendMouse(ctx context.Context, e MouseEvent) error {
	return c.input(ctx, "mouseEvent", e)
}

func (c *Controller) SendGamepad(ctx context.Context, e GamepadEvent) error {
	return c.input(ctx, "gamepadEvent", e)
}
