package settings

import (
	"encoding/json"
	"fmt"
)

const (
	// DeviceService is the receiver settings service.
	DeviceService = "org.ocast.settings.device"
	// InputService accepts remote control input.
	InputService = "org.ocast.settings.input"
)

// UpdateState is the firmware update state.
type UpdateState string

const (
	UpdateNotChecked      UpdateState = "notChecked"
	UpdateUpToDate        UpdateState = "upToDate"
	UpdateNewVersionFound UpdateState = "newVersionFound"
	UpdateNewVersionReady UpdateState = "newVersionReady"
	UpdateDownloading     UpdateState = "downloading"
	UpdateError           UpdateState = "error"
	UpdateSuccess         UpdateState = "success"
)

// UpdateStatus is the answer to getUpdateStatus and the params of the
// updateStatus event. Progress is a percentage.
type UpdateStatus struct {
	State    UpdateState `json:"state"`
	Version  string      `json:"version,omitempty"`
	Progress int         `json:"progress"`
}

type deviceID struct {
	ID string `json:"id"`
}

// KeyLocation is the DOM KeyboardEvent location.
type KeyLocation int

const (
	KeyStandard KeyLocation = iota
	KeyLeft
	KeyRight
	KeyNumpad
	KeyMobile
	KeyJoystick
)

// KeyEvent is a key press sent to the receiver, using DOM key and code
// values (e.g., Key "ArrowUp", Code "ArrowUp").
type KeyEvent struct {
	Key      string      `json:"key"`
	Code     string      `json:"code"`
	Ctrl     bool        `json:"ctrl"`
	Alt      bool        `json:"alt"`
	Shift    bool        `json:"shift"`
	Meta     bool        `json:"meta"`
	Location KeyLocation `json:"location"`
}

// MouseEvent moves the receiver pointer. Buttons is a bit mask.
type MouseEvent struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Buttons int `json:"buttons"`
}

// GamepadAxis is the position of one gamepad stick.
type GamepadAxis struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Num int     `json:"num"`
}

type GamepadEvent struct {
	Axes    []GamepadAxis `json:"axes"`
	Buttons int           `json:"buttons"`
}

type noParams struct{}

// DecodeUpdateStatus decodes the params of an updateStatus event.
func DecodeUpdateStatus(params json.RawMessage) (UpdateStatus, error) {
	var st UpdateStatus
	if err := json.Unmarshal(params, &st); err != nil {
		return UpdateStatus{}, fmt.Errorf("invalid update status: %w", err)
	}
	return st, nil
}
