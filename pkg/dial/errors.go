package dial

import (
	"errors"
	"fmt"
)

// ErrBadContent is returned when an info response cannot be understood.
var ErrBadContent = errors.New("dial: bad content in response")

// Error describes a failed DIAL request.
type Error struct {
	Op         string // "info", "start" or "stop"
	App        string
	StatusCode int // HTTP status when the server answered
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("dial %s %s: unexpected HTTP status %d", e.Op, e.App, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("dial %s %s: %v", e.Op, e.App, e.Err)
	default:
		return fmt.Sprintf("dial %s %s failed", e.Op, e.App)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.StatusCode
	}
	return 0
}
