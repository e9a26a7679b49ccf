package media

import (
	"errors"
	"fmt"

	"github.com/muurk/ocast/pkg/device"
)

// Error is a media error code returned by the receiver application.
type Error int

const (
	ErrNoImplementation    Error = 2400
	ErrInvalidService      Error = 2404
	ErrInvalidPlayerState  Error = 2412
	ErrPlayerNotReady      Error = 2413
	ErrInvalidTrack        Error = 2414
	ErrUnknownMediaType    Error = 2415
	ErrUnknownTransferMode Error = 2416
	ErrMissingParameter    Error = 2422
	ErrInternal            Error = 2500
	ErrUnknown             Error = 2999
)

var errorMessages = map[Error]string{
	ErrNoImplementation:    "command not implemented by the web application",
	ErrInvalidService:      "service not implemented by the web application",
	ErrInvalidPlayerState:  "command not allowed in the current player state",
	ErrPlayerNotReady:      "player could not be initialized",
	ErrInvalidTrack:        "invalid track identifier",
	ErrUnknownMediaType:    "unknown media type",
	ErrUnknownTransferMode: "unknown transfer mode",
	ErrMissingParameter:    "mandatory parameter missing",
	ErrInternal:            "internal error",
	ErrUnknown:             "unknown error",
}

func (e Error) Error() string {
	return fmt.Sprintf("media error %d: %s", int(e), errorMessages[e])
}

var (
	// ErrInvalidPlaybackStatus means playback status params could not be decoded.
	ErrInvalidPlaybackStatus = errors.New("invalid playback status")
	// ErrInvalidMetadata means metadata params could not be decoded.
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// mapError turns receiver reply codes into media errors. Codes outside the
// media range become ErrUnknown; other errors pass through.
func mapError(err error) error {
	code, ok := device.ReplyCode(err)
	if !ok {
		return err
	}
	if _, known := errorMessages[Error(code)]; known {
		return Error(code)
	}
	return ErrUnknown
}
