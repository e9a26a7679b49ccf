package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the category of a client error.
type ErrorKind int

const (
	// KindState means the operation is not allowed in the current connection state
	KindState ErrorKind = iota
	// KindConfiguration means the client is missing a setting (e.g., the application name)
	KindConfiguration
	// KindTransport means the WebSocket failed or a message could not be exchanged
	KindTransport
	// KindProtocol means the DIAL exchange or the application start handshake failed
	KindProtocol
	// KindReply means the receiver answered with a non-zero code
	KindReply
	// KindCanceled means the caller's context ended first
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindState:
		return "State Error"
	case KindConfiguration:
		return "Configuration Error"
	case KindTransport:
		return "Transport Error"
	case KindProtocol:
		return "Protocol Error"
	case KindReply:
		return "Reply Error"
	case KindCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Code identifies one specific failure.
type Code int

const (
	CodeWrongStateDisconnected Code = iota + 1
	CodeWrongStateConnecting
	CodeWrongStateConnected
	CodeWrongStateDisconnecting
	CodeApplicationNameNotSet
	CodeBadApplicationURL
	CodeConnectionFailed
	CodeDeviceDisconnected
	CodeCommandNotSent
	CodeMalformedCommand
	CodeEmptyReply
	CodeBadReplyFormat
	CodeTransport
	CodeDIALRequestFailed
	CodeConnectionEventNotReceived
	CodeCanceled
)

var codeInfo = map[Code]struct {
	kind ErrorKind
	msg  string
}{
	CodeWrongStateDisconnected:     {KindState, "device is disconnected"},
	CodeWrongStateConnecting:       {KindState, "device is connecting"},
	CodeWrongStateConnected:        {KindState, "device is connected"},
	CodeWrongStateDisconnecting:    {KindState, "device is disconnecting"},
	CodeApplicationNameNotSet:      {KindConfiguration, "application name is not set"},
	CodeBadApplicationURL:          {KindConfiguration, "bad application URL"},
	CodeConnectionFailed:           {KindTransport, "connection failed"},
	CodeDeviceDisconnected:         {KindTransport, "device has been disconnected"},
	CodeCommandNotSent:             {KindTransport, "unable to send command"},
	CodeMalformedCommand:           {KindTransport, "malformed command"},
	CodeEmptyReply:                 {KindTransport, "empty reply received"},
	CodeBadReplyFormat:             {KindTransport, "bad reply format received"},
	CodeTransport:                  {KindTransport, "transport error"},
	CodeDIALRequestFailed:          {KindProtocol, "DIAL request failed"},
	CodeConnectionEventNotReceived: {KindProtocol, "application connection event not received"},
	CodeCanceled:                   {KindCanceled, "operation canceled"},
}

// Kind returns the category of the code.
func (c Code) Kind() ErrorKind {
	return codeInfo[c].kind
}

func (c Code) String() string {
	if info, ok := codeInfo[c]; ok {
		return info.msg
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is returned by every Client operation. errors.Is matches on Code,
// so a wrapped error still compares equal to its sentinel.
type Error struct {
	Code Code
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code.Kind(), e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code.Kind(), e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Kind returns the category of the error.
func (e *Error) Kind() ErrorKind {
	return e.Code.Kind()
}

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Sentinels for errors.Is.
var (
	ErrWrongStateDisconnected     = &Error{Code: CodeWrongStateDisconnected}
	ErrWrongStateConnecting       = &Error{Code: CodeWrongStateConnecting}
	ErrWrongStateConnected        = &Error{Code: CodeWrongStateConnected}
	ErrWrongStateDisconnecting    = &Error{Code: CodeWrongStateDisconnecting}
	ErrApplicationNameNotSet      = &Error{Code: CodeApplicationNameNotSet}
	ErrBadApplicationURL          = &Error{Code: CodeBadApplicationURL}
	ErrConnectionFailed           = &Error{Code: CodeConnectionFailed}
	ErrDeviceDisconnected         = &Error{Code: CodeDeviceDisconnected}
	ErrCommandNotSent             = &Error{Code: CodeCommandNotSent}
	ErrMalformedCommand           = &Error{Code: CodeMalformedCommand}
	ErrEmptyReply                 = &Error{Code: CodeEmptyReply}
	ErrBadReplyFormat             = &Error{Code: CodeBadReplyFormat}
	ErrTransport                  = &Error{Code: CodeTransport}
	ErrDIALRequestFailed          = &Error{Code: CodeDIALRequestFailed}
	ErrConnectionEventNotReceived = &Error{Code: CodeConnectionEventNotReceived}
	ErrCanceled                   = &Error{Code: CodeCanceled}
)

// ReplyError carries the code of a reply whose status was ok but whose
// params.code was not the success code. Its meaning belongs to the service
// that was called.
type ReplyError struct {
	Code int
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: receiver replied with code %d", KindReply, e.Code)
}

// ReplyCode returns the receiver code carried by err.
func ReplyCode(err error) (int, bool) {
	var re *ReplyError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return 0, false
}

func kindOf(err error) (ErrorKind, bool) {
	var re *ReplyError
	if errors.As(err, &re) {
		return KindReply, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind(), true
	}
	return 0, false
}

// IsStateError checks if an error is a wrong state error
func IsStateError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindState
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransport
}

// IsProtocolError checks if an error is a DIAL or start handshake error
func IsProtocolError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindProtocol
}

// IsReplyError checks if an error carries a receiver reply code
func IsReplyError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindReply
}

// TroubleshootingHint returns a multi-line hint for command line output.
func TroubleshootingHint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}

	switch e.Code {
	case CodeConnectionFailed:
		return strings.Join([]string{
			"Could not open the WebSocket to the receiver.",
			"Troubleshooting:",
			"  • Check that the receiver is on the same network",
			"  • Receivers with self-signed certificates need --insecure or a device certificate",
			"  • Port 4433 must be reachable for the settings channel",
		}, "\n")

	case CodeDIALRequestFailed:
		return strings.Join([]string{
			"The receiver rejected the DIAL request.",
			"Troubleshooting:",
			"  • Verify the application name (it is case sensitive)",
			"  • Run 'ocast app info' to see what the receiver reports",
		}, "\n")

	case CodeConnectionEventNotReceived:
		return strings.Join([]string{
			"The application was started but never announced itself.",
			"Troubleshooting:",
			"  • The web application may be failing to load on the receiver",
			"  • Try a longer --start-timeout",
		}, "\n")

	case CodeApplicationNameNotSet:
		return "Set an application name with --app or in the configuration file."
	}
	return ""
}
