package message

import "fmt"

// Status is the reply status field. The empty value means absent.
type Status string

// StatusOK is the status of a reply that reached the receiver service.
const StatusOK Status = "ok"

// TransportErrorKind classifies a non-ok reply status.
type TransportErrorKind int

const (
	TransportErrorUnknown TransportErrorKind = iota
	TransportErrorJSONFormat
	TransportErrorValueFormat
	TransportErrorMissingMandatoryField
	TransportErrorInternal
	TransportErrorForbiddenUnsecureMode
	// TransportErrorMissingStatus is used when a reply carries no status.
	TransportErrorMissingStatus
)

var transportErrorKinds = map[Status]TransportErrorKind{
	"json_format_error":       TransportErrorJSONFormat,
	"value_format_error":      TransportErrorValueFormat,
	"missing_mandatory_field": TransportErrorMissingMandatoryField,
	"internal_error":          TransportErrorInternal,
	"forbidden_unsecure_mode": TransportErrorForbiddenUnsecureMode,
}

func (k TransportErrorKind) String() string {
	switch k {
	case TransportErrorJSONFormat:
		return "malformed JSON"
	case TransportErrorValueFormat:
		return "malformed value"
	case TransportErrorMissingMandatoryField:
		return "missing mandatory field"
	case TransportErrorInternal:
		return "internal error"
	case TransportErrorForbiddenUnsecureMode:
		return "forbidden in unsecure mode"
	case TransportErrorMissingStatus:
		return "missing status"
	default:
		return "unknown error"
	}
}

// TransportError is a reply whose status is not ok.
type TransportError struct {
	Kind   TransportErrorKind
	Status Status
}

func (e *TransportError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("transport error: %s", e.Kind)
	}
	return fmt.Sprintf("transport error: %s (%s)", e.Kind, e.Status)
}

// Err maps the status to nil when ok and to a *TransportError otherwise.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	if s == "" {
		return &TransportError{Kind: TransportErrorMissingStatus}
	}
	kind, ok := transportErrorKinds[s]
	if !ok {
		kind = TransportErrorUnknown
	}
	return &TransportError{Kind: kind, Status: s}
}
