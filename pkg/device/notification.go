package device

import "encoding/json"

// Built-in event names registered on every client.
const (
	EventPlaybackStatus  = "playbackStatus"
	EventMetadataChanged = "metadataChanged"
	EventUpdateStatus    = "updateStatus"
)

// NotificationType identifies an out-of-band notification.
type NotificationType int

const (
	// NotificationDeviceDisconnected reports a disconnection nobody asked for
	NotificationDeviceDisconnected NotificationType = iota
	NotificationPlaybackStatus
	NotificationMetadataChanged
	NotificationUpdateStatus
)

func (t NotificationType) String() string {
	switch t {
	case NotificationDeviceDisconnected:
		return "deviceDisconnected"
	case NotificationPlaybackStatus:
		return EventPlaybackStatus
	case NotificationMetadataChanged:
		return EventMetadataChanged
	case NotificationUpdateStatus:
		return EventUpdateStatus
	default:
		return "unknown"
	}
}

// Notification is delivered to the function given with WithNotify. Params
// holds the raw event params; Err is set for disconnections caused by a
// transport failure.
type Notification struct {
	Type   NotificationType
	Device string // device id
	Params json.RawMessage
	Err    error
}

// EventHandler receives the raw data params of a registered event, without
// the enclosing envelope.
type EventHandler func(params json.RawMessage)
