package message

// WebAppService is the reserved service on which the receiver application
// announces its connection status.
const WebAppService = "org.ocast.webapp"

// WebAppStatus is the status carried by a connectedStatus event.
type WebAppStatus string

const (
	WebAppConnected    WebAppStatus = "connected"
	WebAppDisconnected WebAppStatus = "disconnected"
)

// WebAppConnectionStatus is the params of a web app event.
type WebAppConnectionStatus struct {
	Status WebAppStatus `json:"status"`
}
