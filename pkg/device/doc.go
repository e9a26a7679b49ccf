// Package device is the OCast protocol client for one receiver.
//
// A Client opens a WebSocket to the receiver, correlates commands with their
// replies by sequence id, routes events to registered handlers and drives the
// receiver web application through DIAL.
//
// # Connection states
//
//	Disconnected --Connect--> Connecting --> Connected --Disconnect--> Disconnecting --> Disconnected
//
// Connect and Disconnect are idempotent from Connected and Disconnected
// respectively. Any other call made in a state that does not allow it fails
// at once with the matching ErrWrongState error.
//
// # Application start
//
// Commands to the browser domain need the receiver application. When it is
// not known to be running, Send first calls StartApplication: DIAL info, then
// DIAL start, then a wait (DefaultStartTimeout) for the org.ocast.webapp
// "connected" event.
//
// # Errors
//
// Every failure is an *Error with a Code and a Kind, comparable with
// errors.Is against the exported sentinels. Receiver codes are returned as
// *ReplyError; pkg/media and pkg/settings give them meaning.
//
// # Notifications
//
// A disconnection nobody asked for, and the built-in playbackStatus,
// metadataChanged and updateStatus events, reach the function passed with
// WithNotify.
package device
