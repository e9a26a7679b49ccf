// Package transport provides the persistent message channel to a receiver.
//
// The Dialer/Conn/Handler contract keeps the protocol client independent of
// the wire; WebSocketDialer implements it on gorilla/websocket with a 4 KiB
// outgoing payload cap and a ping every five seconds. A connection with two
// unanswered pings is closed and reported through HandleDisconnect.
//
// SSLConfig turns the receiver trust settings (pinned device certificates,
// PKCS#12 client certificate, host and chain validation toggles) into a
// *tls.Config.
package transport
