// Package message defines the three layer JSON envelope exchanged with OCast
// receivers:
//
//	{"id":1,"src":"<uuid>","dst":"browser","type":"command",
//	 "message":{"service":"org.ocast.media",
//	            "data":{"name":"play","params":{"position":0}}}}
//
// Replies additionally carry a status, "ok" or a transport error string.
package message
