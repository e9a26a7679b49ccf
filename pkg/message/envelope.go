package message

import (
	"encoding/json"
	"fmt"
)

// Type is the envelope type field.
type Type string

const (
	TypeCommand Type = "command"
	TypeReply   Type = "reply"
	TypeEvent   Type = "event"
)

// Domain is the destination of a command.
type Domain string

const (
	// DomainBrowser addresses the receiver web application.
	DomainBrowser Domain = "browser"
	// DomainSettings addresses the receiver itself.
	DomainSettings Domain = "settings"
	// DomainAll is used by the receiver when broadcasting.
	DomainAll Domain = "*"
)

// SuccessCode is the params.code value of a successful reply.
const SuccessCode = 0

// DeviceLayer is the outer envelope exchanged over the WebSocket.
type DeviceLayer[T any] struct {
	ID          int                 `json:"id"`
	Source      string              `json:"src"`
	Destination string              `json:"dst"`
	Status      Status              `json:"status,omitempty"`
	Type        Type                `json:"type"`
	Message     ApplicationLayer[T] `json:"message"`
}

// ApplicationLayer names the service a message is addressed to.
type ApplicationLayer[T any] struct {
	Service string       `json:"service"`
	Data    DataLayer[T] `json:"data"`
}

// DataLayer carries the command or event name and its parameters.
type DataLayer[T any] struct {
	Name    string         `json:"name"`
	Params  T              `json:"params"`
	Options map[string]any `json:"options,omitempty"`
}

// Command builds the application layer of an outgoing command.
func Command[T any](service, name string, params T) ApplicationLayer[T] {
	return ApplicationLayer[T]{Service: service, Data: DataLayer[T]{Name: name, Params: params}}
}

// WithOptions returns a copy of the layer carrying options.
func (a ApplicationLayer[T]) WithOptions(options map[string]any) ApplicationLayer[T] {
	a.Data.Options = options
	return a
}

// Inbound is an envelope whose params are kept raw until a handler knows
// their shape.
type Inbound = DeviceLayer[json.RawMessage]

// Decode parses an inbound envelope. Params must be present.
func Decode(data []byte) (Inbound, error) {
	var env Inbound
	if err := json.Unmarshal(data, &env); err != nil {
		return Inbound{}, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case TypeCommand, TypeReply, TypeEvent:
	default:
		return Inbound{}, fmt.Errorf("decode envelope: unknown type %q", env.Type)
	}
	if len(env.Message.Data.Params) == 0 || string(env.Message.Data.Params) == "null" {
		return Inbound{}, fmt.Errorf("decode envelope: params missing")
	}
	return env, nil
}

// ReplyCode returns params.code of a reply, if present.
func ReplyCode(params json.RawMessage) (code int, present bool, err error) {
	var p struct {
		Code *int `json:"code"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return 0, false, err
	}
	if p.Code == nil {
		return SuccessCode, false, nil
	}
	return *p.Code, true, nil
}
