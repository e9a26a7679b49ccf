package device

// State is the connection state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// forbidden returns the wrong-state error for s if s is in states.
func (s State) forbidden(states ...State) error {
	for _, f := range states {
		if f != s {
			continue
		}
		switch s {
		case StateDisconnected:
			return ErrWrongStateDisconnected
		case StateConnecting:
			return ErrWrongStateConnecting
		case StateConnected:
			return ErrWrongStateConnected
		case StateDisconnecting:
			return ErrWrongStateDisconnecting
		}
	}
	return nil
}
