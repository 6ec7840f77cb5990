package syncclient

// State is the push-channel state of a sync client.
type State int32

const (
	// StateDisconnected is the initial state and the state between a lost connection and the next dial.
	StateDisconnected State = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateConnected means the push channel is open and updates are applied as they arrive.
	StateConnected
	// StateExhausted means the reconnect budget is spent; the mirror stays as it is until restart.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
