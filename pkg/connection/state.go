package connection

// State represents the connection state of a session.
type State uint8

const (
	// StateDisconnected indicates no usable connection. Writes fail fast.
	StateDisconnected State = iota

	// StateConnected indicates an established connection.
	StateConnected

	// StateClosed indicates the session has been shut down.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
