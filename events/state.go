package events

// ConnectionState describes the publisher's relationship to the broker.
type ConnectionState int32

const (
	// StateDisconnected is the zero state before any connection attempt.
	StateDisconnected ConnectionState = iota
	// StateConnecting is transient during the bounded startup connect.
	StateConnecting
	// StateConnected means the channel is open and the exchange is declared.
	StateConnected
	// StateDegraded means the broker was unreachable; publishes become
	// warning-level log entries and are dropped.
	StateDegraded
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
