package chat

// State is the controller's position in the turn lifecycle.
type State int

// Turn states. Completing and Failed are only held while the reply is
// being committed; observers normally see Idle, Sending or Streaming.
const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleting:
		return "completing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether a turn holds the connection.
func (s State) Busy() bool {
	return s == StateSending || s == StateStreaming
}
