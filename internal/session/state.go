package session

// State is the lifecycle position of a Session.
type State int

const (
	// Stopped means no child is running. Start moves to Starting.
	Stopped State = iota
	// Starting means the child was spawned and the first marker is awaited.
	Starting
	// Ready means the session accepts a command.
	Ready
	// Busy means a command is executing.
	Busy
	// Dead means the child died or was killed. Only Restart (or Start)
	// leaves this state.
	Dead
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Busy:
		return "busy"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}
