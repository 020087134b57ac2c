package dispatch

// State is the lifecycle position of the watch loop.
type State int32

const (
	StateIdle State = iota
	StateWaiting
	StateDispatching
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting_for_event"
	case StateDispatching:
		return "dispatching"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats counts reported results since the dispatcher was created.
type Stats struct {
	Moved    int64
	Skipped  int64
	Failed   int64
	InFlight int
}
