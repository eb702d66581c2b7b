package sched

// Status is the lifecycle state of a managed process.
type Status int32

const (
	StatusReady Status = iota
	StatusActive
	StatusDone
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusActive:
		return "Active"
	case StatusDone:
		return "Done"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

var statusTransitions = map[Status][]Status{
	StatusReady:     {StatusActive, StatusCancelled},
	StatusActive:    {StatusDone, StatusCancelled},
	StatusDone:      {},
	StatusCancelled: {},
}

// validTransition reports whether a process may move from src to dst.
func validTransition(src, dst Status) bool {
	for _, s := range statusTransitions[src] {
		if s == dst {
			return true
		}
	}
	return false
}
