package clock

import "time"

// Phase identifies one slot in the host's cyclically repeating tick order.
type Phase string

// Heartbeat is the conventional name of the distinguished phase used for
// wall-clock sampling and delayed-work promotion.
const Heartbeat Phase = "heartbeat"

// DefaultPhases is the phase ring used when the host does not supply one.
var DefaultPhases = []Phase{"update", Heartbeat, "draw"}

// TickSource delivers ticks in a fixed, cyclically repeating phase order.
type TickSource interface {
	// NextTick blocks until the next tick fires and returns the phase that
	// fired and the elapsed time since the previous tick. The final false
	// return reports that the source was closed and no more ticks will come.
	NextTick() (Phase, time.Duration, bool)
}

// Clock reads the current time. It is used solely for computing wake times
// and heartbeat comparisons; it should be monotonic for correct ordering of
// delays requested close together.
type Clock interface {
	Now() time.Time
}
