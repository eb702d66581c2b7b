package clock

import (
	"sync"
	"time"
)

// Interval is a TickSource driven by a time.Ticker. Each ticker fire delivers
// the next phase in the ring. It also implements Clock using the system clock.
type Interval struct {
	phases []Phase
	ticker *time.Ticker
	idx    int
	last   time.Time
	done   chan struct{}
	once   sync.Once
}

// NewInterval creates a tick source that cycles through phases, one per
// interval. With no phases given, DefaultPhases is used.
func NewInterval(interval time.Duration, phases ...Phase) *Interval {
	if len(phases) == 0 {
		phases = DefaultPhases
	}
	return &Interval{
		phases: phases,
		ticker: time.NewTicker(interval),
		last:   time.Now(),
		done:   make(chan struct{}),
	}
}

// NextTick implements TickSource.
func (iv *Interval) NextTick() (Phase, time.Duration, bool) {
	select {
	case now := <-iv.ticker.C:
		p := iv.phases[iv.idx]
		iv.idx = (iv.idx + 1) % len(iv.phases)
		elapsed := now.Sub(iv.last)
		iv.last = now
		return p, elapsed, true
	case <-iv.done:
		return "", 0, false
	}
}

// Now implements Clock.
func (iv *Interval) Now() time.Time {
	return time.Now()
}

// Close stops the ticker and unblocks any pending NextTick call.
func (iv *Interval) Close() {
	iv.once.Do(func() {
		iv.ticker.Stop()
		close(iv.done)
	})
}
