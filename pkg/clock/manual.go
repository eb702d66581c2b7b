package clock

import (
	"sync"
	"time"
)

type manualTick struct {
	phase   Phase
	elapsed time.Duration
	done    chan struct{}
}

// Manual is a hand-stepped TickSource and settable Clock for tests.
//
// Step delivers one tick and blocks until the scheduler has fully processed
// it, so assertions made after Step returns observe a drained queue. Advance
// moves the clock without ticking; a typical delayed-work test advances the
// clock and then steps the heartbeat phase.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	ticks chan manualTick
	prev  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewManual creates a manual tick source with its clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		ticks: make(chan manualTick),
		done:  make(chan struct{}),
	}
}

// NextTick implements TickSource. A call to NextTick marks the previous tick
// as fully processed, which is what unblocks the Step that delivered it.
func (m *Manual) NextTick() (Phase, time.Duration, bool) {
	if m.prev != nil {
		close(m.prev)
		m.prev = nil
	}
	select {
	case t := <-m.ticks:
		m.prev = t.done
		return t.phase, t.elapsed, true
	case <-m.done:
		return "", 0, false
	}
}

// Step delivers one tick of the given phase and waits until the scheduler
// has drained it.
func (m *Manual) Step(phase Phase) {
	m.StepElapsed(phase, 0)
}

// StepElapsed is Step with an explicit elapsed-time value.
func (m *Manual) StepElapsed(phase Phase, elapsed time.Duration) {
	t := manualTick{phase: phase, elapsed: elapsed, done: make(chan struct{})}
	select {
	case m.ticks <- t:
	case <-m.done:
		return
	}
	select {
	case <-t.done:
	case <-m.done:
	}
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d without delivering a tick.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Close unblocks any pending NextTick call with a closed report.
func (m *Manual) Close() {
	m.once.Do(func() { close(m.done) })
}
