package sched

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/coopsched/pkg/clock"
	"github.com/vnykmshr/coopsched/pkg/common/errors"
	"github.com/vnykmshr/coopsched/pkg/metrics"
)

// Config holds scheduler configuration.
type Config struct {
	// Ticks is the host's tick source. Required.
	Ticks clock.TickSource

	// Clock reads the current time. If nil and Ticks implements
	// clock.Clock, Ticks is used.
	Clock clock.Clock

	// Heartbeat names the distinguished phase used for delayed-work
	// promotion (default: clock.Heartbeat).
	Heartbeat clock.Phase

	// Logger receives misuse diagnostics and lifecycle events
	// (default: a nop logger).
	Logger *zap.SugaredLogger

	// Metrics controls Prometheus instrumentation.
	Metrics metrics.Config
}

// Scheduler owns the context pools, both work queues and the dispatch loop.
// Multiple independent instances may coexist.
type Scheduler struct {
	ticks     clock.TickSource
	clock     clock.Clock
	heartbeat clock.Phase
	log       *zap.SugaredLogger
	reg       *metrics.Registry

	// permit serializes the dispatch loop, every Scheduler method and
	// every context body. Holding it is the right to mutate everything
	// below and to run executor code.
	permit chan struct{}

	running  bool
	loopDone chan struct{}

	deferred []entry
	delayed  delayedQueue

	procPool ctxPool
	fastPool ctxPool
	contexts map[*Context]struct{}

	nCompleted uint64
	nCancelled uint64
}

// New creates a scheduler. Call Start to allocate pools and begin
// dispatching.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Ticks == nil {
		return nil, fmt.Errorf("tick source is required")
	}
	clk := cfg.Clock
	if clk == nil {
		c, ok := cfg.Ticks.(clock.Clock)
		if !ok {
			return nil, fmt.Errorf("clock is required when the tick source does not provide one")
		}
		clk = c
	}
	heartbeat := cfg.Heartbeat
	if heartbeat == "" {
		heartbeat = clock.Heartbeat
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry(cfg.Metrics.Registry)
	}

	return &Scheduler{
		ticks:     cfg.Ticks,
		clock:     clk,
		heartbeat: heartbeat,
		log:       log,
		reg:       reg,
		permit:    make(chan struct{}, 1),
		contexts:  make(map[*Context]struct{}),
	}, nil
}

func (s *Scheduler) acquire() { s.permit <- struct{}{} }
func (s *Scheduler) release() { <-s.permit }

// Start preallocates contexts into both pools and begins the dispatch loop.
// Starting a running scheduler is a reported no-op.
func (s *Scheduler) Start(preallocContexts int) error {
	s.acquire()
	defer s.release()

	if s.running {
		s.log.Warnw("start ignored", "reason", "already running")
		return errors.ErrAlreadyRunning
	}
	s.running = true
	for i := 0; i < preallocContexts; i++ {
		s.procPool.put(s.newContext(false))
		s.fastPool.put(s.newContext(true))
	}
	s.notePools()
	s.loopDone = make(chan struct{})
	go s.loop()
	s.log.Infow("scheduler started", "prealloc", preallocContexts, "heartbeat", s.heartbeat)
	return nil
}

// Shutdown stops the dispatch loop, tears down suspended contexts and frees
// both pools. Shutting down a stopped scheduler is a reported no-op.
// The tick source is owned by the host and is not closed here.
func (s *Scheduler) Shutdown() error {
	s.acquire()
	defer s.release()

	if !s.running {
		s.log.Warnw("shutdown ignored", "reason", "not running")
		return errors.ErrNotRunning
	}
	s.running = false

	// Suspended contexts hold half-run processes; cancel those processes,
	// which tears the contexts down.
	for c := range s.contexts {
		if !c.suspended {
			continue
		}
		if c.proc != nil {
			s.doCancel(c.proc)
		} else {
			c.killed = true
			c.resume(wakeMsg{kind: wakeKill})
		}
	}

	for _, c := range s.procPool.drain() {
		s.stopContext(c)
	}
	for _, c := range s.fastPool.drain() {
		s.stopContext(c)
	}
	s.notePools()

	s.deferred = nil
	s.delayed = delayedQueue{}
	s.log.Infow("scheduler stopped")
	return nil
}

func (s *Scheduler) stopContext(c *Context) {
	delete(s.contexts, c)
	s.noteContextGone(c)
	c.wake <- wakeMsg{token: proceedToken, kind: wakeStop}
}

// loop is the dispatch loop: one tick of queue work per tick source event.
// It exits when the scheduler shuts down or the tick source closes.
func (s *Scheduler) loop() {
	defer close(s.loopDone)
	for {
		phase, elapsed, ok := s.ticks.NextTick()
		if !ok {
			return
		}
		s.acquire()
		if !s.running {
			s.release()
			return
		}
		s.tick(phase, elapsed)
		s.release()
	}
}

// tick drains the deferred queue, then, on the heartbeat phase, promotes due
// delayed entries for the next tick. The deferred queue is swapped before
// iterating so work deferred during the drain lands on a later tick.
func (s *Scheduler) tick(phase clock.Phase, elapsed time.Duration) {
	batch := s.deferred
	s.deferred = nil

	for _, e := range batch {
		switch {
		case e.f != nil:
			s.startFast(e.f)
		case e.p != nil:
			e.p.queued = false
			if e.p.Status() == StatusReady {
				s.startProcess(e.p)
			}
		}
	}

	if phase == s.heartbeat {
		s.deferred = s.delayed.promote(s.clock.Now(), s.deferred)
	}

	if s.reg != nil {
		s.reg.TickElapsed.Observe(elapsed.Seconds())
		s.reg.DeferredQueueDepth.Set(float64(len(s.deferred)))
		s.reg.DelayedQueueDepth.Set(float64(s.delayed.len()))
	}
}

// startProcess assigns p to a context from the managed pool and runs it
// until it completes or suspends.
func (s *Scheduler) startProcess(p *Process) {
	c := s.acquireContext(false)
	c.resume(wakeMsg{kind: wakeAssign, proc: p})
}

func (s *Scheduler) startFast(fp *FastProcess) {
	c := s.acquireContext(true)
	c.resume(wakeMsg{kind: wakeAssign, fast: fp})
}

func (s *Scheduler) acquireContext(fast bool) *Context {
	pl := &s.procPool
	if fast {
		pl = &s.fastPool
	}
	c := pl.get()
	if c == nil {
		c = s.newContext(fast)
	}
	s.notePools()
	return c
}

// releaseContext returns a finished context to its pool.
func (s *Scheduler) releaseContext(c *Context) {
	pl := &s.procPool
	if c.fast {
		pl = &s.fastPool
	}
	pl.put(c)
	s.notePools()
}

func (s *Scheduler) enqueueDeferred(e entry) {
	if e.p != nil {
		e.p.queued = true
	}
	s.deferred = append(s.deferred, e)
}

func (s *Scheduler) enqueueDelayed(e entry, wakeAt time.Time) {
	if e.p != nil {
		e.p.queued = true
	}
	s.delayed.add(e, wakeAt)
}

// metrics helpers; all no-ops when metrics are disabled.

func (s *Scheduler) noteScheduled(kind, mode string) {
	if s.reg != nil {
		s.reg.ProcessesScheduled.WithLabelValues(kind, mode).Inc()
	}
}

func (s *Scheduler) noteCompleted() {
	s.nCompleted++
	if s.reg != nil {
		s.reg.ProcessesCompleted.Inc()
	}
}

func (s *Scheduler) noteCancelled() {
	s.nCancelled++
	if s.reg != nil {
		s.reg.ProcessesCancelled.Inc()
	}
}

func (s *Scheduler) noteTimeout() {
	if s.reg != nil {
		s.reg.AwaitTimeouts.Inc()
	}
}

func (s *Scheduler) observeRun(d time.Duration) {
	if s.reg != nil {
		s.reg.RunDuration.Observe(d.Seconds())
	}
}

func (s *Scheduler) noteContextBorn(c *Context) {
	if s.reg != nil {
		s.reg.ContextsLive.WithLabelValues(s.poolName(c)).Inc()
	}
}

func (s *Scheduler) noteContextGone(c *Context) {
	if s.reg != nil {
		s.reg.ContextsLive.WithLabelValues(s.poolName(c)).Dec()
	}
}

func (s *Scheduler) notePools() {
	if s.reg != nil {
		s.reg.ContextsPooled.WithLabelValues("proc").Set(float64(s.procPool.size()))
		s.reg.ContextsPooled.WithLabelValues("fast").Set(float64(s.fastPool.size()))
	}
}

func (s *Scheduler) poolName(c *Context) string {
	if c.fast {
		return "fast"
	}
	return "proc"
}

// Stats is a point-in-time snapshot of scheduler internals.
type Stats struct {
	DeferredQueue      int
	DelayedQueue       int
	PooledContexts     int
	PooledFastContexts int
	LiveContexts       int
	Completed          uint64
	Cancelled          uint64
}

// Stats returns a snapshot of queue depths, pool sizes and lifetime counts.
func (s *Scheduler) Stats() Stats {
	s.acquire()
	defer s.release()
	return Stats{
		DeferredQueue:      len(s.deferred),
		DelayedQueue:       s.delayed.len(),
		PooledContexts:     s.procPool.size(),
		PooledFastContexts: s.fastPool.size(),
		LiveContexts:       len(s.contexts),
		Completed:          s.nCompleted,
		Cancelled:          s.nCancelled,
	}
}
