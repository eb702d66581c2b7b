package sched

import (
	"time"

	"github.com/vnykmshr/coopsched/pkg/common/errors"
)

// Scheduler methods below are the external surface: they take the run permit
// for the duration of the call. Inside an executor, use the corresponding
// Context methods instead.

// Create allocates a Ready process without scheduling it. Hand it to
// DeferProcess or DelayProcess to run it, or Push onto it to build a chain
// before it starts.
func (s *Scheduler) Create(exec Executor) (*Process, error) {
	if exec == nil {
		s.log.Warnw("create ignored", "reason", "nil executor")
		return nil, errors.ErrNilExecutor
	}
	return newProcess(s, exec), nil
}

// Spawn creates a process and runs it immediately, to completion or first
// suspension, before returning.
func (s *Scheduler) Spawn(exec Executor, args ...any) (*Process, error) {
	s.acquire()
	defer s.release()
	return s.doSpawn(exec, args...)
}

// FastSpawn runs a fire-and-forget executor immediately. No handle is
// returned; the work cannot be awaited or cancelled.
func (s *Scheduler) FastSpawn(exec Executor, args ...any) error {
	s.acquire()
	defer s.release()
	if err := s.checkExec(exec, "fast spawn"); err != nil {
		return err
	}
	s.noteScheduled("fast", "spawn")
	s.startFast(&FastProcess{exec: exec, args: args})
	return nil
}

// Defer creates a process that runs on the next tick.
func (s *Scheduler) Defer(exec Executor, args ...any) (*Process, error) {
	s.acquire()
	defer s.release()
	return s.doDefer(exec, args...)
}

// DeferProcess enqueues an existing Ready process to run on the next tick.
func (s *Scheduler) DeferProcess(p *Process, args ...any) error {
	s.acquire()
	defer s.release()
	return s.doDeferProcess(p, args...)
}

// FastDefer enqueues a fire-and-forget executor for the next tick.
func (s *Scheduler) FastDefer(exec Executor, args ...any) error {
	s.acquire()
	defer s.release()
	if err := s.checkExec(exec, "fast defer"); err != nil {
		return err
	}
	s.noteScheduled("fast", "defer")
	s.enqueueDeferred(entry{f: &FastProcess{exec: exec, args: args}})
	return nil
}

// Delay creates a process that runs at the first heartbeat at or after
// Now()+d.
func (s *Scheduler) Delay(d time.Duration, exec Executor, args ...any) (*Process, error) {
	s.acquire()
	defer s.release()
	return s.doDelay(d, exec, args...)
}

// DelayProcess schedules an existing Ready process onto the delayed queue.
func (s *Scheduler) DelayProcess(d time.Duration, p *Process, args ...any) error {
	s.acquire()
	defer s.release()
	if err := s.checkDelay(d, "delay process"); err != nil {
		return err
	}
	if err := s.checkReady(p, "delay process"); err != nil {
		return err
	}
	p.setArgs(args)
	s.noteScheduled("proc", "delay")
	s.enqueueDelayed(entry{p: p}, s.clock.Now().Add(d))
	return nil
}

// FastDelay schedules a fire-and-forget executor onto the delayed queue.
func (s *Scheduler) FastDelay(d time.Duration, exec Executor, args ...any) error {
	s.acquire()
	defer s.release()
	if err := s.checkExec(exec, "fast delay"); err != nil {
		return err
	}
	if err := s.checkDelay(d, "fast delay"); err != nil {
		return err
	}
	s.noteScheduled("fast", "delay")
	s.enqueueDelayed(entry{f: &FastProcess{exec: exec, args: args}}, s.clock.Now().Add(d))
	return nil
}

// internal variants; run permit already held.

func (s *Scheduler) doSpawn(exec Executor, args ...any) (*Process, error) {
	if err := s.checkExec(exec, "spawn"); err != nil {
		return nil, err
	}
	p := newProcess(s, exec)
	p.setArgs(args)
	s.noteScheduled("proc", "spawn")
	s.startProcess(p)
	return p, nil
}

func (s *Scheduler) doDefer(exec Executor, args ...any) (*Process, error) {
	if err := s.checkExec(exec, "defer"); err != nil {
		return nil, err
	}
	p := newProcess(s, exec)
	p.setArgs(args)
	s.noteScheduled("proc", "defer")
	s.enqueueDeferred(entry{p: p})
	return p, nil
}

func (s *Scheduler) doDeferProcess(p *Process, args ...any) error {
	if err := s.checkReady(p, "defer process"); err != nil {
		return err
	}
	p.setArgs(args)
	s.noteScheduled("proc", "defer")
	s.enqueueDeferred(entry{p: p})
	return nil
}

func (s *Scheduler) doDelay(d time.Duration, exec Executor, args ...any) (*Process, error) {
	if err := s.checkExec(exec, "delay"); err != nil {
		return nil, err
	}
	if err := s.checkDelay(d, "delay"); err != nil {
		return nil, err
	}
	p := newProcess(s, exec)
	p.setArgs(args)
	s.noteScheduled("proc", "delay")
	s.enqueueDelayed(entry{p: p}, s.clock.Now().Add(d))
	return p, nil
}

func (s *Scheduler) checkExec(exec Executor, op string) error {
	if exec == nil {
		s.log.Warnw(op+" ignored", "reason", "nil executor")
		return errors.ErrNilExecutor
	}
	if !s.running {
		s.log.Warnw(op+" ignored", "reason", "scheduler not running")
		return errors.ErrNotRunning
	}
	return nil
}

func (s *Scheduler) checkDelay(d time.Duration, op string) error {
	if d < 0 {
		s.log.Warnw(op+" ignored", "reason", "negative delay", "delay", d)
		return errors.ErrInvalidDelay
	}
	return nil
}

func (s *Scheduler) checkReady(p *Process, op string) error {
	if p == nil {
		s.log.Warnw(op+" ignored", "reason", "nil process")
		return errors.ErrNilProcess
	}
	if !s.running {
		s.log.Warnw(op+" ignored", "reason", "scheduler not running")
		return errors.ErrNotRunning
	}
	if st := p.Status(); st != StatusReady {
		s.log.Warnw(op+" ignored", "reason", "process not ready", "status", st.String())
		return errors.ErrProcessNotReady
	}
	if p.queued {
		s.log.Warnw(op+" ignored", "reason", "process already enqueued")
		return errors.ErrProcessQueued
	}
	return nil
}

// Context methods: the in-executor surface. The run permit is already held
// by the running context, so these never block on it.

// Spawn runs a new process immediately, nested inside the current one.
func (co *Context) Spawn(exec Executor, args ...any) (*Process, error) {
	return co.s.doSpawn(exec, args...)
}

// FastSpawn runs a fire-and-forget executor immediately.
func (co *Context) FastSpawn(exec Executor, args ...any) error {
	s := co.s
	if err := s.checkExec(exec, "fast spawn"); err != nil {
		return err
	}
	s.noteScheduled("fast", "spawn")
	s.startFast(&FastProcess{exec: exec, args: args})
	return nil
}

// Defer schedules a new process for the next tick. Work deferred while the
// current tick is draining runs on a later tick, never the current one.
func (co *Context) Defer(exec Executor, args ...any) (*Process, error) {
	return co.s.doDefer(exec, args...)
}

// DeferProcess enqueues an existing Ready process for the next tick.
func (co *Context) DeferProcess(p *Process, args ...any) error {
	return co.s.doDeferProcess(p, args...)
}

// FastDefer enqueues a fire-and-forget executor for the next tick.
func (co *Context) FastDefer(exec Executor, args ...any) error {
	s := co.s
	if err := s.checkExec(exec, "fast defer"); err != nil {
		return err
	}
	s.noteScheduled("fast", "defer")
	s.enqueueDeferred(entry{f: &FastProcess{exec: exec, args: args}})
	return nil
}

// Delay schedules a new process for the first heartbeat at or after
// Now()+d.
func (co *Context) Delay(d time.Duration, exec Executor, args ...any) (*Process, error) {
	return co.s.doDelay(d, exec, args...)
}

// FastDelay schedules a fire-and-forget executor onto the delayed queue.
func (co *Context) FastDelay(d time.Duration, exec Executor, args ...any) error {
	s := co.s
	if err := s.checkExec(exec, "fast delay"); err != nil {
		return err
	}
	if err := s.checkDelay(d, "fast delay"); err != nil {
		return err
	}
	s.noteScheduled("fast", "delay")
	s.enqueueDelayed(entry{f: &FastProcess{exec: exec, args: args}}, s.clock.Now().Add(d))
	return nil
}
