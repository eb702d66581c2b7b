package sched

import "sync/atomic"

// Executor is the body of a process: a callable accepting and returning an
// arbitrary value sequence. The context handle is the executor's door back
// into the scheduler; it must not be retained past the executor's return.
type Executor func(co *Context, args ...any) []any

// Process is a managed, cancellable, awaitable unit of scheduled work.
//
// Process records are never reused: once Done or Cancelled they stay that
// way. Only execution contexts are recycled.
type Process struct {
	s    *Scheduler
	exec Executor

	state atomic.Int32

	// All fields below are mutated only under the scheduler's run permit.
	co       *Context // non-nil iff Active
	result   []any    // captured once, on the transition to Done
	awaiters []*waiter
	next     *Process // chained successor, at most one
	group    *Parent  // set when this process owns a child group
	parent   *Parent  // backreference for group children

	pendingArgs []any
	hasPending  bool
	queued      bool
}

func newProcess(s *Scheduler, exec Executor) *Process {
	return &Process{s: s, exec: exec}
}

// Status returns the current lifecycle state. It is safe to call from any
// goroutine.
func (p *Process) Status() Status {
	return Status(p.state.Load())
}

// Result returns the captured result sequence. The second return value is
// true only once the process has reached Done; the sequence preserves the
// executor's return order and arity, including nil gaps.
func (p *Process) Result() ([]any, bool) {
	if p.Status() != StatusDone {
		return nil, false
	}
	return p.result, true
}

// setStatus transitions the state machine. Invalid transitions are
// programming errors inside the scheduler, not recoverable conditions.
func (p *Process) setStatus(st Status) {
	if cur := p.Status(); !validTransition(cur, st) {
		panic("sched: invalid status transition " + cur.String() + " -> " + st.String())
	}
	p.state.Store(int32(st))
}

func (p *Process) setArgs(args []any) {
	p.pendingArgs = args
	p.hasPending = true
}

// takeArgs consumes the pending argument sequence. Absence of a sequence is
// distinct from an empty one.
func (p *Process) takeArgs() []any {
	if !p.hasPending {
		return nil
	}
	args := p.pendingArgs
	p.pendingArgs = nil
	p.hasPending = false
	return args
}

func (p *Process) removeWaiter(w *waiter) {
	for i, x := range p.awaiters {
		if x == w {
			p.awaiters = append(p.awaiters[:i], p.awaiters[i+1:]...)
			return
		}
	}
}

// takeWaiters drains the awaiter list in registration (FIFO) order.
func (p *Process) takeWaiters() []*waiter {
	ws := p.awaiters
	p.awaiters = nil
	return ws
}

// FastProcess is an unmanaged, fire-and-forget unit of scheduled work.
// It carries no status, captures no result and cannot be awaited or
// cancelled.
type FastProcess struct {
	exec Executor
	args []any
}
