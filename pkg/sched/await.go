package sched

import (
	"time"

	"github.com/vnykmshr/coopsched/pkg/common/errors"
)

// waiter is one suspended caller blocked on a process's completion.
// deliver resumes it with the final outcome; the optional timeout entry is
// marked cancelled when the process settles first, turning the pending
// timeout job into a no-op.
type waiter struct {
	deliver  func(outcome Status, res []any)
	timeout  *timeoutEntry
	external bool
}

type timeoutEntry struct {
	cancelled bool
}

type awaitResult struct {
	outcome Status
	res     []any
}

// Await blocks the calling goroutine until p settles and returns the
// outcome: StatusDone with p's result sequence, or StatusCancelled with no
// values. A terminal p returns immediately.
//
// Await is for code outside an executor; inside one, use Context.Await.
func (s *Scheduler) Await(p *Process) (Status, []any) {
	return s.awaitExternal(p, 0, false)
}

// AwaitTimeout is Await with an upper bound. Timeout expiry is not an
// error: it reports as a StatusCancelled outcome. The pending timeout job
// is cancelled if p settles first.
func (s *Scheduler) AwaitTimeout(p *Process, timeout time.Duration) (Status, []any) {
	return s.awaitExternal(p, timeout, true)
}

func (s *Scheduler) awaitExternal(p *Process, timeout time.Duration, hasTimeout bool) (Status, []any) {
	if p == nil {
		s.log.Warnw("await ignored", "reason", "nil process")
		return StatusCancelled, nil
	}
	s.acquire()
	if st := p.Status(); st.Terminal() {
		s.release()
		if st == StatusDone {
			return StatusDone, p.result
		}
		return StatusCancelled, nil
	}

	ch := make(chan awaitResult, 1)
	w := &waiter{external: true, deliver: func(outcome Status, res []any) {
		ch <- awaitResult{outcome: outcome, res: res}
	}}
	p.awaiters = append(p.awaiters, w)
	s.armTimeout(p, w, timeout, hasTimeout)
	s.release()

	r := <-ch
	return r.outcome, r.res
}

// Await suspends the current executor until p settles. A terminal p returns
// immediately without suspending. Awaiters of a given process resume in
// registration order.
func (co *Context) Await(p *Process) (Status, []any) {
	return co.await(p, 0, false)
}

// AwaitTimeout is Await with an upper bound; expiry reports as a
// StatusCancelled outcome.
func (co *Context) AwaitTimeout(p *Process, timeout time.Duration) (Status, []any) {
	return co.await(p, timeout, true)
}

func (co *Context) await(p *Process, timeout time.Duration, hasTimeout bool) (Status, []any) {
	s := co.s
	if p == nil {
		s.log.Warnw("await ignored", "reason", "nil process")
		return StatusCancelled, nil
	}
	if st := p.Status(); st.Terminal() {
		if st == StatusDone {
			return StatusDone, p.result
		}
		return StatusCancelled, nil
	}

	c := co
	w := &waiter{deliver: func(outcome Status, res []any) {
		if c.destroyed || c.killed {
			return
		}
		c.resume(wakeMsg{kind: wakeResume, outcome: outcome, res: res})
	}}
	p.awaiters = append(p.awaiters, w)
	s.armTimeout(p, w, timeout, hasTimeout)
	return co.suspend()
}

// armTimeout schedules a delayed fast process that force-resumes the waiter
// with a cancelled outcome. The entry is itself cancellable: completion or
// cancellation of p marks it before the job runs, and the settled side wins.
func (s *Scheduler) armTimeout(p *Process, w *waiter, timeout time.Duration, hasTimeout bool) {
	if !hasTimeout {
		return
	}
	if timeout < 0 {
		// Malformed timeout: report and await without one.
		s.log.Warnw("await timeout ignored", "reason", "negative timeout", "timeout", timeout)
		return
	}
	te := &timeoutEntry{}
	w.timeout = te
	fire := func(*Context, ...any) []any {
		if te.cancelled {
			return nil
		}
		p.removeWaiter(w)
		s.noteTimeout()
		w.deliver(StatusCancelled, nil)
		return nil
	}
	s.enqueueDelayed(entry{f: &FastProcess{exec: fire}}, s.clock.Now().Add(timeout))
}

// Cancel cancels a Ready or Active process: pending and future awaiters
// observe a cancelled outcome, the chained successor and any group children
// are cancelled recursively, and an occupied context is destroyed rather
// than recycled. Cancelling a terminal process is a reported no-op.
func (s *Scheduler) Cancel(p *Process) error {
	s.acquire()
	defer s.release()
	return s.doCancel(p)
}

// Cancel is the in-executor form of Scheduler.Cancel. A process cancelling
// itself keeps running until its next suspension point or return, and never
// resumes past it.
func (co *Context) Cancel(p *Process) error {
	return co.s.doCancel(p)
}

func (s *Scheduler) doCancel(p *Process) error {
	if p == nil {
		s.log.Warnw("cancel ignored", "reason", "nil process")
		return errors.ErrNilProcess
	}
	st := p.Status()
	if st.Terminal() {
		s.log.Warnw("cancel ignored", "reason", "process already terminal", "status", st.String())
		return errors.ErrProcessTerminal
	}

	// Suspended-context awaiters resume asynchronously, on a later tick,
	// never inline with the cancelling call. External awaiters block on a
	// buffered channel, so delivering to them immediately cannot reenter
	// the canceller's stack.
	for _, w := range p.takeWaiters() {
		if w.timeout != nil {
			w.timeout.cancelled = true
		}
		if w.external {
			w.deliver(StatusCancelled, nil)
			continue
		}
		w := w
		s.enqueueDeferred(entry{f: &FastProcess{exec: func(*Context, ...any) []any {
			w.deliver(StatusCancelled, nil)
			return nil
		}}})
	}

	if nx := p.next; nx != nil {
		p.next = nil
		s.doCancel(nx)
	}

	if g := p.group; g != nil {
		for _, child := range g.children {
			if !child.Status().Terminal() {
				s.doCancel(child)
			}
		}
	}

	if st == StatusActive && p.co != nil {
		c := p.co
		p.co = nil
		c.proc = nil
		c.killed = true
		if c.suspended {
			// Tear the context down now; its pending execution is
			// abandoned and the context is destroyed, not recycled.
			c.resume(wakeMsg{kind: wakeKill})
		}
		// A running context (self-cancel) unwinds at its next
		// suspension point or on return from the executor.
	}

	p.setStatus(StatusCancelled)
	s.noteCancelled()
	return nil
}
