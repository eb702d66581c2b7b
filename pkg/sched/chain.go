package sched

import "github.com/vnykmshr/coopsched/pkg/common/errors"

// Push chains exec to run after p with p's result sequence as arguments,
// returning the new tail process. Chains are singly linked: pushing onto a
// process that already has a successor appends at the tail.
//
// Pushing onto a Done process spawns the continuation immediately with the
// captured result; onto a Cancelled process it returns an already-cancelled
// stub. Completion-time continuation always goes through the deferred
// queue, one tick per hop, so long chains cost constant stack.
func (s *Scheduler) Push(p *Process, exec Executor) (*Process, error) {
	s.acquire()
	defer s.release()
	return s.doPush(p, exec)
}

// Push is the in-executor form of Scheduler.Push.
func (co *Context) Push(p *Process, exec Executor) (*Process, error) {
	return co.s.doPush(p, exec)
}

func (s *Scheduler) doPush(p *Process, exec Executor) (*Process, error) {
	if p == nil {
		s.log.Warnw("push ignored", "reason", "nil process")
		return nil, errors.ErrNilProcess
	}
	if exec == nil {
		s.log.Warnw("push ignored", "reason", "nil executor")
		return nil, errors.ErrNilExecutor
	}
	if !s.running {
		s.log.Warnw("push ignored", "reason", "scheduler not running")
		return nil, errors.ErrNotRunning
	}

	tail := p
	for tail.next != nil {
		tail = tail.next
	}

	switch tail.Status() {
	case StatusDone:
		nx := newProcess(s, exec)
		nx.setArgs(tail.result)
		s.noteScheduled("proc", "spawn")
		s.startProcess(nx)
		return nx, nil
	case StatusCancelled:
		nx := newProcess(s, exec)
		nx.setStatus(StatusCancelled)
		return nx, nil
	default:
		nx := newProcess(s, exec)
		tail.next = nx
		return nx, nil
	}
}
