package sched

import "github.com/vnykmshr/coopsched/pkg/common/errors"

// UpdateFunc is called each time a child of a parent group completes.
type UpdateFunc func(par *Parent, child *Process)

// Parent tracks completion of an ordered set of child processes toward a
// threshold. The parent process owns its children; each child carries a
// backreference only.
type Parent struct {
	s        *Scheduler
	proc     *Process
	update   UpdateFunc
	fields   map[string]any
	children []*Process

	done   int
	waitCo *Context
	waitN  int
}

// NewParent creates a parent process running exec and spawns one child per
// childExec under it, all deferred to the next tick. The parent's executor
// receives the *Parent as its first argument, ahead of args; children
// receive args unchanged. update, if non-nil, runs after each child
// completion.
func (s *Scheduler) NewParent(exec Executor, update UpdateFunc, fields map[string]any, childExecs []Executor, args ...any) (*Parent, error) {
	s.acquire()
	defer s.release()

	if exec == nil {
		s.log.Warnw("parent ignored", "reason", "nil executor")
		return nil, errors.ErrNilExecutor
	}
	if !s.running {
		s.log.Warnw("parent ignored", "reason", "scheduler not running")
		return nil, errors.ErrNotRunning
	}

	par := &Parent{s: s, update: update, fields: fields}
	wrapped := func(co *Context, a ...any) []any {
		par.attach(co, childExecs, a)
		return exec(co, append([]any{par}, a...)...)
	}
	p, err := s.doDefer(wrapped, args...)
	if err != nil {
		return nil, err
	}
	par.proc = p
	return par, nil
}

// Group turns the current process into a group parent: one child per
// executor is deferred with the given arguments, each reporting back on
// completion. Use Wait to park until enough children have finished.
func (co *Context) Group(execs []Executor, update UpdateFunc, args ...any) *Parent {
	par := &Parent{s: co.s, update: update}
	par.attach(co, execs, args)
	return par
}

func (par *Parent) attach(co *Context, execs []Executor, args []any) {
	s := co.s
	par.proc = co.proc
	if par.proc != nil {
		par.proc.group = par
	}
	for _, exec := range execs {
		child := newProcess(s, exec)
		child.setArgs(args)
		child.parent = par
		par.children = append(par.children, child)
		s.noteScheduled("proc", "defer")
		s.enqueueDeferred(entry{p: child})
	}
}

// childDone runs inside the completing child's driver step.
func (par *Parent) childDone(child *Process) {
	par.done++
	if par.update != nil {
		par.update(par, child)
	}
	if par.waitCo != nil && par.done >= par.waitN {
		co := par.waitCo
		par.waitCo = nil
		if !co.destroyed && !co.killed {
			co.resume(wakeMsg{kind: wakeResume, outcome: StatusDone})
		}
	}
}

// Wait parks the parent's executor until count children have completed
// (count is clamped to [0, len(children)]; negative means all). Once the
// threshold is met, any still-running sibling is torn down and Wait returns
// the number of completed children.
func (par *Parent) Wait(co *Context, count int) int {
	n := count
	if n < 0 || n > len(par.children) {
		n = len(par.children)
	}
	if par.done < n {
		par.waitCo = co
		par.waitN = n
		co.suspend()
	}
	for _, child := range par.children {
		if !child.Status().Terminal() {
			par.s.doCancel(child)
		}
	}
	return par.done
}

// Process returns the parent's own process handle.
func (par *Parent) Process() *Process { return par.proc }

// Children returns the ordered child processes.
func (par *Parent) Children() []*Process { return par.children }

// Done returns how many children have completed so far.
func (par *Parent) Done() int { return par.done }

// Fields returns the caller-supplied group state passed to NewParent.
func (par *Parent) Fields() map[string]any { return par.fields }
