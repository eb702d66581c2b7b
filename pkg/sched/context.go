package sched

import (
	"runtime"
	"time"
)

// proceedToken guards pooled contexts against foreign resumption: a wake
// message without it is ignored, so an outside caller cannot hijack a
// future process slot.
const proceedToken uint32 = 0x9e3779b9

type wakeKind int

const (
	wakeAssign wakeKind = iota
	wakeResume
	wakeKill
	wakeStop
)

type wakeMsg struct {
	token   uint32
	kind    wakeKind
	proc    *Process
	fast    *FastProcess
	outcome Status
	res     []any
}

// Context is a reusable suspendable execution unit: a pooled goroutine
// parked on a single-slot wake channel. A context runs at most one process
// at a time and holds the scheduler's run permit for the whole of each
// resume-to-park interval.
type Context struct {
	s    *Scheduler
	fast bool

	wake   chan wakeMsg
	parked chan struct{}

	// Mutated only under the run permit.
	proc      *Process
	suspended bool
	killed    bool
	destroyed bool
}

func (s *Scheduler) newContext(fast bool) *Context {
	c := &Context{
		s:      s,
		fast:   fast,
		wake:   make(chan wakeMsg, 1),
		parked: make(chan struct{}),
	}
	s.contexts[c] = struct{}{}
	s.noteContextBorn(c)
	go c.loop()
	return c
}

// loop is the fixed driver body shared by every pooled context.
func (c *Context) loop() {
	defer c.exit()
	for {
		msg := <-c.wake
		if msg.token != proceedToken {
			continue
		}
		switch msg.kind {
		case wakeStop:
			return
		case wakeAssign:
			if c.fast {
				c.runFast(msg.fast)
			} else {
				c.run(msg.proc)
			}
			c.parked <- struct{}{}
		}
	}
}

// exit runs when the driver goroutine unwinds, whether by stop, kill or an
// executor panic escaping the driver. Pool and registry bookkeeping happens
// on the side that initiated the teardown, which holds the run permit.
func (c *Context) exit() {
	c.destroyed = true
	if c.killed {
		// The canceller is blocked on the hand-off and holds the run
		// permit, so this bookkeeping runs inside its critical section.
		delete(c.s.contexts, c)
		c.s.noteContextGone(c)
		c.parked <- struct{}{}
	}
}

// resume wakes the context and blocks until it parks again: finishes,
// suspends or is torn down. The caller must hold the run permit; resume is
// the permit hand-off.
func (c *Context) resume(msg wakeMsg) {
	msg.token = proceedToken
	c.wake <- msg
	<-c.parked
}

// suspend parks the context mid-executor, handing the run permit back to
// whoever resumed it, and blocks until the next resumption. A kill wake
// never returns: the goroutine unwinds instead, so the executor's
// post-suspension code is never reached.
func (c *Context) suspend() (Status, []any) {
	if c.killed {
		runtime.Goexit()
	}
	c.suspended = true
	c.parked <- struct{}{}
	msg := <-c.wake
	c.suspended = false
	if msg.kind == wakeKill || c.killed {
		runtime.Goexit()
	}
	return msg.outcome, msg.res
}

// run drives one managed process from Active to Done, then performs the
// completion protocol in order: capture result, resume awaiters, enqueue the
// chained successor, notify the parent group, release self to the pool.
func (c *Context) run(p *Process) {
	s := c.s
	p.setStatus(StatusActive)
	p.co = c
	c.proc = p
	args := p.takeArgs()

	start := time.Now()
	res := p.exec(c, args...)
	if c.killed {
		runtime.Goexit()
	}
	s.observeRun(time.Since(start))

	c.proc = nil
	p.co = nil
	p.result = res
	p.setStatus(StatusDone)
	s.noteCompleted()

	for _, w := range p.takeWaiters() {
		if w.timeout != nil {
			w.timeout.cancelled = true
		}
		w.deliver(StatusDone, res)
	}

	if nx := p.next; nx != nil {
		nx.setArgs(res)
		s.enqueueDeferred(entry{p: nx})
	}

	if p.parent != nil {
		p.parent.childDone(p)
	}

	s.releaseContext(c)
}

// runFast is the managed driver minus all bookkeeping.
func (c *Context) runFast(fp *FastProcess) {
	fp.exec(c, fp.args...)
	if c.killed {
		runtime.Goexit()
	}
	c.s.releaseContext(c)
}

// Sleep suspends the executor until the first heartbeat at or after d from
// now. Sleeping on a context whose process gets cancelled never returns.
func (co *Context) Sleep(d time.Duration) {
	c := co
	s := co.s
	s.enqueueDelayed(entry{f: &FastProcess{exec: func(*Context, ...any) []any {
		if !c.destroyed && !c.killed {
			c.resume(wakeMsg{kind: wakeResume, outcome: StatusDone})
		}
		return nil
	}}}, s.clock.Now().Add(d))
	co.suspend()
}

// Yield suspends the executor until the next tick.
func (co *Context) Yield() {
	c := co
	co.s.enqueueDeferred(entry{f: &FastProcess{exec: func(*Context, ...any) []any {
		if !c.destroyed && !c.killed {
			c.resume(wakeMsg{kind: wakeResume, outcome: StatusDone})
		}
		return nil
	}}})
	co.suspend()
}

// ctxPool holds suspended reusable contexts. The just-released slot keeps
// the most recently finished context warm so back-to-back starts on the same
// tick skip the pool round-trip.
type ctxPool struct {
	warm *Context
	idle []*Context
}

func (pl *ctxPool) get() *Context {
	if c := pl.warm; c != nil {
		pl.warm = nil
		return c
	}
	if n := len(pl.idle); n > 0 {
		c := pl.idle[n-1]
		pl.idle[n-1] = nil
		pl.idle = pl.idle[:n-1]
		return c
	}
	return nil
}

func (pl *ctxPool) put(c *Context) {
	if pl.warm != nil {
		pl.idle = append(pl.idle, pl.warm)
	}
	pl.warm = c
}

func (pl *ctxPool) size() int {
	n := len(pl.idle)
	if pl.warm != nil {
		n++
	}
	return n
}

// drain empties the pool, returning every idle context.
func (pl *ctxPool) drain() []*Context {
	out := pl.idle
	pl.idle = nil
	if pl.warm != nil {
		out = append(out, pl.warm)
		pl.warm = nil
	}
	return out
}
