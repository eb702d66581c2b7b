/*
Package coopsched provides a cooperative process scheduler for Go: spawn,
defer, delay, await, chain and cancel units of work on a single logical
thread of control, with pooled execution contexts instead of a fresh
goroutine per unit.

Core (pkg/sched):
  - Scheduler: pooled contexts, tick-driven dispatch, deferred and delayed queues
  - Process: awaitable, cancellable, chainable unit of work
  - Parent: child groups with completion hooks and threshold waits
  - ScheduleCron: cron-expression scheduling on the delayed queue

Composition (pkg/compose):
  - Chain: sequential stages, each stage's output feeding the next
  - Retry: bounded re-invocation with cooperative sleep between attempts
  - Protect: contained executor failures with an optional handler
  - All/AllN: wait for N of M child executors, tearing down the rest

Clock (pkg/clock):
  - Interval: real phase-cycling tick source on a time.Ticker
  - Manual: hand-stepped ticks and a settable clock for deterministic tests

Example usage:

	import (
		"github.com/vnykmshr/coopsched/pkg/clock"
		"github.com/vnykmshr/coopsched/pkg/sched"
	)

	src := clock.NewInterval(16*time.Millisecond, clock.DefaultPhases...)
	s, _ := sched.New(sched.Config{Ticks: src, Clock: src})
	s.Start(4)

	p, _ := s.Defer(func(co *sched.Context, args ...any) []any {
		return []any{"done"}
	})
	outcome, values := s.Await(p)
*/
package coopsched
