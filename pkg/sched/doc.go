/*
Package sched implements a cooperative process scheduler with pooled
execution contexts.

A Process is a managed unit of work: it can be awaited, cancelled, chained
and grouped. A fast process is its unmanaged fire-and-forget counterpart.
Both run on reusable execution contexts drawn from per-kind pools, driven by
a tick source supplied by the host (see pkg/clock).

Work enters through Spawn (runs now), Defer (runs next tick) or Delay (runs
at the next heartbeat at or after a wake time). The dispatch loop drains the
deferred queue every tick and promotes due delayed entries once per phase
cycle, on the heartbeat phase.

Exactly one executor body runs at any instant. The scheduler serializes the
dispatch loop, every Scheduler method and every context body behind a single
run permit; resuming a suspended context is a strict hand-off of that permit.
Executors therefore call the methods of their *Context argument, which assume
the permit is already held, while code outside an executor calls the
corresponding *Scheduler methods, which take it. Calling a Scheduler method
from inside an executor deadlocks.
*/
package sched
