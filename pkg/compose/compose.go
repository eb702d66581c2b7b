package compose

import (
	"time"

	"github.com/vnykmshr/coopsched/pkg/sched"
)

// Chain returns an executor that runs each stage as its own process, one
// deferred hop per stage, feeding every stage's result sequence to the next
// stage as arguments. The chain executor's own result is the final stage's
// result, or nil if any stage is cancelled. With no stages it returns its
// arguments unchanged.
func Chain(execs ...sched.Executor) sched.Executor {
	return func(co *sched.Context, args ...any) []any {
		if len(execs) == 0 {
			return args
		}
		head, err := co.Defer(execs[0], args...)
		if err != nil {
			return nil
		}
		tail := head
		for _, exec := range execs[1:] {
			next, err := co.Push(tail, exec)
			if err != nil {
				return nil
			}
			tail = next
		}
		outcome, res := co.Await(tail)
		if outcome != sched.StatusDone {
			return nil
		}
		return res
	}
}

// Retry returns an executor that invokes exec up to count times (at least
// once), sleeping delay between attempts when positive. A truthy first
// return value stops early; the last attempt's full result sequence is
// returned either way. Truthiness follows the scheduler's convention: every
// value except nil and false is truthy.
func Retry(count int, delay time.Duration, exec sched.Executor) sched.Executor {
	return func(co *sched.Context, args ...any) []any {
		attempts := count
		if attempts < 1 {
			attempts = 1
		}
		var res []any
		for i := 0; i < attempts; i++ {
			if i > 0 && delay > 0 {
				co.Sleep(delay)
			}
			res = exec(co, args...)
			if len(res) > 0 && truthy(res[0]) {
				break
			}
		}
		return res
	}
}

// Protect returns an executor that contains a panicking exec: on panic, the
// optional handler receives the panic value and the protected call returns
// nil instead of propagating. Without Protect, an executor panic unwinds
// out of the driver and surfaces as an uncaught failure.
func Protect(exec sched.Executor, handler func(co *sched.Context, recovered any)) sched.Executor {
	return func(co *sched.Context, args ...any) (res []any) {
		defer func() {
			if r := recover(); r != nil {
				if handler != nil {
					handler(co, r)
				}
				res = nil
			}
		}()
		return exec(co, args...)
	}
}

// All returns an executor that runs every exec as a child process and parks
// until all of them complete. Its result is the completed-child count.
func All(execs ...sched.Executor) sched.Executor {
	return AllN(-1, execs...)
}

// AllN is All with a threshold: the parent resumes as soon as count
// children have completed (clamped to [0, len(execs)]; negative means all),
// and every still-running sibling is torn down, never allowed to finish.
func AllN(count int, execs ...sched.Executor) sched.Executor {
	return func(co *sched.Context, args ...any) []any {
		par := co.Group(execs, nil, args...)
		done := par.Wait(co, count)
		return []any{done}
	}
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
