package compose

import (
	"testing"
	"time"

	"github.com/vnykmshr/coopsched/internal/testutil"
	"github.com/vnykmshr/coopsched/pkg/clock"
	"github.com/vnykmshr/coopsched/pkg/sched"
)

const tickPhase = clock.Phase("update")

func newTestScheduler(t *testing.T) (*sched.Scheduler, *clock.Manual) {
	t.Helper()
	src := clock.NewManual(time.Unix(1000, 0))
	s, err := sched.New(sched.Config{Ticks: src})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start(2))
	t.Cleanup(func() {
		s.Shutdown()
		src.Close()
	})
	return s, src
}

func addOne(co *sched.Context, args ...any) []any {
	return []any{args[0].(int) + 1}
}

func TestChain_ThreadsResultsThroughStages(t *testing.T) {
	s, src := newTestScheduler(t)

	for _, n := range []int{1, 3, 10} {
		stages := make([]sched.Executor, n)
		for i := range stages {
			stages[i] = addOne
		}

		p, err := s.Spawn(Chain(stages...), 0)
		testutil.AssertNoError(t, err)

		// One deferred hop per stage.
		for i := 0; i < n; i++ {
			src.Step(tickPhase)
		}
		testutil.AssertEqual(t, p.Status(), sched.StatusDone)
		res, _ := p.Result()
		testutil.AssertEqual(t, res[0].(int), n)
	}
}

func TestChain_NoStagesEchoesArgs(t *testing.T) {
	s, _ := newTestScheduler(t)

	p, _ := s.Spawn(Chain(), "a", "b")
	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
	res, _ := p.Result()
	testutil.AssertEqual(t, len(res), 2)
	testutil.AssertEqual(t, res[0].(string), "a")
	testutil.AssertEqual(t, res[1].(string), "b")
}

func TestChain_CancelledStageYieldsNil(t *testing.T) {
	s, src := newTestScheduler(t)

	var midProc *sched.Process
	first := func(co *sched.Context, args ...any) []any { return nil }

	p, _ := s.Spawn(func(co *sched.Context, args ...any) []any {
		head, _ := co.Defer(first)
		midProc, _ = co.Push(head, addOne)
		outcome, res := co.Await(midProc)
		if outcome != sched.StatusDone {
			return nil
		}
		return res
	})

	s.Cancel(midProc)
	src.Step(tickPhase) // first runs; continuation is already cancelled
	src.Step(tickPhase) // chain executor resumes with the cancelled outcome

	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
	res, ok := p.Result()
	if !ok {
		t.Fatal("chain process has no result")
	}
	testutil.AssertEqual(t, len(res), 0)
}

func TestRetry_StopsOnFirstTruthyResult(t *testing.T) {
	s, _ := newTestScheduler(t)

	calls := 0
	flaky := func(co *sched.Context, args ...any) []any {
		calls++
		if calls < 3 {
			return []any{false, "not yet"}
		}
		return []any{true, "third time"}
	}

	p, _ := s.Spawn(Retry(5, 0, flaky))
	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
	testutil.AssertEqual(t, calls, 3)
	res, _ := p.Result()
	testutil.AssertEqual(t, res[0].(bool), true)
	testutil.AssertEqual(t, res[1].(string), "third time")
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	s, _ := newTestScheduler(t)

	calls := 0
	failing := func(co *sched.Context, args ...any) []any {
		calls++
		return []any{nil, calls}
	}

	p, _ := s.Spawn(Retry(4, 0, failing))
	testutil.AssertEqual(t, calls, 4)
	res, _ := p.Result()
	if res[0] != nil {
		t.Fatalf("first value: got %v, want nil", res[0])
	}
	testutil.AssertEqual(t, res[1].(int), 4)
}

func TestRetry_SleepsBetweenAttempts(t *testing.T) {
	s, src := newTestScheduler(t)

	calls := 0
	failing := func(co *sched.Context, args ...any) []any {
		calls++
		return []any{false}
	}

	p, _ := s.Spawn(Retry(2, time.Second, failing))
	testutil.AssertEqual(t, calls, 1) // suspended in the between-attempt sleep
	testutil.AssertEqual(t, p.Status(), sched.StatusActive)

	src.Advance(time.Second)
	src.Step(clock.Heartbeat)
	src.Step(tickPhase)
	testutil.AssertEqual(t, calls, 2)
	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
}

func TestRetry_AtLeastOneAttempt(t *testing.T) {
	s, _ := newTestScheduler(t)

	calls := 0
	p, _ := s.Spawn(Retry(0, 0, func(co *sched.Context, args ...any) []any {
		calls++
		return []any{true}
	}))
	testutil.AssertEqual(t, calls, 1)
	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
}

func TestProtect_ContainsPanic(t *testing.T) {
	s, _ := newTestScheduler(t)

	var recovered any
	p, _ := s.Spawn(Protect(func(co *sched.Context, args ...any) []any {
		panic("boom")
	}, func(co *sched.Context, r any) {
		recovered = r
	}))

	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
	testutil.AssertEqual(t, recovered.(string), "boom")
	res, ok := p.Result()
	if !ok {
		t.Fatal("protected process has no result")
	}
	testutil.AssertEqual(t, len(res), 0)
}

func TestProtect_PassthroughWithoutPanic(t *testing.T) {
	s, _ := newTestScheduler(t)

	p, _ := s.Spawn(Protect(addOne, nil), 41)
	res, _ := p.Result()
	testutil.AssertEqual(t, res[0].(int), 42)
}

func TestAll_WaitsForEveryChild(t *testing.T) {
	s, src := newTestScheduler(t)

	worker := func(co *sched.Context, args ...any) []any { return nil }

	p, _ := s.Spawn(All(worker, worker, worker))
	testutil.AssertEqual(t, p.Status(), sched.StatusActive)

	src.Step(tickPhase) // children run
	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
	res, _ := p.Result()
	testutil.AssertEqual(t, res[0].(int), 3)
}

func TestAllN_ThresholdStopsStragglers(t *testing.T) {
	s, src := newTestScheduler(t)

	quick := func(co *sched.Context, args ...any) []any { return nil }
	var afterSleep int32
	slow := func(co *sched.Context, args ...any) []any {
		co.Sleep(time.Minute)
		afterSleep++
		return nil
	}

	p, _ := s.Spawn(AllN(2, quick, slow, quick))
	src.Step(tickPhase) // two quick children complete; threshold met

	testutil.AssertEqual(t, p.Status(), sched.StatusDone)
	res, _ := p.Result()
	testutil.AssertEqual(t, res[0].(int), 2)

	// The straggler was torn down mid-sleep and never runs its tail.
	src.Advance(time.Hour)
	src.Step(clock.Heartbeat)
	src.Step(tickPhase)
	testutil.AssertEqual(t, afterSleep, int32(0))
}
