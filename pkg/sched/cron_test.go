package sched

import (
	"testing"
	"time"

	"github.com/vnykmshr/coopsched/internal/testutil"
	"github.com/vnykmshr/coopsched/pkg/clock"
	"github.com/vnykmshr/coopsched/pkg/common/errors"
)

func TestScheduleCron_RepeatsEverySecond(t *testing.T) {
	s, src := newTestScheduler(t)

	runs := 0
	job, err := s.ScheduleCron("* * * * * *", func(co *Context, args ...any) []any {
		runs++
		return nil
	})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { job.Stop() })

	// Each occurrence: advance past the cron time, heartbeat promotes it,
	// the following tick runs it and arms the next one.
	for want := 1; want <= 3; want++ {
		src.Advance(time.Second)
		src.Step(clock.Heartbeat)
		src.Step(tickPhase)
		testutil.AssertEqual(t, runs, want)
	}
}

func TestScheduleCron_PassesArgs(t *testing.T) {
	s, src := newTestScheduler(t)

	var got string
	job, _ := s.ScheduleCron("* * * * * *", func(co *Context, args ...any) []any {
		got = args[0].(string)
		return nil
	}, "payload")
	t.Cleanup(func() { job.Stop() })

	src.Advance(time.Second)
	src.Step(clock.Heartbeat)
	src.Step(tickPhase)
	testutil.AssertEqual(t, got, "payload")
}

func TestScheduleCron_StopEndsCycle(t *testing.T) {
	s, src := newTestScheduler(t)

	runs := 0
	job, _ := s.ScheduleCron("* * * * * *", func(co *Context, args ...any) []any {
		runs++
		return nil
	})

	src.Advance(time.Second)
	src.Step(clock.Heartbeat)
	src.Step(tickPhase)
	testutil.AssertEqual(t, runs, 1)

	testutil.AssertNoError(t, job.Stop())

	src.Advance(5 * time.Second)
	src.Step(clock.Heartbeat)
	src.Step(tickPhase)
	testutil.AssertEqual(t, runs, 1)

	if err := job.Stop(); err != errors.ErrCronStopped {
		t.Fatalf("second stop: got %v, want ErrCronStopped", err)
	}
}

func TestScheduleCron_InvalidExpression(t *testing.T) {
	s, _ := newTestScheduler(t)

	_, err := s.ScheduleCron("not a cron expr", func(co *Context, args ...any) []any {
		return nil
	})
	testutil.AssertError(t, err)
}

func TestScheduleCron_Misuse(t *testing.T) {
	s, _ := newTestScheduler(t)

	if _, err := s.ScheduleCron("* * * * * *", nil); err != errors.ErrNilExecutor {
		t.Fatalf("cron nil executor: got %v, want ErrNilExecutor", err)
	}
}
