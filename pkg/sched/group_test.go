package sched

import (
	"testing"

	"github.com/vnykmshr/coopsched/internal/testutil"
)

func TestNewParent_ChildrenReportCompletion(t *testing.T) {
	s, src := newTestScheduler(t)

	child := func(co *Context, args ...any) []any {
		return []any{args[0].(string) + "!"}
	}

	var seen []string
	update := func(par *Parent, c *Process) {
		res, _ := c.Result()
		seen = append(seen, res[0].(string))
	}

	var waited int
	par, err := s.NewParent(func(co *Context, args ...any) []any {
		p := args[0].(*Parent)
		waited = p.Wait(co, -1) // all
		return nil
	}, update, map[string]any{"tag": "grp"}, []Executor{child, child, child}, "hi")
	testutil.AssertNoError(t, err)

	src.Step(tickPhase) // parent runs, attaches children, suspends in Wait
	testutil.AssertEqual(t, par.Process().Status(), StatusActive)
	testutil.AssertEqual(t, len(par.Children()), 3)

	src.Step(tickPhase) // children run, threshold met, parent resumes
	testutil.AssertEqual(t, waited, 3)
	testutil.AssertEqual(t, par.Done(), 3)
	testutil.AssertEqual(t, par.Process().Status(), StatusDone)
	testutil.AssertEqual(t, par.Fields()["tag"].(string), "grp")

	testutil.AssertEqual(t, len(seen), 3)
	for _, v := range seen {
		testutil.AssertEqual(t, v, "hi!")
	}
}

func TestParentWait_ThresholdTearsDownStragglers(t *testing.T) {
	s, src := newTestScheduler(t)

	quick := func(co *Context, args ...any) []any { return nil }
	stragglerRan := false
	slow := func(co *Context, args ...any) []any {
		co.Yield()
		stragglerRan = true
		return nil
	}

	var waited int
	par, _ := s.NewParent(func(co *Context, args ...any) []any {
		p := args[0].(*Parent)
		waited = p.Wait(co, 2)
		return nil
	}, nil, nil, []Executor{quick, slow, quick})

	src.Step(tickPhase) // parent suspends in Wait
	src.Step(tickPhase) // two quick children complete, slow one yields

	testutil.AssertEqual(t, waited, 2)
	testutil.AssertEqual(t, par.Process().Status(), StatusDone)
	testutil.AssertEqual(t, par.Children()[1].Status(), StatusCancelled)

	src.Step(tickPhase)
	if stragglerRan {
		t.Fatal("straggler resumed past its yield after teardown")
	}
}

func TestParentWait_CountClampsToChildren(t *testing.T) {
	s, src := newTestScheduler(t)

	child := func(co *Context, args ...any) []any { return nil }

	var waited int
	s.NewParent(func(co *Context, args ...any) []any {
		p := args[0].(*Parent)
		waited = p.Wait(co, 99)
		return nil
	}, nil, nil, []Executor{child, child})

	src.Step(tickPhase)
	src.Step(tickPhase)
	testutil.AssertEqual(t, waited, 2)
}

func TestParentWait_AlreadyMetReturnsWithoutSuspending(t *testing.T) {
	s, src := newTestScheduler(t)

	child := func(co *Context, args ...any) []any { return nil }

	var waited int
	s.NewParent(func(co *Context, args ...any) []any {
		p := args[0].(*Parent)
		co.Yield() // let the children finish first
		waited = p.Wait(co, 1)
		return nil
	}, nil, nil, []Executor{child})

	src.Step(tickPhase) // parent yields
	src.Step(tickPhase) // child completes; parent resumes, Wait is satisfied
	testutil.AssertEqual(t, waited, 1)
}

func TestContextGroup_InlineParent(t *testing.T) {
	s, src := newTestScheduler(t)

	child := func(co *Context, args ...any) []any {
		return []any{args[0].(int) * args[0].(int)}
	}

	total := 0
	update := func(par *Parent, c *Process) {
		res, _ := c.Result()
		total += res[0].(int)
	}

	done := 0
	s.Spawn(func(co *Context, args ...any) []any {
		par := co.Group([]Executor{child, child}, update, 3)
		done = par.Wait(co, -1)
		return nil
	})

	src.Step(tickPhase) // both children run
	testutil.AssertEqual(t, done, 2)
	testutil.AssertEqual(t, total, 18)
}

func TestCancel_ParentTearsDownChildren(t *testing.T) {
	s, src := newTestScheduler(t)

	childRan := false
	child := func(co *Context, args ...any) []any {
		childRan = true
		return nil
	}

	par, _ := s.NewParent(func(co *Context, args ...any) []any {
		p := args[0].(*Parent)
		p.Wait(co, -1)
		return nil
	}, nil, nil, []Executor{child})

	src.Step(tickPhase) // parent suspends in Wait; child enqueued
	testutil.AssertNoError(t, s.Cancel(par.Process()))
	testutil.AssertEqual(t, par.Children()[0].Status(), StatusCancelled)

	src.Step(tickPhase)
	if childRan {
		t.Fatal("child ran after its parent was cancelled")
	}
}
