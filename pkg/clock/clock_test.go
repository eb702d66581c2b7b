package clock

import (
	"testing"
	"time"
)

func TestManual_StepBlocksUntilConsumed(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	defer m.Close()

	got := make(chan Phase, 2)
	go func() {
		for {
			p, _, ok := m.NextTick()
			if !ok {
				return
			}
			got <- p
		}
	}()

	m.Step("update")
	m.Step(Heartbeat)
	if p := <-got; p != "update" {
		t.Fatalf("first phase: got %q, want update", p)
	}
	if p := <-got; p != Heartbeat {
		t.Fatalf("second phase: got %q, want %q", p, Heartbeat)
	}
}

func TestManual_StepElapsed(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	defer m.Close()

	got := make(chan time.Duration, 1)
	go func() {
		_, elapsed, _ := m.NextTick()
		got <- elapsed
		m.NextTick()
	}()

	m.StepElapsed("update", 16*time.Millisecond)
	if d := <-got; d != 16*time.Millisecond {
		t.Fatalf("elapsed: got %v, want 16ms", d)
	}
}

func TestManual_AdvanceMovesClockWithoutTicking(t *testing.T) {
	start := time.Unix(1000, 0)
	m := NewManual(start)
	defer m.Close()

	if !m.Now().Equal(start) {
		t.Fatalf("initial Now: got %v, want %v", m.Now(), start)
	}
	m.Advance(90 * time.Second)
	if !m.Now().Equal(start.Add(90 * time.Second)) {
		t.Fatalf("advanced Now: got %v", m.Now())
	}
}

func TestManual_CloseUnblocksNextTick(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	done := make(chan bool, 1)
	go func() {
		_, _, ok := m.NextTick()
		done <- ok
	}()

	m.Close()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("NextTick reported ok after Close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("NextTick did not unblock on Close")
	}

	// Step after Close must not hang.
	m.Step("update")
}

func TestInterval_CyclesPhases(t *testing.T) {
	iv := NewInterval(time.Millisecond, "a", "b")
	defer iv.Close()

	var phases []Phase
	for i := 0; i < 4; i++ {
		p, _, ok := iv.NextTick()
		if !ok {
			t.Fatal("tick source closed early")
		}
		phases = append(phases, p)
	}
	want := []Phase{"a", "b", "a", "b"}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase %d: got %q, want %q", i, phases[i], want[i])
		}
	}
}

func TestInterval_DefaultPhasesIncludeHeartbeat(t *testing.T) {
	iv := NewInterval(time.Millisecond)
	defer iv.Close()

	seen := map[Phase]bool{}
	for i := 0; i < len(DefaultPhases); i++ {
		p, _, ok := iv.NextTick()
		if !ok {
			t.Fatal("tick source closed early")
		}
		seen[p] = true
	}
	if !seen[Heartbeat] {
		t.Fatalf("default ring never produced the heartbeat phase: %v", seen)
	}
}

func TestInterval_CloseUnblocksNextTick(t *testing.T) {
	iv := NewInterval(time.Hour)

	done := make(chan bool, 1)
	go func() {
		_, _, ok := iv.NextTick()
		done <- ok
	}()

	iv.Close()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("NextTick reported ok after Close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("NextTick did not unblock on Close")
	}
	iv.Close() // idempotent
}
