package planner

import (
	"sync/atomic"
	"testing"
	"time"

	"studybrain/pkg/types"
)

func newFastTimer(t *testing.T) *Timer {
	t.Helper()
	timer := NewTimer(nil)
	timer.tick = 5 * time.Millisecond
	t.Cleanup(timer.Stop)
	return timer
}

func waitForState(t *testing.T, timer *Timer, cond func(s types.TimerState) bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(timer.State()) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s, state: %+v", what, timer.State())
}

func TestTimer_StartRejectsInvalidDuration(t *testing.T) {
	timer := newFastTimer(t)

	if err := timer.Start("monday", 0); err != ErrInvalidDuration {
		t.Errorf("Expected ErrInvalidDuration for zero, got %v", err)
	}
	if err := timer.Start("monday", -5); err != ErrInvalidDuration {
		t.Errorf("Expected ErrInvalidDuration for negative, got %v", err)
	}
}

func TestTimer_CountsDownToCompletion(t *testing.T) {
	timer := newFastTimer(t)

	var completions int32
	var completedDay atomic.Value
	timer.OnComplete = func(day string) {
		atomic.AddInt32(&completions, 1)
		completedDay.Store(day)
	}

	if err := timer.Start("tuesday", 3); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForState(t, timer, func(s types.TimerState) bool {
		return !s.IsRunning && s.SecondsLeft == 0
	}, "completion")

	// Let extra ticks elapse to prove completion fires only once.
	time.Sleep(30 * time.Millisecond)

	if n := atomic.LoadInt32(&completions); n != 1 {
		t.Errorf("Expected exactly one completion, got %d", n)
	}
	if day := completedDay.Load(); day != "tuesday" {
		t.Errorf("Expected completion for tuesday, got %v", day)
	}

	state := timer.State()
	if state.SecondsLeft != 0 || state.IsRunning {
		t.Errorf("Expected terminal state 0/stopped, got %+v", state)
	}
}

func TestTimer_PauseHoldsSecondsLeft(t *testing.T) {
	timer := newFastTimer(t)

	if err := timer.Start("wednesday", 1000); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForState(t, timer, func(s types.TimerState) bool { return s.SecondsLeft < 1000 }, "first decrement")
	timer.Pause()

	held := timer.State().SecondsLeft
	time.Sleep(30 * time.Millisecond)

	if got := timer.State().SecondsLeft; got != held {
		t.Errorf("Paused timer moved from %d to %d", held, got)
	}
	if timer.State().IsRunning {
		t.Error("Paused timer should not report running")
	}
}

func TestTimer_ResumeContinuesCountdown(t *testing.T) {
	timer := newFastTimer(t)

	if err := timer.Start("thursday", 1000); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	timer.Pause()
	held := timer.State().SecondsLeft

	timer.Resume()
	waitForState(t, timer, func(s types.TimerState) bool { return s.IsRunning && s.SecondsLeft < held }, "post-resume decrement")
}

func TestTimer_ResumeAfterCompletionIsNoOp(t *testing.T) {
	timer := newFastTimer(t)

	if err := timer.Start("friday", 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForState(t, timer, func(s types.TimerState) bool { return !s.IsRunning && s.SecondsLeft == 0 }, "completion")

	timer.Resume()
	if timer.State().IsRunning {
		t.Error("Resume must not restart a completed countdown")
	}
}

func TestTimer_ResetRestoresInitialEstimate(t *testing.T) {
	timer := newFastTimer(t)

	if err := timer.Start("saturday", 1000); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForState(t, timer, func(s types.TimerState) bool { return s.SecondsLeft < 1000 }, "first decrement")
	timer.Pause()

	timer.Reset()

	state := timer.State()
	if state.SecondsLeft != 1000 {
		t.Errorf("Expected SecondsLeft restored to 1000, got %d", state.SecondsLeft)
	}
	if state.IsRunning {
		t.Error("Reset must not change the running state")
	}
}

func TestTimer_StartReplacesRunningCountdown(t *testing.T) {
	timer := newFastTimer(t)

	if err := timer.Start("sunday", 1000); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := timer.Start("monday", 500); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}

	state := timer.State()
	if state.ActiveDay != "monday" || state.InitialSeconds != 500 {
		t.Errorf("Expected replacement countdown, got %+v", state)
	}
}

func TestTimer_ReplacementUnaffectedByOldTicks(t *testing.T) {
	timer := newFastTimer(t)
	timer.tick = time.Millisecond

	if err := timer.Start("sunday", 1000); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Let the first countdown tick a few times so a tick can be in flight
	// when the replacement happens.
	time.Sleep(10 * time.Millisecond)

	timer.mu.Lock()
	timer.tick = time.Hour
	timer.mu.Unlock()
	if err := timer.Start("monday", 500); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}

	// Ticks of the replaced countdown must not decrement the fresh one.
	time.Sleep(30 * time.Millisecond)
	if got := timer.State().SecondsLeft; got != 500 {
		t.Errorf("Expected replacement countdown untouched at 500, got %d", got)
	}
}

func TestTimer_StopCancelsCountdown(t *testing.T) {
	timer := newFastTimer(t)

	var completions int32
	timer.OnComplete = func(string) { atomic.AddInt32(&completions, 1) }

	if err := timer.Start("monday", 1000); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	timer.Stop()

	// A tick already received may still land; let it drain before sampling.
	time.Sleep(15 * time.Millisecond)
	left := timer.State().SecondsLeft
	time.Sleep(30 * time.Millisecond)

	if got := timer.State().SecondsLeft; got != left {
		t.Errorf("Stopped timer moved from %d to %d", left, got)
	}
	if atomic.LoadInt32(&completions) != 0 {
		t.Error("Stopped timer must not report completion")
	}
}
