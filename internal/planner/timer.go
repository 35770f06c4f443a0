package planner

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"studybrain/pkg/types"
)

// Timer is the weekly planner countdown: pure local state, no persistence
// across restarts and no server synchronization. A recurring one-second
// tick decrements SecondsLeft until zero, then reports completion exactly
// once.
type Timer struct {
	// OnComplete, when set before Start, is called once when the countdown
	// reaches zero. This is the completion toast hook.
	OnComplete func(day string)

	mu     sync.Mutex
	state  types.TimerState
	stopCh chan struct{}
	tick   time.Duration
	logger *zap.Logger
}

// NewTimer builds an idle timer.
func NewTimer(logger *zap.Logger) *Timer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timer{tick: time.Second, logger: logger}
}

// Start begins a countdown for the given day. A countdown already in
// progress is cancelled and replaced.
func (t *Timer) Start(day string, estimatedSeconds int) error {
	if estimatedSeconds <= 0 {
		return ErrInvalidDuration
	}

	t.mu.Lock()
	if t.stopCh != nil {
		close(t.stopCh)
	}
	t.state = types.TimerState{
		ActiveDay:      day,
		SecondsLeft:    estimatedSeconds,
		InitialSeconds: estimatedSeconds,
		IsRunning:      true,
	}
	stopCh := make(chan struct{})
	t.stopCh = stopCh
	tick := t.tick
	t.mu.Unlock()

	go t.run(stopCh, tick)

	t.logger.Debug("timer started", zap.String("day", day), zap.Int("seconds", estimatedSeconds))
	return nil
}

func (t *Timer) run(stopCh chan struct{}, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.mu.Lock()
			if t.stopCh != stopCh {
				// Replaced or stopped while the tick was in flight. The
				// state now belongs to a newer countdown.
				t.mu.Unlock()
				return
			}
			if !t.state.IsRunning {
				// Paused: hold SecondsLeft, keep ticking.
				t.mu.Unlock()
				continue
			}
			t.state.SecondsLeft--
			if t.state.SecondsLeft > 0 {
				t.mu.Unlock()
				continue
			}
			t.state.SecondsLeft = 0
			t.state.IsRunning = false
			day := t.state.ActiveDay
			complete := t.OnComplete
			t.mu.Unlock()

			if complete != nil {
				complete(day)
			}
			return

		case <-stopCh:
			return
		}
	}
}

// Pause halts the countdown without resetting SecondsLeft.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.IsRunning = false
}

// Resume continues a paused countdown.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.SecondsLeft > 0 {
		t.state.IsRunning = true
	}
}

// Reset restores SecondsLeft to the initial estimate without changing the
// running state.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.SecondsLeft = t.state.InitialSeconds
}

// Stop cancels the countdown goroutine and marks the timer idle.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
	t.state.IsRunning = false
}

// State returns a snapshot of the current timer state.
func (t *Timer) State() types.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
