package burn

import (
	"sync"
	"time"

	"certgate/models"
)

const (
	// unsettledCap keeps the effect visibly "in progress" until the ledger
	// write actually confirms.
	unsettledCap = 0.6
	// fadeThreshold is the progress past which the fade may begin, and only
	// once settled.
	fadeThreshold = 0.8
	// unsettledRate is progress gained per second while the write is still
	// in flight.
	unsettledRate = 0.08
	// settleRamp is the short fixed timescale over which progress finishes
	// after settlement.
	settleRamp = 600 * time.Millisecond

	// DriveInterval is the cadence of the built-in driving loop.
	DriveInterval = 50 * time.Millisecond
)

// Animation drives a burning progress value from 0 to 1 off two independent
// inputs: wall-clock elapsed time and the external settlement signal. The
// machine is advanced by Advance, which takes elapsed time as a pure input,
// so the invariants (cap while unsettled, fade gating, at-most-once
// completion) are testable without real timers.
type Animation struct {
	mu             sync.Mutex
	phase          string
	progress       float64
	settled        bool
	settledElapsed time.Duration
	fading         bool
	cancelled      bool
	completeFired  bool
	lastElapsed    time.Duration

	onComplete func()
	onCancel   func()

	startedAt time.Time
	stopDrive chan struct{}
	now       func() time.Time
}

// NewAnimation creates an inactive animation. onComplete fires at most once
// when progress reaches 1; onCancel fires instead when the animation is
// cancelled mid-flight.
func NewAnimation(onComplete, onCancel func()) *Animation {
	return &Animation{
		phase:      models.AnimInactive,
		onComplete: onComplete,
		onCancel:   onCancel,
		now:        time.Now,
	}
}

// Start puts the animation into the burning phase. Starting an already
// burning or completed animation is a no-op.
func (a *Animation) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase != models.AnimInactive {
		return
	}
	a.phase = models.AnimBurning
	a.progress = 0
	a.settled = false
	a.fading = false
	a.cancelled = false
	a.completeFired = false
	a.lastElapsed = 0
	a.startedAt = a.now()
}

// Settle signals that the underlying transaction has confirmed; progress now
// ramps rapidly toward completion.
func (a *Animation) Settle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase != models.AnimBurning || a.settled {
		return
	}
	a.settled = true
	a.settledElapsed = a.lastElapsed
}

// Advance moves the machine to the state implied by the given elapsed time
// since Start. Progress is monotonically non-decreasing; calls after
// cancellation or completion are no-ops. Returns true once completed.
func (a *Animation) Advance(elapsed time.Duration) bool {
	a.mu.Lock()
	if a.cancelled || a.phase != models.AnimBurning {
		done := a.phase == models.AnimDone
		a.mu.Unlock()
		return done
	}
	if elapsed > a.lastElapsed {
		a.lastElapsed = elapsed
	}

	var target float64
	if a.settled {
		// Finish over the settle ramp starting from the settlement instant.
		ramp := float64(a.lastElapsed-a.settledElapsed) / float64(settleRamp)
		target = unsettledCap + (1-unsettledCap)*ramp
		if target > 1 {
			target = 1
		}
	} else {
		target = elapsed.Seconds() * unsettledRate
		if target > unsettledCap {
			target = unsettledCap
		}
	}
	if target > a.progress {
		a.progress = target
	}

	// Fade never begins on unsettled progress alone.
	a.fading = a.settled && a.progress > fadeThreshold

	var fire func()
	if a.progress >= 1 && !a.completeFired {
		a.completeFired = true
		a.phase = models.AnimDone
		fire = a.onComplete
	}
	done := a.phase == models.AnimDone
	a.mu.Unlock()

	if fire != nil {
		fire()
	}
	return done
}

// Cancel aborts the animation mid-flight: visual state resets, the
// cancellation callback fires instead of completion, and any scheduled
// driving loop is neutralized. No progress updates happen afterwards.
func (a *Animation) Cancel() {
	a.mu.Lock()
	if a.cancelled || a.phase != models.AnimBurning {
		a.mu.Unlock()
		return
	}
	a.cancelled = true
	a.phase = models.AnimInactive
	a.progress = 0
	a.settled = false
	a.fading = false
	stop := a.stopDrive
	a.stopDrive = nil
	fire := a.onCancel
	a.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if fire != nil {
		fire()
	}
}

// Rollback returns the animation to the non-burning state after the external
// write failed. Neither completion nor cancellation callbacks fire.
func (a *Animation) Rollback() {
	a.mu.Lock()
	if a.phase != models.AnimBurning {
		a.mu.Unlock()
		return
	}
	a.cancelled = true
	a.phase = models.AnimInactive
	a.progress = 0
	a.settled = false
	a.fading = false
	stop := a.stopDrive
	a.stopDrive = nil
	a.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// Drive runs the built-in loop advancing the animation on a ticker until it
// completes or is cancelled.
func (a *Animation) Drive() {
	a.mu.Lock()
	if a.phase != models.AnimBurning || a.stopDrive != nil {
		a.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	a.stopDrive = stop
	started := a.startedAt
	a.mu.Unlock()

	go func() {
		ticker := time.NewTicker(DriveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if a.Advance(a.now().Sub(started)) {
					return
				}
			}
		}
	}()
}

// View returns a snapshot for presentation.
func (a *Animation) View() models.BurnAnimationView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return models.BurnAnimationView{
		Phase:    a.phase,
		Progress: a.progress,
		Settled:  a.settled,
		Fading:   a.fading,
	}
}
