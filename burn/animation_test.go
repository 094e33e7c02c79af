package burn

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/models"
)

func TestProgressCappedWhileUnsettled(t *testing.T) {
	animation := NewAnimation(nil, nil)
	animation.Start()

	for _, elapsed := range []time.Duration{time.Second, 10 * time.Second, time.Minute, time.Hour} {
		animation.Advance(elapsed)
		view := animation.View()
		assert.LessOrEqual(t, view.Progress, unsettledCap,
			"unsettled progress must never exceed the cap at %s", elapsed)
		assert.False(t, view.Fading, "fade must never begin while unsettled")
	}
	assert.Equal(t, models.AnimBurning, animation.View().Phase)
}

func TestProgressIsMonotonic(t *testing.T) {
	animation := NewAnimation(nil, nil)
	animation.Start()

	animation.Advance(5 * time.Second)
	high := animation.View().Progress
	animation.Advance(time.Second) // out-of-order tick
	assert.GreaterOrEqual(t, animation.View().Progress, high)
}

func TestSettlementRampsToCompletion(t *testing.T) {
	var completions int32
	animation := NewAnimation(func() { atomic.AddInt32(&completions, 1) }, nil)
	animation.Start()

	animation.Advance(10 * time.Second) // pinned at the cap
	require.Equal(t, unsettledCap, animation.View().Progress)

	animation.Settle()
	animation.Advance(10*time.Second + settleRamp/2)
	view := animation.View()
	assert.Greater(t, view.Progress, unsettledCap)
	assert.Less(t, view.Progress, 1.0)

	animation.Advance(10*time.Second + settleRamp)
	view = animation.View()
	assert.Equal(t, 1.0, view.Progress)
	assert.Equal(t, models.AnimDone, view.Phase)
	assert.Equal(t, int32(1), atomic.LoadInt32(&completions))
}

func TestFadeBeginsOnlyPastThresholdAndSettled(t *testing.T) {
	animation := NewAnimation(nil, nil)
	animation.Start()

	animation.Advance(10 * time.Second)
	animation.Settle()

	// Half the ramp lands at 0.8 exactly: not past the threshold yet.
	animation.Advance(10*time.Second + settleRamp/2)
	assert.False(t, animation.View().Fading)

	animation.Advance(10*time.Second + 3*settleRamp/4)
	view := animation.View()
	assert.True(t, view.Fading)
	assert.True(t, view.Settled)
}

func TestCompletionFiresExactlyOnce(t *testing.T) {
	var completions int32
	animation := NewAnimation(func() { atomic.AddInt32(&completions, 1) }, nil)
	animation.Start()
	animation.Settle()

	// Keep driving well past completion; the callback must not refire.
	for i := 0; i < 10; i++ {
		animation.Advance(time.Duration(i+1) * time.Second)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&completions))
}

func TestCancelResetsAndFiresCancelCallback(t *testing.T) {
	var completions, cancels int32
	animation := NewAnimation(
		func() { atomic.AddInt32(&completions, 1) },
		func() { atomic.AddInt32(&cancels, 1) },
	)
	animation.Start()
	animation.Advance(5 * time.Second)

	animation.Cancel()
	view := animation.View()
	assert.Equal(t, models.AnimInactive, view.Phase)
	assert.Equal(t, 0.0, view.Progress)
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancels))
	assert.Equal(t, int32(0), atomic.LoadInt32(&completions))

	// No further progress after cancellation.
	animation.Advance(time.Hour)
	assert.Equal(t, 0.0, animation.View().Progress)

	animation.Cancel()
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancels), "cancel is idempotent")
}

func TestRollbackFiresNoCallbacks(t *testing.T) {
	var completions, cancels int32
	animation := NewAnimation(
		func() { atomic.AddInt32(&completions, 1) },
		func() { atomic.AddInt32(&cancels, 1) },
	)
	animation.Start()
	animation.Advance(3 * time.Second)

	animation.Rollback()
	view := animation.View()
	assert.Equal(t, models.AnimInactive, view.Phase)
	assert.Equal(t, 0.0, view.Progress)
	assert.Equal(t, int32(0), atomic.LoadInt32(&completions))
	assert.Equal(t, int32(0), atomic.LoadInt32(&cancels))
}

func TestDriveCompletesAfterSettlement(t *testing.T) {
	done := make(chan struct{})
	animation := NewAnimation(func() { close(done) }, nil)
	animation.Start()
	animation.Drive()
	animation.Settle()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("driven animation did not complete after settlement")
	}
	assert.Equal(t, models.AnimDone, animation.View().Phase)
}

func TestDriveStopsOnCancel(t *testing.T) {
	animation := NewAnimation(func() { t.Error("completion must not fire after cancel") }, nil)
	animation.Start()
	animation.Drive()
	animation.Cancel()
	animation.Settle() // late settlement signal lands on a dead machine

	time.Sleep(4 * DriveInterval)
	assert.Equal(t, models.AnimInactive, animation.View().Phase)
}
