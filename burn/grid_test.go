package burn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/models"
)

func finish(animation *Animation) {
	animation.Settle()
	animation.Advance(time.Hour)
}

func TestGridHidesOnCompletion(t *testing.T) {
	grid := NewGrid()

	animation := grid.Begin(7)
	require.NotNil(t, grid.Animation(7))
	assert.False(t, grid.IsHidden(7))

	finish(animation)

	assert.True(t, grid.IsHidden(7))
	assert.Nil(t, grid.Animation(7), "completed controller is released")

	// Driving the finished animation again must not hide twice or panic.
	animation.Advance(2 * time.Hour)
	assert.True(t, grid.IsHidden(7))
}

func TestGridCancellationLeavesVisible(t *testing.T) {
	grid := NewGrid()

	animation := grid.Begin(7)
	animation.Advance(2 * time.Second)
	animation.Cancel()

	assert.False(t, grid.IsHidden(7))
	assert.Nil(t, grid.Animation(7), "cancelled controller is released")
}

func TestGridBeginReturnsInFlightAnimation(t *testing.T) {
	grid := NewGrid()

	first := grid.Begin(7)
	second := grid.Begin(7)
	assert.Same(t, first, second)
}

func TestGridHiddenIsSticky(t *testing.T) {
	grid := NewGrid()
	finish(grid.Begin(7))
	require.True(t, grid.IsHidden(7))

	// A fresh animation lifecycle does not resurrect a hidden certificate.
	finish(grid.Begin(7))
	assert.True(t, grid.IsHidden(7))
}

func TestGridVisibleFiltersHidden(t *testing.T) {
	grid := NewGrid()
	certs := []models.Certificate{
		{LedgerID: 1},
		{LedgerID: 2},
		{LedgerID: 3, Hidden: true}, // hidden by ledger reconciliation
	}

	finish(grid.Begin(2))

	visible := grid.Visible(certs)
	require.Len(t, visible, 1)
	assert.Equal(t, uint(1), visible[0].LedgerID)
}

func TestRegistryReturnsOneFlowPerCertificate(t *testing.T) {
	writes := newFakeWrites()
	grid := NewGrid()
	registry := NewRegistry(writes, nil, testCenter(), grid, 86400)

	assert.Same(t, registry.Flow(7), registry.Flow(7))
	assert.NotSame(t, registry.Flow(7), registry.Flow(8))
}

func TestRegistryDirectBurnPipeline(t *testing.T) {
	writes := newFakeWrites()
	writes.privileged = true
	db := governanceDB(t, models.Certificate{LedgerID: 7})
	grid := NewGrid()
	registry := NewRegistry(writes, db, testCenter(), grid, 86400)

	flow := registry.Flow(7)
	_, err := flow.SetReason("Issued to the wrong student")
	require.NoError(t, err)
	require.NoError(t, flow.Submit(context.Background(), "0xadmin"))

	// Animation started before the write resolved, capped below the ceiling.
	<-writes.directCalled
	animation := grid.Animation(7)
	require.NotNil(t, animation)
	assert.Equal(t, models.AnimBurning, animation.View().Phase)
	assert.LessOrEqual(t, animation.View().Progress, unsettledCap)
	assert.False(t, grid.IsHidden(7))

	writes.directRelease <- nil
	waitForState(t, flow, models.BurnSucceeded)

	// Settlement accelerates the driven animation to completion, which
	// retires the certificate from view exactly once.
	require.Eventually(t, func() bool {
		return grid.IsHidden(7)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Nil(t, grid.Animation(7))
}

func TestRegistryDirectBurnFailureRollsBackAnimation(t *testing.T) {
	writes := newFakeWrites()
	writes.privileged = true
	writes.privErr = nil
	db := governanceDB(t, models.Certificate{LedgerID: 9})
	grid := NewGrid()
	registry := NewRegistry(writes, db, testCenter(), grid, 86400)

	flow := registry.Flow(9)
	_, err := flow.SetReason("Mistaken issuance")
	require.NoError(t, err)
	require.NoError(t, flow.Submit(context.Background(), "0xadmin"))
	<-writes.directCalled
	require.NotNil(t, grid.Animation(9))

	writes.directRelease <- assert.AnError
	waitForState(t, flow, models.BurnFailed)

	require.Eventually(t, func() bool {
		return grid.Animation(9) == nil
	}, time.Second, 10*time.Millisecond, "failed burn releases the controller")
	assert.False(t, grid.IsHidden(9), "failed burn leaves the certificate visible")
}
