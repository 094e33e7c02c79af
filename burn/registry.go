package burn

import (
	"sync"

	"gorm.io/gorm"

	"certgate/ledger"
	"certgate/notify"
)

// Registry hands out the single workflow controller per certificate and
// wires it to the grid's animation lifecycle. Per-certificate transient
// state is exclusively owned by that controller; reopening a workflow for a
// certificate returns the existing instance, so the reentrancy guard in
// Governance still applies.
type Registry struct {
	mu    sync.Mutex
	flows map[uint]*Governance

	writes          ledger.WriteSource
	db              *gorm.DB
	notifier        *notify.Center
	grid            *Grid
	timelockSeconds int64
}

// NewRegistry creates a workflow registry over the shared collaborators.
func NewRegistry(writes ledger.WriteSource, db *gorm.DB, notifier *notify.Center, grid *Grid, timelockSeconds int64) *Registry {
	return &Registry{
		flows:           make(map[uint]*Governance),
		writes:          writes,
		db:              db,
		notifier:        notifier,
		grid:            grid,
		timelockSeconds: timelockSeconds,
	}
}

// Flow returns the workflow controller for a certificate, creating and
// wiring it on first use.
func (r *Registry) Flow(certID uint) *Governance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if flow, ok := r.flows[certID]; ok {
		return flow
	}

	flow := NewGovernance(certID, r.writes, r.db, r.notifier, r.timelockSeconds)
	flow.SetHooks(
		func() {
			r.grid.Begin(certID).Drive()
		},
		nil,
		func(err error) {
			animation := r.grid.Animation(certID)
			if animation == nil {
				return
			}
			if err != nil {
				animation.Rollback()
				r.grid.Release(certID)
				return
			}
			animation.Settle()
		},
	)
	r.flows[certID] = flow
	return flow
}

// Grid exposes the grid coordinator backing this registry.
func (r *Registry) Grid() *Grid {
	return r.grid
}

// TimelockSeconds returns the configured burn request timelock.
func (r *Registry) TimelockSeconds() int64 {
	return r.timelockSeconds
}
