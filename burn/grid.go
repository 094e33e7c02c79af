package burn

import (
	"sync"

	"certgate/models"
)

// Grid composes one animation per burning certificate and owns the
// hidden-after-burn set. Hidden is sticky for the remainder of the session;
// only a fresh data load unhides anything.
type Grid struct {
	mu         sync.Mutex
	animations map[uint]*Animation
	hidden     map[uint]bool
}

// NewGrid creates an empty grid coordinator.
func NewGrid() *Grid {
	return &Grid{
		animations: make(map[uint]*Animation),
		hidden:     make(map[uint]bool),
	}
}

// Begin creates and starts the animation for a certificate. On completion
// the certificate is marked hidden and its controller released; on
// cancellation the controller is released but the certificate stays visible.
// An animation already in flight for the certificate is returned as is.
func (g *Grid) Begin(certID uint) *Animation {
	g.mu.Lock()
	if existing, ok := g.animations[certID]; ok {
		g.mu.Unlock()
		return existing
	}
	animation := NewAnimation(
		func() {
			g.mu.Lock()
			g.hidden[certID] = true
			delete(g.animations, certID)
			g.mu.Unlock()
		},
		func() {
			g.mu.Lock()
			delete(g.animations, certID)
			g.mu.Unlock()
		},
	)
	g.animations[certID] = animation
	g.mu.Unlock()

	animation.Start()
	return animation
}

// Animation returns the in-flight animation for a certificate, nil if none.
func (g *Grid) Animation(certID uint) *Animation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.animations[certID]
}

// Release drops a certificate's animation without touching the hidden set.
// Used when the external write fails and the visual state rolled back.
func (g *Grid) Release(certID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.animations, certID)
}

// IsHidden reports whether a certificate has been retired from view.
func (g *Grid) IsHidden(certID uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hidden[certID]
}

// Visible filters the upstream collection down to certificates not in the
// hidden set and not flagged hidden by ledger reconciliation.
func (g *Grid) Visible(certs []models.Certificate) []models.Certificate {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Certificate, 0, len(certs))
	for _, cert := range certs {
		if g.hidden[cert.LedgerID] || cert.Hidden {
			continue
		}
		out = append(out, cert)
	}
	return out
}
