package burn

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"certgate/ledger"
	"certgate/models"
	"certgate/notify"
)

// Validation messages surfaced inline at the workflow level.
const (
	MsgReasonRequired = "Please provide a reason for burn"
	MsgReasonTooLong  = "Reason must be at most 200 characters"
)

var (
	// ErrSubmitInFlight rejects a duplicate submit while one is already in
	// flight; a second ledger transaction for one user intent must never be
	// created.
	ErrSubmitInFlight = errors.New("burn submission already in flight")
	// ErrInvalidReason rejects submission while the entered reason fails
	// validation.
	ErrInvalidReason = errors.New("burn reason is invalid")
	// ErrRevokedCertificate rejects the request path for revoked
	// certificates. Direct burn by a privileged actor remains possible.
	ErrRevokedCertificate = errors.New("revoked certificates cannot be burn-requested")
	// ErrNoCancellableRequest rejects cancellation when no pending,
	// unapproved burn request exists.
	ErrNoCancellableRequest = errors.New("no cancellable burn request")
)

// Governance is the burn workflow state machine for a single certificate.
// Exactly one instance owns a certificate's transient workflow state.
type Governance struct {
	mu            sync.Mutex
	certID        uint
	state         string
	reason        string
	validationErr string
	lastErr       string
	direct        bool

	writes          ledger.WriteSource
	db              *gorm.DB
	notifier        *notify.Center
	timelockSeconds int64

	onAnimationStart func()
	onDismiss        func()
	onSettled        func(err error)

	now func() time.Time
}

// NewGovernance creates an idle workflow for the given certificate.
func NewGovernance(certID uint, writes ledger.WriteSource, db *gorm.DB, notifier *notify.Center, timelockSeconds int64) *Governance {
	return &Governance{
		certID:          certID,
		state:           models.BurnIdle,
		writes:          writes,
		db:              db,
		notifier:        notifier,
		timelockSeconds: timelockSeconds,
		now:             time.Now,
	}
}

// SetHooks wires the presentation-side callbacks. onAnimationStart and
// onDismiss fire before a direct burn's write is awaited; onSettled fires
// with the direct burn's outcome.
func (g *Governance) SetHooks(onAnimationStart, onDismiss func(), onSettled func(error)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onAnimationStart = onAnimationStart
	g.onDismiss = onDismiss
	g.onSettled = onSettled
}

// validateReason returns the inline validation message, empty when valid.
// The cap counts characters, not bytes; multi-byte text is measured in runes.
func validateReason(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return MsgReasonRequired
	}
	if utf8.RuneCountInString(reason) > models.MaxBurnReasonLength {
		return MsgReasonTooLong
	}
	return ""
}

// SetReason records the entered reason text and validates it. Invalid text
// blocks submission but is never discarded. Returns the validation message,
// empty when the reason is valid. Reason changes are rejected while a
// submission is in flight.
func (g *Governance) SetReason(text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == models.BurnSubmitting || g.state == models.BurnAwaiting {
		return g.validationErr, ErrSubmitInFlight
	}
	g.reason = text
	g.validationErr = validateReason(text)
	g.state = models.BurnValidating
	return g.validationErr, nil
}

// Submit initiates the burn. A privileged actor takes the direct path: the
// animation-start and dismiss hooks fire before the write is awaited so the
// user gets immediate visual feedback. Everyone else takes the timelocked
// request path. The external write is dispatched asynchronously; the
// workflow transitions submitting -> awaiting-settlement -> succeeded/failed.
func (g *Governance) Submit(ctx context.Context, actor string) error {
	g.mu.Lock()
	if g.state == models.BurnSubmitting || g.state == models.BurnAwaiting {
		g.mu.Unlock()
		return ErrSubmitInFlight
	}
	if msg := validateReason(g.reason); msg != "" {
		g.validationErr = msg
		g.state = models.BurnValidating
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidReason, msg)
	}
	g.validationErr = ""
	g.lastErr = ""
	g.state = models.BurnSubmitting
	reason := g.reason
	g.mu.Unlock()

	privileged, err := g.writes.IsPrivilegedFor(ctx, g.certID, actor)
	if err != nil {
		// An unreachable privilege check downgrades to the request path.
		log.Printf("[BURN] privilege check for #%d failed: %v", g.certID, err)
		privileged = false
	}

	if !privileged && g.loadCert().IsRevoked {
		g.mu.Lock()
		g.state = models.BurnFailed
		g.lastErr = ErrRevokedCertificate.Error()
		g.mu.Unlock()
		if g.notifier != nil {
			g.notifier.Error("This certificate is revoked and cannot be burn-requested")
		}
		return ErrRevokedCertificate
	}

	g.mu.Lock()
	g.direct = privileged
	animStart := g.onAnimationStart
	dismiss := g.onDismiss
	g.mu.Unlock()

	if privileged {
		// Visual feedback and workflow dismissal come first; the write is
		// still in flight.
		if animStart != nil {
			animStart()
		}
		if dismiss != nil {
			dismiss()
		}
	}

	go g.dispatch(reason, privileged)
	return nil
}

func (g *Governance) dispatch(reason string, direct bool) {
	g.mu.Lock()
	g.state = models.BurnAwaiting
	g.mu.Unlock()

	ctx := context.Background()
	var err error
	if direct {
		err = g.writes.DirectBurn(ctx, g.certID, reason)
	} else {
		// Optimistic local transition, rolled back below on failure.
		g.mutateCert(func(cert *models.Certificate) {
			cert.RequestBurn(reason, g.now())
		})
		err = g.writes.SubmitBurnRequest(ctx, g.certID, reason)
	}

	g.mu.Lock()
	if err != nil {
		// Reason text survives so the user can retry without retyping.
		g.state = models.BurnFailed
		g.lastErr = err.Error()
	} else {
		g.state = models.BurnSucceeded
	}
	settled := g.onSettled
	g.mu.Unlock()

	if err != nil {
		if !direct {
			g.mutateCert(func(cert *models.Certificate) {
				cert.ClearBurnRequest()
			})
		}
		if g.notifier != nil {
			if direct {
				g.notifier.Error(fmt.Sprintf("Failed to burn certificate #%d: %v", g.certID, err))
			} else {
				g.notifier.Error(fmt.Sprintf("Failed to submit burn request for certificate #%d: %v", g.certID, err))
			}
		}
	} else if g.notifier != nil {
		if direct {
			g.notifier.Success(fmt.Sprintf("Certificate #%d burned", g.certID))
		} else {
			g.notifier.Success(fmt.Sprintf("Burn request submitted for certificate #%d", g.certID))
		}
	}

	if direct && settled != nil {
		settled(err)
	}
}

// CancelRequest withdraws a pending burn request. Only valid while the
// mirror shows burnRequested and not burnApproved; direct burns in flight
// cannot be cancelled.
func (g *Governance) CancelRequest(ctx context.Context) error {
	g.mu.Lock()
	if g.state == models.BurnSubmitting || g.state == models.BurnAwaiting {
		g.mu.Unlock()
		return ErrSubmitInFlight
	}
	g.mu.Unlock()

	cert := g.loadCert()
	if !cert.BurnRequested || cert.BurnApproved {
		return ErrNoCancellableRequest
	}

	if err := g.writes.CancelBurnRequest(ctx, g.certID); err != nil {
		g.mu.Lock()
		g.lastErr = err.Error()
		g.mu.Unlock()
		if g.notifier != nil {
			g.notifier.Error(fmt.Sprintf("Failed to cancel burn request for certificate #%d: %v", g.certID, err))
		}
		return err
	}

	g.mutateCert(func(cert *models.Certificate) {
		cert.ClearBurnRequest()
	})

	g.mu.Lock()
	g.state = models.BurnCancelled
	g.reason = ""
	g.validationErr = ""
	g.mu.Unlock()
	if g.notifier != nil {
		g.notifier.Success(fmt.Sprintf("Burn request for certificate #%d cancelled", g.certID))
	}
	return nil
}

// Reset returns the workflow to idle. Invoked explicitly by the presentation
// layer when the workflow UI closes; a submission in flight is not
// interruptible and rejects the reset.
func (g *Governance) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == models.BurnSubmitting || g.state == models.BurnAwaiting {
		return ErrSubmitInFlight
	}
	g.state = models.BurnIdle
	g.reason = ""
	g.validationErr = ""
	g.lastErr = ""
	g.direct = false
	return nil
}

// State returns the current workflow state.
func (g *Governance) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// View returns the UI-facing snapshot of the workflow.
func (g *Governance) View() models.BurnWorkflowView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.BurnWorkflowView{
		CertificateID:   g.certID,
		State:           g.state,
		Reason:          g.reason,
		ValidationError: g.validationErr,
		RemainingChars:  models.MaxBurnReasonLength - utf8.RuneCountInString(g.reason),
		Timelock:        FormatTimelock(g.timelockSeconds),
		DirectBurn:      g.direct,
		LastError:       g.lastErr,
	}
}

func (g *Governance) loadCert() models.Certificate {
	var cert models.Certificate
	if g.db != nil {
		g.db.Where("ledger_id = ?", g.certID).First(&cert)
	}
	return cert
}

// mutateCert applies an optimistic local transition to the mirrored record.
func (g *Governance) mutateCert(mutate func(*models.Certificate)) {
	if g.db == nil {
		return
	}
	var cert models.Certificate
	if err := g.db.Where("ledger_id = ?", g.certID).First(&cert).Error; err != nil {
		log.Printf("[BURN] mirror load for #%d failed: %v", g.certID, err)
		return
	}
	mutate(&cert)
	if err := g.db.Save(&cert).Error; err != nil {
		log.Printf("[BURN] mirror update for #%d failed: %v", g.certID, err)
	}
}

// FormatTimelock renders a timelock duration in seconds as a human-readable
// days/hours/minutes breakdown. Zero is "Immediate".
func FormatTimelock(seconds int64) string {
	if seconds <= 0 {
		return "Immediate"
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if len(parts) == 0 {
		return "Less than a minute"
	}
	return strings.Join(parts, " ")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
