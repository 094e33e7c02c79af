package feed

import (
	"log"
	"time"

	"gorm.io/gorm"

	"certgate/ledger"
	"certgate/models"
)

// MirrorApplier reconciles raw ledger events into the gorm-backed certificate
// mirror. Delivery is at-least-once and possibly reordered, so every write is
// expressed as an idempotent flag update keyed by ledger id.
type MirrorApplier struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMirrorApplier creates an applier over the given database handle.
func NewMirrorApplier(db *gorm.DB) *MirrorApplier {
	return &MirrorApplier{db: db, now: time.Now}
}

// Apply folds one raw event into the mirror. Events that do not touch
// certificate records are ignored.
func (a *MirrorApplier) Apply(raw ledger.RawEvent) {
	id := argInt(raw.Args, "certificateId")

	switch raw.Name {
	case ledger.EventCertificateIssued:
		if id == nil {
			return
		}
		cert := models.Certificate{
			LedgerID:       uint(*id),
			StudentAddress: argString(raw.Args, "student"),
			Institution:    argString(raw.Args, "institution"),
			CourseName:     argString(raw.Args, "courseName"),
		}
		if courseID := argInt(raw.Args, "courseId"); courseID != nil {
			cert.CourseID = uint(*courseID)
		}
		if completed := argInt(raw.Args, "completionDate"); completed != nil {
			cert.CompletionDate = *completed
		}
		if grade := argInt(raw.Args, "grade"); grade != nil {
			cert.Grade = *grade
		}
		// Redelivery of the issuance event must not duplicate the record.
		err := a.db.Where(models.Certificate{LedgerID: cert.LedgerID}).
			FirstOrCreate(&cert).Error
		if err != nil {
			log.Printf("[FEED] mirror issuance for #%d failed: %v", *id, err)
		}
	case ledger.EventCertificateVerified:
		a.update(id, map[string]any{"is_verified": true})
	case ledger.EventCertificateRevoked:
		a.update(id, map[string]any{"is_revoked": true})
	case ledger.EventCertificateStatus:
		switch argString(raw.Args, "status") {
		case "verified":
			a.update(id, map[string]any{"is_verified": true})
		case "revoked":
			a.update(id, map[string]any{"is_revoked": true})
		}
	case ledger.EventBurnRequested:
		a.update(id, map[string]any{
			"burn_requested":    true,
			"burn_approved":     false,
			"burn_reason":       argString(raw.Args, "reason"),
			"burn_request_time": a.now().UnixMilli(),
		})
	case ledger.EventBurnRequestCancelled:
		a.update(id, map[string]any{
			"burn_requested":    false,
			"burn_approved":     false,
			"burn_reason":       "",
			"burn_request_time": nil,
		})
	case ledger.EventCertificateBurned:
		// burn_approved implies burn_requested; a confirmed burn retires the
		// record from view but never deletes it.
		a.update(id, map[string]any{
			"burn_requested": true,
			"burn_approved":  true,
			"hidden":         true,
		})
	}
}

func (a *MirrorApplier) update(id *int64, fields map[string]any) {
	if id == nil {
		return
	}
	err := a.db.Model(&models.Certificate{}).
		Where("ledger_id = ?", uint(*id)).
		Updates(fields).Error
	if err != nil {
		log.Printf("[FEED] mirror update for #%d failed: %v", *id, err)
	}
}
