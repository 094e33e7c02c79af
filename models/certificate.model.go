package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxBurnReasonLength is the hard cap on the user-entered burn reason.
const MaxBurnReasonLength = 200

// Certificate mirrors a certificate record held on the ledger. The mirror is
// session-scoped: records are reconciled from ledger events, never deleted,
// only flagged. Hidden marks a certificate retired from view after a confirmed
// burn.
type Certificate struct {
	gorm.Model
	LedgerID       uint   `json:"ledger_id" gorm:"uniqueIndex;not null"`
	StudentAddress string `json:"student_address" gorm:"index"`
	Institution    string `json:"institution_address" gorm:"index"`
	CourseID       uint   `json:"course_id"`
	CourseName     string `json:"course_name"`
	CompletionDate int64  `json:"completion_date"` // epoch ms
	Grade          int64  `json:"grade"`

	IsVerified    bool   `json:"is_verified" gorm:"default:false"`
	IsRevoked     bool   `json:"is_revoked" gorm:"default:false"`
	BurnRequested bool   `json:"burn_requested" gorm:"default:false"`
	BurnApproved  bool   `json:"burn_approved" gorm:"default:false"`
	BurnReason    string `json:"burn_reason"`
	// BurnRequestTime is epoch ms; nil while no request is pending.
	BurnRequestTime *int64 `json:"burn_request_time"`

	Hidden bool `json:"hidden" gorm:"default:false"`
}

// RequestBurn records an optimistic local burn request. Callers must have
// checked IsRevoked beforehand; revoked certificates cannot enter the request
// path.
func (c *Certificate) RequestBurn(reason string, at time.Time) {
	ms := at.UnixMilli()
	c.BurnRequested = true
	c.BurnApproved = false
	c.BurnReason = reason
	c.BurnRequestTime = &ms
}

// ClearBurnRequest rolls the record back to the no-request state.
func (c *Certificate) ClearBurnRequest() {
	c.BurnRequested = false
	c.BurnApproved = false
	c.BurnReason = ""
	c.BurnRequestTime = nil
}
