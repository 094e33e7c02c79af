package models

// Burn workflow states for a single certificate. Transient, never persisted.
const (
	BurnIdle       = "idle"
	BurnValidating = "validating"
	BurnSubmitting = "submitting"
	BurnAwaiting   = "awaiting-settlement"
	BurnSucceeded  = "succeeded"
	BurnFailed     = "failed"
	BurnCancelled  = "cancelled"
)

// BurnWorkflowView is the UI-facing snapshot of one certificate's burn
// workflow.
type BurnWorkflowView struct {
	CertificateID   uint   `json:"certificate_id"`
	State           string `json:"state"`
	Reason          string `json:"reason"`
	ValidationError string `json:"validation_error,omitempty"`
	RemainingChars  int    `json:"remaining_chars"`
	Timelock        string `json:"timelock"`
	DirectBurn      bool   `json:"direct_burn"`
	LastError       string `json:"last_error,omitempty"`
}

// Burn animation phases.
const (
	AnimInactive = "inactive"
	AnimBurning  = "burning"
	AnimDone     = "completed"
)

// BurnAnimationView is the UI-facing snapshot of one certificate's burn
// animation.
type BurnAnimationView struct {
	Phase    string  `json:"phase"`
	Progress float64 `json:"progress"`
	Settled  bool    `json:"settled"`
	Fading   bool    `json:"fading"`
}
