package models

// Activity categories used by the feed filter.
const (
	CategoryCertificates = "certificates"
	CategoryInstitutions = "institutions"
	CategorySystem       = "system"
)

// Activity display priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Activity is a normalized, displayable record derived from one ledger event.
// Immutable once created. Identity is (TxHash, BlockNumber, Seq): the local
// sequence keeps redelivered copies of the same logical event distinguishable.
type Activity struct {
	Seq         uint64         `json:"seq"`
	Category    string         `json:"category"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	Priority    string         `json:"priority"`
	BlockNumber int64          `json:"block_number"`
	TxHash      string         `json:"tx_hash"`
	Timestamp   int64          `json:"timestamp"` // epoch ms
}
