package ledger

import "context"

// Event names emitted by the certificate registry contract.
const (
	EventCertificateIssued     = "CertificateIssued"
	EventCertificateVerified   = "CertificateVerified"
	EventCertificateRevoked    = "CertificateRevoked"
	EventCertificateStatus     = "CertificateStatusChanged"
	EventCertificateBurned     = "CertificateBurned"
	EventBurnRequested         = "BurnRequested"
	EventBurnRequestCancelled  = "BurnRequestCancelled"
	EventInstitutionAuthorized = "InstitutionAuthorized"
	EventInstitutionRevoked    = "InstitutionRevoked"
	EventCourseRegistered      = "CourseRegistered"
	EventRoleGranted           = "RoleGranted"
	EventRoleRevoked           = "RoleRevoked"
)

// KnownEvents is the fixed set of contract events the gateway subscribes to.
var KnownEvents = []string{
	EventCertificateIssued,
	EventCertificateVerified,
	EventCertificateRevoked,
	EventCertificateStatus,
	EventCertificateBurned,
	EventBurnRequested,
	EventBurnRequestCancelled,
	EventInstitutionAuthorized,
	EventInstitutionRevoked,
	EventCourseRegistered,
	EventRoleGranted,
	EventRoleRevoked,
}

// RawEvent is one event as delivered by the ledger node: a name, an untyped
// argument bag, and block metadata. Arg values are whatever the node's JSON
// decoded to; nothing downstream may assume a field is present or typed.
type RawEvent struct {
	Name        string         `json:"name"`
	Args        map[string]any `json:"args"`
	BlockNumber int64          `json:"block_number"`
	TxHash      string         `json:"tx_hash"`
}

// Block carries the block metadata the gateway needs.
type Block struct {
	Number    int64 `json:"number"`
	Timestamp int64 `json:"timestamp"` // epoch seconds
}

// Subscription is the handle returned for an installed event listener.
// Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// EventSource is the read side of the ledger node. Every method may fail at
// any time and must be treated as unreliable.
type EventSource interface {
	// Subscribe installs a listener for the named contract event.
	Subscribe(name string, handler func(RawEvent)) (Subscription, error)
	// SubscribeBlocks installs a heartbeat listener invoked with each new
	// block number.
	SubscribeBlocks(handler func(blockNumber int64)) (Subscription, error)
	// QueryFilter returns historical events for name over [fromBlock, toBlock].
	QueryFilter(ctx context.Context, name string, fromBlock, toBlock int64) ([]RawEvent, error)
	// GetBlock returns block metadata for the given number.
	GetBlock(ctx context.Context, number int64) (Block, error)
	// LatestBlock returns the current chain head number.
	LatestBlock(ctx context.Context) (int64, error)
}

// WriteSource is the privileged write side of the ledger node. Calls resolve
// once the transaction confirms, or return an error on rejection.
type WriteSource interface {
	SubmitBurnRequest(ctx context.Context, certificateID uint, reason string) error
	CancelBurnRequest(ctx context.Context, certificateID uint) error
	DirectBurn(ctx context.Context, certificateID uint, reason string) error
	// IsPrivilegedFor reports whether actor may direct-burn the certificate
	// (administrator, or the institution that issued it).
	IsPrivilegedFor(ctx context.Context, certificateID uint, actor string) (bool, error)
}
