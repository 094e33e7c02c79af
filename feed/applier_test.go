package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"certgate/ledger"
	"certgate/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Certificate{}))
	return db
}

func loadCert(t *testing.T, db *gorm.DB, ledgerID uint) models.Certificate {
	t.Helper()
	var cert models.Certificate
	require.NoError(t, db.Where("ledger_id = ?", ledgerID).First(&cert).Error)
	return cert
}

func TestApplyIssuanceCreatesOnce(t *testing.T) {
	db := testDB(t)
	applier := NewMirrorApplier(db)

	raw := ledger.RawEvent{
		Name: ledger.EventCertificateIssued,
		Args: map[string]any{
			"certificateId":  float64(42),
			"student":        "0xstudent",
			"institution":    "0xinst",
			"courseId":       float64(3),
			"courseName":     "Distributed Systems",
			"completionDate": float64(1700000000000),
			"grade":          float64(91),
		},
		BlockNumber: 10,
		TxHash:      "0xhash",
	}

	applier.Apply(raw)
	// At-least-once delivery: a redelivered issuance must not duplicate.
	applier.Apply(raw)

	var count int64
	db.Model(&models.Certificate{}).Where("ledger_id = ?", 42).Count(&count)
	assert.Equal(t, int64(1), count)

	cert := loadCert(t, db, 42)
	assert.Equal(t, "0xstudent", cert.StudentAddress)
	assert.Equal(t, int64(91), cert.Grade)
	assert.False(t, cert.Hidden)
}

func TestApplyFlagEvents(t *testing.T) {
	db := testDB(t)
	applier := NewMirrorApplier(db)
	require.NoError(t, db.Create(&models.Certificate{LedgerID: 7}).Error)

	applier.Apply(ledger.RawEvent{
		Name: ledger.EventCertificateVerified,
		Args: map[string]any{"certificateId": float64(7)},
	})
	assert.True(t, loadCert(t, db, 7).IsVerified)

	applier.Apply(ledger.RawEvent{
		Name: ledger.EventBurnRequested,
		Args: map[string]any{"certificateId": float64(7), "reason": "issued in error"},
	})
	cert := loadCert(t, db, 7)
	assert.True(t, cert.BurnRequested)
	assert.False(t, cert.BurnApproved)
	require.NotNil(t, cert.BurnRequestTime)
	assert.Equal(t, "issued in error", cert.BurnReason)

	applier.Apply(ledger.RawEvent{
		Name: ledger.EventBurnRequestCancelled,
		Args: map[string]any{"certificateId": float64(7)},
	})
	cert = loadCert(t, db, 7)
	assert.False(t, cert.BurnRequested)
	assert.Nil(t, cert.BurnRequestTime)
}

func TestApplyBurnedRetiresRecord(t *testing.T) {
	db := testDB(t)
	applier := NewMirrorApplier(db)
	require.NoError(t, db.Create(&models.Certificate{LedgerID: 9}).Error)

	applier.Apply(ledger.RawEvent{
		Name: ledger.EventCertificateBurned,
		Args: map[string]any{"certificateId": float64(9)},
	})

	cert := loadCert(t, db, 9)
	assert.True(t, cert.Hidden, "burned record is hidden, never deleted")
	assert.True(t, cert.BurnApproved)
	assert.True(t, cert.BurnRequested, "burnApproved implies burnRequested")
}

func TestApplyIgnoresEventsWithoutCertificateID(t *testing.T) {
	db := testDB(t)
	applier := NewMirrorApplier(db)

	assert.NotPanics(t, func() {
		applier.Apply(ledger.RawEvent{Name: ledger.EventCertificateVerified, Args: nil})
		applier.Apply(ledger.RawEvent{Name: ledger.EventRoleGranted, Args: map[string]any{"role": "ADMIN"}})
	})
}
