package idempotency

import (
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Key is the stored outcome of a keyed ledger call.
type Key struct {
	Key         string          `gorm:"type:varchar(128);primaryKey"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Operation   string          `gorm:"type:varchar(16);not null"`
	Fingerprint string          `gorm:"type:char(64);not null;default:''"`
	Balance     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PurchaseID  uuid.UUID       `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// TableName specifies the table name for the Key model.
func (Key) TableName() string {
	return "idempotency_keys"
}

func fromDomain(r *domain.IdempotencyRecord) Key {
	return Key{
		Key:         r.Key,
		AccountID:   r.AccountID,
		Operation:   string(r.Operation),
		Fingerprint: r.Fingerprint,
		Balance:     r.Balance,
		PurchaseID:  r.PurchaseID,
		CreatedAt:   r.CreatedAt,
	}
}

func toDomain(m *Key) *domain.IdempotencyRecord {
	return &domain.IdempotencyRecord{
		Key:         m.Key,
		AccountID:   m.AccountID,
		Operation:   domain.Operation(m.Operation),
		Fingerprint: m.Fingerprint,
		Balance:     m.Balance,
		PurchaseID:  m.PurchaseID,
		CreatedAt:   m.CreatedAt,
	}
}
