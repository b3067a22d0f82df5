package transaction

import (
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents one transaction log entry in the database.
// Rows are inserted once and never updated.
type Transaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Sequence         int64           `gorm:"autoIncrement;uniqueIndex;not null"`
	AccountID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_account_timestamp,priority:1"`
	Kind             string          `gorm:"type:varchar(8);not null"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null;check:amount > 0"`
	ResultingBalance decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Timestamp        time.Time       `gorm:"not null;index:idx_transactions_account_timestamp,priority:2"`
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

func fromDomain(rec *domain.TransactionRecord) Transaction {
	return Transaction{
		ID:               rec.ID,
		AccountID:        rec.AccountID,
		Kind:             string(rec.Kind),
		Amount:           rec.Amount,
		ResultingBalance: rec.ResultingBalance,
		Timestamp:        rec.Timestamp,
	}
}

func toDomain(m *Transaction) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:               m.ID,
		AccountID:        m.AccountID,
		Kind:             domain.EntryKind(m.Kind),
		Amount:           m.Amount,
		ResultingBalance: m.ResultingBalance,
		Timestamp:        m.Timestamp,
		Sequence:         m.Sequence,
	}
}
