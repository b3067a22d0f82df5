package purchase

import (
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
)

// Purchase represents a purchase record in the database.
type Purchase struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID        uuid.UUID `gorm:"type:uuid;not null;index"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Timestamp     time.Time `gorm:"not null"`
}

// TableName specifies the table name for the Purchase model.
func (Purchase) TableName() string {
	return "purchases"
}

func fromDomain(p *domain.Purchase) Purchase {
	return Purchase{
		ID:            p.ID,
		AccountID:     p.AccountID,
		ItemID:        p.ItemID,
		TransactionID: p.TransactionID,
		Timestamp:     p.Timestamp,
	}
}

func toDomain(m *Purchase) domain.Purchase {
	return domain.Purchase{
		ID:            m.ID,
		AccountID:     m.AccountID,
		ItemID:        m.ItemID,
		TransactionID: m.TransactionID,
		Timestamp:     m.Timestamp,
	}
}
