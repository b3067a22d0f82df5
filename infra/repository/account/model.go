package account

import (
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents an account record in the database.
type Account struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Username     string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	PasswordHash string          `gorm:"type:varchar(255);not null"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,2);not null;check:balance >= 0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

func fromDomain(a *domain.Account) Account {
	return Account{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Balance:      a.Balance,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toDomain(m *Account) *domain.Account {
	return &domain.Account{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Balance:      m.Balance,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
