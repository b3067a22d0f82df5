package purchase

import (
	"context"

	"github.com/amirasaad/walletledger/infra/repository/common"
	"github.com/amirasaad/walletledger/pkg/domain"
	repo "github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a purchase repository bound to db.
func New(db *gorm.DB) repo.PurchaseRepository {
	return &repository{db: db}
}

// Create implements repository.PurchaseRepository.
func (r *repository) Create(ctx context.Context, p *domain.Purchase) error {
	m := fromDomain(p)
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// ListForAccount implements repository.PurchaseRepository.
func (r *repository) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Purchase, error) {
	var rows []Purchase
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("account_id = ?", accountID).
			Order("timestamp DESC").
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]domain.Purchase, 0, len(rows))
	for i := range rows {
		out = append(out, toDomain(&rows[i]))
	}
	return out, nil
}
