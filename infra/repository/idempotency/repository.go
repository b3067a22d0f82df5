package idempotency

import (
	"context"

	"github.com/amirasaad/walletledger/infra/repository/common"
	"github.com/amirasaad/walletledger/pkg/domain"
	repo "github.com/amirasaad/walletledger/pkg/repository"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates an idempotency key repository bound to db.
func New(db *gorm.DB) repo.IdempotencyRepository {
	return &repository{db: db}
}

// Get implements repository.IdempotencyRepository.
func (r *repository) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	var m Key
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "key = ?", key).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// Save implements repository.IdempotencyRepository.
func (r *repository) Save(ctx context.Context, rec *domain.IdempotencyRecord) error {
	m := fromDomain(rec)
	return common.WrapConflict(domain.ErrDuplicateRequest, func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}
