package account

import (
	"context"
	"time"

	"github.com/amirasaad/walletledger/infra/repository/common"
	"github.com/amirasaad/walletledger/pkg/domain"
	repo "github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New creates an account repository bound to db, which is expected to be
// the transaction of the current unit of work.
func New(db *gorm.DB) repo.AccountRepository {
	return &repository{db: db}
}

// Create implements repository.AccountRepository.
func (r *repository) Create(ctx context.Context, a *domain.Account) error {
	m := fromDomain(a)
	return common.WrapConflict(domain.ErrDuplicateUsername, func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// GetByUsername implements repository.AccountRepository.
func (r *repository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var m Account
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "username = ?", username).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// GetByID implements repository.AccountRepository.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var m Account
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// LockForUpdate implements repository.AccountRepository.
// Rows are locked one at a time in ascending id order so that two units of
// work locking the same pair always queue in the same order.
func (r *repository) LockForUpdate(
	ctx context.Context,
	ids ...uuid.UUID,
) (map[uuid.UUID]*domain.Account, error) {
	locked := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range domain.LockOrder(ids...) {
		var m Account
		if err := common.WrapError(func() error {
			return r.db.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&m, "id = ?", id).Error
		}); err != nil {
			return nil, err
		}
		locked[id] = toDomain(&m)
	}
	return locked, nil
}

// ApplyDelta implements repository.AccountRepository.
func (r *repository) ApplyDelta(
	ctx context.Context,
	id uuid.UUID,
	delta decimal.Decimal,
	expected *decimal.Decimal,
) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Where("balance + ? >= 0", delta)
	if expected != nil {
		q = q.Where("balance = ?", *expected)
	}
	res := q.Updates(map[string]any{
		"balance":    gorm.Expr("balance + ?", delta),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return decimal.Zero, common.MapGormErrorToDomain(res.Error)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if res.RowsAffected == 0 {
		if current.Balance.Add(delta).IsNegative() {
			return decimal.Zero, domain.ErrInsufficientFunds
		}
		return decimal.Zero, domain.ErrBalanceConflict
	}
	return current.Balance, nil
}
