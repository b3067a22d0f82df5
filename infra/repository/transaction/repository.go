package transaction

import (
	"context"

	"github.com/amirasaad/walletledger/infra/repository/common"
	"github.com/amirasaad/walletledger/pkg/domain"
	repo "github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const newestFirst = "timestamp DESC, sequence DESC"

type repository struct {
	db *gorm.DB
}

// New creates a transaction log repository bound to db.
func New(db *gorm.DB) repo.TransactionRepository {
	return &repository{db: db}
}

// Append implements repository.TransactionRepository.
func (r *repository) Append(ctx context.Context, rec *domain.TransactionRecord) error {
	m := fromDomain(rec)
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	}); err != nil {
		return err
	}
	rec.Sequence = m.Sequence
	return nil
}

// ListForAccount implements repository.TransactionRepository.
func (r *repository) ListForAccount(
	ctx context.Context,
	accountID uuid.UUID,
) ([]domain.TransactionRecord, error) {
	var rows []Transaction
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("account_id = ?", accountID).
			Order(newestFirst).
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	records := make([]domain.TransactionRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toDomain(&rows[i]))
	}
	return records, nil
}

// StreamForAccount implements repository.TransactionRepository.
func (r *repository) StreamForAccount(
	ctx context.Context,
	accountID uuid.UUID,
	fn func(domain.TransactionRecord) error,
) error {
	db := r.db.WithContext(ctx)
	rows, err := db.Model(&Transaction{}).
		Where("account_id = ?", accountID).
		Order(newestFirst).
		Rows()
	if err != nil {
		return common.MapGormErrorToDomain(err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var m Transaction
		if err := db.ScanRows(rows, &m); err != nil {
			return err
		}
		if err := fn(toDomain(&m)); err != nil {
			return err
		}
	}
	return rows.Err()
}
