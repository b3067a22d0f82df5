package outbox

import (
	"context"
	"time"

	"github.com/amirasaad/walletledger/infra/repository/common"
	"github.com/amirasaad/walletledger/pkg/domain"
	repo "github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New creates an outbox repository bound to db.
func New(db *gorm.DB) repo.OutboxRepository {
	return &repository{db: db}
}

// Enqueue implements repository.OutboxRepository.
func (r *repository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	m := fromDomain(msg)
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// FetchPending implements repository.OutboxRepository.
// Rows already locked by another relay are skipped.
func (r *repository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	var rows []Message
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("published_at IS NULL").
			Order("created_at").
			Limit(limit).
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]domain.OutboxMessage, 0, len(rows))
	for i := range rows {
		out = append(out, toDomain(&rows[i]))
	}
	return out, nil
}

// MarkPublished implements repository.OutboxRepository.
func (r *repository) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&Message{}).
			Where("id IN ?", ids).
			Update("published_at", time.Now().UTC()).Error
	})
}
