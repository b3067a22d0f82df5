package catalog

import (
	"context"
	"errors"

	"github.com/amirasaad/walletledger/infra/repository/common"
	"github.com/amirasaad/walletledger/pkg/domain"
	repo "github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a catalog repository bound to db.
func New(db *gorm.DB) repo.CatalogRepository {
	return &repository{db: db}
}

// Create implements repository.CatalogRepository.
func (r *repository) Create(ctx context.Context, item *domain.Item) error {
	m := fromDomain(item)
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Get implements repository.CatalogRepository.
// A missing product is reported as domain.ErrItemNotFound.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var m Product
	err := common.WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	item := toDomain(&m)
	return &item, nil
}

// List implements repository.CatalogRepository.
func (r *repository) List(ctx context.Context) ([]domain.Item, error) {
	var rows []Product
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).Order("created_at").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	items := make([]domain.Item, 0, len(rows))
	for i := range rows {
		items = append(items, toDomain(&rows[i]))
	}
	return items, nil
}
