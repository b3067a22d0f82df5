// Package catalog manages the products that wallets can buy.
package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service provides catalog operations.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a new catalog service.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uow: uow, logger: logger.With("service", "catalog")}
}

// AddItem validates and stores a new product.
func (s *Service) AddItem(
	ctx context.Context,
	name string,
	price decimal.Decimal,
	description string,
) (*domain.Item, error) {
	log := s.logger.With("name", name, "price", price.String())
	item, err := domain.NewItem(name, price, description)
	if err != nil {
		log.Warn("product rejected", "error", err)
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CatalogRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, item)
	})
	if err != nil {
		log.Error("failed to add product", "error", err)
		return nil, err
	}
	log.Info("product added", "item_id", item.ID)
	return item, nil
}

// ListItems returns every product, oldest first.
func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CatalogRepository()
		if err != nil {
			return err
		}
		items, err = repo.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// GetItem returns the price of an item and whether it exists.
func (s *Service) GetItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, bool, error) {
	var item *domain.Item
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CatalogRepository()
		if err != nil {
			return err
		}
		item, err = repo.Get(ctx, itemID)
		return err
	})
	if errors.Is(err, domain.ErrItemNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return item.Price, true, nil
}
