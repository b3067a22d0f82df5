package repository

import (
	"context"
	"errors"
)

// ErrNoActiveUnit is returned when a repository is requested outside Do.
var ErrNoActiveUnit = errors.New("repository requested outside of a unit of work")

// UnitOfWork is the atomic-unit boundary. Every repository obtained from
// the UnitOfWork passed to fn shares one transaction; all of their writes
// become visible together when fn returns nil, and none do otherwise.
//
// Do returns errors from fn unchanged (non-domain errors are reported as
// domain.ErrStorageUnavailable). A failure while committing is reported
// as domain.ErrIndeterminate.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// Type-safe repository access, only valid inside Do.
	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
	PurchaseRepository() (PurchaseRepository, error)
	CatalogRepository() (CatalogRepository, error)
	IdempotencyRepository() (IdempotencyRepository, error)
	OutboxRepository() (OutboxRepository, error)
}
