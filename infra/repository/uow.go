package repository

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/amirasaad/walletledger/infra/repository/account"
	"github.com/amirasaad/walletledger/infra/repository/catalog"
	"github.com/amirasaad/walletledger/infra/repository/idempotency"
	"github.com/amirasaad/walletledger/infra/repository/outbox"
	"github.com/amirasaad/walletledger/infra/repository/purchase"
	"github.com/amirasaad/walletledger/infra/repository/transaction"
	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories handed out inside Do are bound to the same *gorm.DB transaction.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
	logger       *slog.Logger
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB, logger *slog.Logger) *UoW {
	if logger == nil {
		logger = slog.Default()
	}
	return &UoW{
		db:     db,
		logger: logger,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			typeOf[repository.AccountRepository]():     func(db *gorm.DB) any { return account.New(db) },
			typeOf[repository.TransactionRepository](): func(db *gorm.DB) any { return transaction.New(db) },
			typeOf[repository.PurchaseRepository]():    func(db *gorm.DB) any { return purchase.New(db) },
			typeOf[repository.CatalogRepository]():     func(db *gorm.DB) any { return catalog.New(db) },
			typeOf[repository.IdempotencyRepository](): func(db *gorm.DB) any { return idempotency.New(db) },
			typeOf[repository.OutboxRepository]():      func(db *gorm.DB) any { return outbox.New(db) },
		},
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Do runs fn inside a database transaction. The transaction is rolled back
// when fn returns an error or panics, and committed otherwise.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) (err error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return domain.Wrap(domain.ErrStorageUnavailable, tx.Error)
	}

	committing := false
	defer func() {
		if r := recover(); r != nil {
			if !committing {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry, logger: u.logger}
	if err = fn(txnUow); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			u.logger.Error("rollback failed", "error", rbErr, "cause", err)
		}
		return domain.AsStorageError(err)
	}

	committing = true
	if cErr := tx.Commit().Error; cErr != nil {
		u.logger.Error("commit outcome unknown", "error", cErr)
		return domain.Wrap(domain.ErrIndeterminate, cErr)
	}
	return nil
}

// GetRepository returns a repository of the requested type bound to the
// current transaction.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	if u.tx == nil {
		return nil, repository.ErrNoActiveUnit
	}
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.tx), nil
}

func getRepository[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(typeOf[T]())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected repository type: %T", repoAny)
	}
	return repo, nil
}

// AccountRepository returns the account store bound to the transaction.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return getRepository[repository.AccountRepository](u)
}

// TransactionRepository returns the transaction log bound to the transaction.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return getRepository[repository.TransactionRepository](u)
}

// PurchaseRepository returns the purchase store bound to the transaction.
func (u *UoW) PurchaseRepository() (repository.PurchaseRepository, error) {
	return getRepository[repository.PurchaseRepository](u)
}

// CatalogRepository returns the catalog store bound to the transaction.
func (u *UoW) CatalogRepository() (repository.CatalogRepository, error) {
	return getRepository[repository.CatalogRepository](u)
}

// IdempotencyRepository returns the idempotency key store bound to the transaction.
func (u *UoW) IdempotencyRepository() (repository.IdempotencyRepository, error) {
	return getRepository[repository.IdempotencyRepository](u)
}

// OutboxRepository returns the outbox bound to the transaction.
func (u *UoW) OutboxRepository() (repository.OutboxRepository, error) {
	return getRepository[repository.OutboxRepository](u)
}
