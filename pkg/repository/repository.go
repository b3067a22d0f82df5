package repository

import (
	"context"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the account store. It is the single source of
// truth for balances.
type AccountRepository interface {
	// Create inserts a new account. Fails with domain.ErrDuplicateUsername.
	Create(ctx context.Context, account *domain.Account) error
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// LockForUpdate takes an exclusive lock on every given account, in
	// ascending id order, and returns their current state keyed by id.
	// Fails with domain.ErrNotFound if any account is missing.
	LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error)
	// ApplyDelta adjusts the balance by delta and returns the new balance.
	// Fails with domain.ErrInsufficientFunds if the result would be negative,
	// domain.ErrNotFound if the account is gone, and domain.ErrBalanceConflict
	// if expected is set and no longer matches.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal, expected *decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository defines the append-only transaction log.
type TransactionRepository interface {
	// Append inserts rec and sets its store-assigned sequence.
	Append(ctx context.Context, rec *domain.TransactionRecord) error
	// ListForAccount returns the account's records, most recent first.
	ListForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.TransactionRecord, error)
	// StreamForAccount walks the account's records most recent first and
	// stops at the first error returned by fn.
	StreamForAccount(ctx context.Context, accountID uuid.UUID, fn func(domain.TransactionRecord) error) error
}

// PurchaseRepository records completed purchases.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	ListForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Purchase, error)
}

// CatalogRepository defines product catalog storage.
type CatalogRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
}

// IdempotencyRepository stores outcomes of keyed ledger calls.
type IdempotencyRepository interface {
	// Get returns domain.ErrNotFound when the key is unknown.
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	// Save fails with domain.ErrDuplicateRequest if the key already exists.
	Save(ctx context.Context, rec *domain.IdempotencyRecord) error
}

// OutboxRepository stores ledger events until they are relayed.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) error
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
