// Package ledger is the only writer of balances and transaction records.
//
// Every mutating operation runs as one atomic unit: the affected accounts
// are locked in ascending id order, preconditions are re-checked against
// the locked state, and the balance changes, log entries, purchase record
// and outbox event are committed together or not at all.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/domain/events"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog supplies item prices for purchases.
type Catalog interface {
	GetItem(ctx context.Context, itemID uuid.UUID) (price decimal.Decimal, exists bool, err error)
}

// Receipt is the result of a committed (or replayed) mutation.
type Receipt struct {
	Balance    decimal.Decimal `json:"balance"`
	PurchaseID uuid.UUID       `json:"purchase_id,omitempty"`
	// Replayed is set when the result was served from a stored idempotency key.
	Replayed bool `json:"-"`
}

// Reconciliation compares an account's stored balance with the replay of its log.
type Reconciliation struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Balance    decimal.Decimal `json:"balance"`
	Replayed   decimal.Decimal `json:"replayed"`
	Records    int             `json:"records"`
	Consistent bool            `json:"consistent"`
}

// Engine executes credit, transfer and purchase operations.
type Engine struct {
	uow       repository.UnitOfWork
	catalog   Catalog
	logger    *slog.Logger
	timeout   time.Duration
	maxAmount decimal.Decimal
	tracker   *IdempotencyTracker
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithOperationTimeout bounds how long one atomic unit may run, lock
// waits included.
func WithOperationTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMaxAmount rejects single movements above max. Zero disables the limit.
func WithMaxAmount(max decimal.Decimal) Option {
	return func(e *Engine) { e.maxAmount = max }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a ledger engine.
func New(uow repository.UnitOfWork, catalog Catalog, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		uow:     uow,
		catalog: catalog,
		logger:  logger.With("service", "ledger"),
		tracker: NewIdempotencyTracker(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CallOption configures a single engine call.
type CallOption func(*callOptions)

type callOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey makes the call safe to retry: a repeated call with the
// same key returns the first call's receipt without moving funds again.
func WithIdempotencyKey(key string) CallOption {
	return func(o *callOptions) { o.idempotencyKey = strings.TrimSpace(key) }
}

// Credit adds amount to the account and records a credit entry.
func (e *Engine) Credit(
	ctx context.Context,
	accountID uuid.UUID,
	amount decimal.Decimal,
	opts ...CallOption,
) (Receipt, error) {
	log := e.logger.With("operation", domain.OperationCredit, "account_id", accountID, "amount", amount.String())
	if err := domain.ValidateAmount(amount, e.maxAmount); err != nil {
		log.Warn("credit rejected", "error", err)
		return Receipt{}, err
	}

	receipt, err := e.execute(ctx, domain.OperationCredit, accountID,
		domain.RequestFingerprint(domain.OperationCredit, amount.StringFixed(domain.AmountScale)), opts,
		func(ctx context.Context, u *unit) (Receipt, error) {
			locked, err := u.accounts.LockForUpdate(ctx, accountID)
			if err != nil {
				return Receipt{}, err
			}
			rec, err := e.post(ctx, u, locked[accountID], domain.EntryCredit, amount)
			if err != nil {
				return Receipt{}, err
			}
			if err := u.publish(ctx, events.EventTypeCredited, accountID, events.CreditedEvent{
				AccountID:     accountID,
				TransactionID: rec.ID,
				Amount:        amount,
				Balance:       rec.ResultingBalance,
				Timestamp:     rec.Timestamp,
			}); err != nil {
				return Receipt{}, err
			}
			return Receipt{Balance: rec.ResultingBalance}, nil
		})
	logOutcome(log, "credit", receipt, err)
	return receipt, err
}

// Transfer moves amount from the sender to the account named recipientUsername.
// Preconditions are checked in order: amount, recipient existence, self
// transfer, and sender funds. It returns the sender's new balance.
func (e *Engine) Transfer(
	ctx context.Context,
	senderID uuid.UUID,
	recipientUsername string,
	amount decimal.Decimal,
	opts ...CallOption,
) (Receipt, error) {
	recipientUsername = strings.TrimSpace(recipientUsername)
	log := e.logger.With(
		"operation", domain.OperationTransfer,
		"account_id", senderID,
		"recipient", recipientUsername,
		"amount", amount.String(),
	)
	if err := domain.ValidateAmount(amount, e.maxAmount); err != nil {
		log.Warn("transfer rejected", "error", err)
		return Receipt{}, err
	}

	receipt, err := e.execute(ctx, domain.OperationTransfer, senderID,
		domain.RequestFingerprint(domain.OperationTransfer, recipientUsername, amount.StringFixed(domain.AmountScale)), opts,
		func(ctx context.Context, u *unit) (Receipt, error) {
			recipient, err := u.accounts.GetByUsername(ctx, recipientUsername)
			if errors.Is(err, domain.ErrNotFound) {
				return Receipt{}, domain.ErrRecipientNotFound
			}
			if err != nil {
				return Receipt{}, err
			}
			if recipient.ID == senderID {
				return Receipt{}, domain.ErrSelfTransferForbidden
			}

			locked, err := u.accounts.LockForUpdate(ctx, senderID, recipient.ID)
			if err != nil {
				return Receipt{}, err
			}
			sender := locked[senderID]
			if !sender.CanDebit(amount) {
				return Receipt{}, domain.ErrInsufficientFunds
			}

			debit, err := e.post(ctx, u, sender, domain.EntryDebit, amount)
			if err != nil {
				return Receipt{}, err
			}
			credit, err := e.post(ctx, u, locked[recipient.ID], domain.EntryCredit, amount)
			if err != nil {
				return Receipt{}, err
			}
			if err := u.publish(ctx, events.EventTypeTransferred, senderID, events.TransferredEvent{
				SenderID:            senderID,
				RecipientID:         recipient.ID,
				DebitTransactionID:  debit.ID,
				CreditTransactionID: credit.ID,
				Amount:              amount,
				SenderBalance:       debit.ResultingBalance,
				RecipientBalance:    credit.ResultingBalance,
				Timestamp:           debit.Timestamp,
			}); err != nil {
				return Receipt{}, err
			}
			return Receipt{Balance: debit.ResultingBalance}, nil
		})
	logOutcome(log, "transfer", receipt, err)
	return receipt, err
}

// Purchase debits the catalog price of itemID from the account and records
// the purchase against that debit.
func (e *Engine) Purchase(
	ctx context.Context,
	accountID uuid.UUID,
	itemID uuid.UUID,
	opts ...CallOption,
) (Receipt, error) {
	log := e.logger.With("operation", domain.OperationPurchase, "account_id", accountID, "item_id", itemID)

	price, exists, err := e.catalog.GetItem(ctx, itemID)
	if err != nil && !errors.Is(err, domain.ErrItemNotFound) {
		log.Error("catalog lookup failed", "error", err)
		return Receipt{}, domain.AsStorageError(err)
	}
	if !exists {
		log.Warn("purchase rejected", "error", domain.ErrItemNotFound)
		return Receipt{}, domain.ErrItemNotFound
	}
	if domain.ValidateAmount(price, decimal.Zero) != nil {
		log.Error("catalog item has an unusable price", "price", price.String())
		return Receipt{}, domain.ErrInvalidCatalogState
	}
	log = log.With("price", price.String())

	receipt, err := e.execute(ctx, domain.OperationPurchase, accountID,
		domain.RequestFingerprint(domain.OperationPurchase, itemID.String()), opts,
		func(ctx context.Context, u *unit) (Receipt, error) {
			locked, err := u.accounts.LockForUpdate(ctx, accountID)
			if err != nil {
				return Receipt{}, err
			}
			buyer := locked[accountID]
			if !buyer.CanDebit(price) {
				return Receipt{}, domain.ErrInsufficientFunds
			}

			debit, err := e.post(ctx, u, buyer, domain.EntryDebit, price)
			if err != nil {
				return Receipt{}, err
			}
			purchase := &domain.Purchase{
				ID:            uuid.New(),
				AccountID:     accountID,
				ItemID:        itemID,
				TransactionID: debit.ID,
				Timestamp:     debit.Timestamp,
			}
			if err := u.purchases.Create(ctx, purchase); err != nil {
				return Receipt{}, err
			}
			if err := u.publish(ctx, events.EventTypePurchased, accountID, events.PurchasedEvent{
				AccountID:     accountID,
				PurchaseID:    purchase.ID,
				ItemID:        itemID,
				TransactionID: debit.ID,
				Price:         price,
				Balance:       debit.ResultingBalance,
				Timestamp:     debit.Timestamp,
			}); err != nil {
				return Receipt{}, err
			}
			return Receipt{Balance: debit.ResultingBalance, PurchaseID: purchase.ID}, nil
		})
	logOutcome(log, "purchase", receipt, err)
	return receipt, err
}

// GetBalance returns the committed balance of the account.
func (e *Engine) GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := e.atomically(ctx, func(ctx context.Context, u *unit) error {
		a, err := u.accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		balance = a.Balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// GetStatement returns the account's transaction records, most recent first.
func (e *Engine) GetStatement(ctx context.Context, accountID uuid.UUID) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord
	err := e.StreamStatement(ctx, accountID, func(rec domain.TransactionRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	return records, nil
}

// StreamStatement calls fn for each of the account's records, most recent
// first. Each call reads a fresh snapshot.
func (e *Engine) StreamStatement(
	ctx context.Context,
	accountID uuid.UUID,
	fn func(domain.TransactionRecord) error,
) error {
	return e.atomically(ctx, func(ctx context.Context, u *unit) error {
		if _, err := u.accounts.GetByID(ctx, accountID); err != nil {
			return err
		}
		return u.transactions.StreamForAccount(ctx, accountID, fn)
	})
}

// ListPurchases returns the account's purchases, most recent first.
func (e *Engine) ListPurchases(ctx context.Context, accountID uuid.UUID) ([]domain.Purchase, error) {
	var purchases []domain.Purchase
	err := e.atomically(ctx, func(ctx context.Context, u *unit) error {
		if _, err := u.accounts.GetByID(ctx, accountID); err != nil {
			return err
		}
		var err error
		purchases, err = u.purchases.ListForAccount(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if purchases == nil {
		purchases = []domain.Purchase{}
	}
	return purchases, nil
}

// Reconcile replays the account's log and compares it with the stored
// balance. The account is locked while the log is read.
func (e *Engine) Reconcile(ctx context.Context, accountID uuid.UUID) (Reconciliation, error) {
	var result Reconciliation
	err := e.atomically(ctx, func(ctx context.Context, u *unit) error {
		locked, err := u.accounts.LockForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		records, err := u.transactions.ListForAccount(ctx, accountID)
		if err != nil {
			return err
		}
		replayed := domain.Replay(records)
		balance := locked[accountID].Balance
		result = Reconciliation{
			AccountID:  accountID,
			Balance:    balance,
			Replayed:   replayed,
			Records:    len(records),
			Consistent: balance.Equal(replayed),
		}
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}
	if !result.Consistent {
		e.logger.Error("ledger mismatch",
			"account_id", accountID,
			"balance", result.Balance.String(),
			"replayed", result.Replayed.String(),
		)
	}
	return result, nil
}

// post applies one signed movement to a locked account and appends the
// matching log record carrying the resulting balance.
func (e *Engine) post(
	ctx context.Context,
	u *unit,
	acc *domain.Account,
	kind domain.EntryKind,
	amount decimal.Decimal,
) (*domain.TransactionRecord, error) {
	expected := acc.Balance
	balance, err := u.accounts.ApplyDelta(ctx, acc.ID, kind.Signed(amount), &expected)
	if err != nil {
		return nil, err
	}
	rec := domain.NewTransactionRecord(acc.ID, kind, amount, balance, e.now())
	if err := u.transactions.Append(ctx, rec); err != nil {
		return nil, err
	}
	acc.Balance = balance
	return rec, nil
}

func logOutcome(log *slog.Logger, op string, receipt Receipt, err error) {
	if err == nil {
		log.Info(op+" committed", "balance", receipt.Balance.String(), "replayed", receipt.Replayed)
		return
	}
	switch domain.KindOf(err) {
	case domain.KindIndeterminate:
		log.Error(op+" outcome unknown", "error", err, "cause", errors.Unwrap(err))
	case domain.KindStorageUnavailable:
		log.Error(op+" failed", "error", err, "cause", errors.Unwrap(err))
	default:
		log.Warn(op+" rejected", "error", err)
	}
}
