package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/domain/events"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
)

// unit bundles the repositories of one atomic unit.
type unit struct {
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	purchases    repository.PurchaseRepository
	keys         repository.IdempotencyRepository
	outbox       repository.OutboxRepository
}

func bind(uow repository.UnitOfWork) (*unit, error) {
	u := &unit{}
	var err error
	if u.accounts, err = uow.AccountRepository(); err != nil {
		return nil, err
	}
	if u.transactions, err = uow.TransactionRepository(); err != nil {
		return nil, err
	}
	if u.purchases, err = uow.PurchaseRepository(); err != nil {
		return nil, err
	}
	if u.keys, err = uow.IdempotencyRepository(); err != nil {
		return nil, err
	}
	if u.outbox, err = uow.OutboxRepository(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *unit) publish(ctx context.Context, eventType events.EventType, accountID uuid.UUID, payload any) error {
	msg, err := domain.NewOutboxMessage(eventType.String(), accountID, payload)
	if err != nil {
		return err
	}
	return u.outbox.Enqueue(ctx, msg)
}

// atomically runs fn in one unit of work. The unit is detached from the
// caller's cancellation so that a disconnecting client cannot abort a
// commit halfway; it is bounded by the engine's operation timeout instead.
func (e *Engine) atomically(ctx context.Context, fn func(ctx context.Context, u *unit) error) error {
	ctx = context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		u, err := bind(uow)
		if err != nil {
			return err
		}
		return fn(ctx, u)
	})
}

const maxIdempotencyKeyLen = 64

type mutation func(ctx context.Context, u *unit) (Receipt, error)

func (e *Engine) execute(
	ctx context.Context,
	op domain.Operation,
	accountID uuid.UUID,
	fingerprint string,
	opts []CallOption,
	fn mutation,
) (Receipt, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.idempotencyKey == "" {
		var receipt Receipt
		err := e.atomically(ctx, func(ctx context.Context, u *unit) error {
			var err error
			receipt, err = fn(ctx, u)
			return err
		})
		return receipt, err
	}

	if len(o.idempotencyKey) > maxIdempotencyKeyLen {
		return Receipt{}, domain.WithMessage(domain.ErrValidation,
			fmt.Sprintf("idempotency key must be at most %d bytes", maxIdempotencyKeyLen))
	}
	inflight := fmt.Sprintf("%s:%s:%s:%s", accountID, op, o.idempotencyKey, fingerprint)
	return e.tracker.Do(inflight, func() (Receipt, error) {
		return e.executeKeyed(ctx, op, accountID, o.idempotencyKey, fingerprint, fn)
	})
}

// executeKeyed stores the key in the same unit as the mutation. Only
// successful calls consume a key; a rejected call may be retried with it.
// Keys are scoped to the calling account, and a key reused for a different
// request fails with domain.ErrIdempotencyConflict.
func (e *Engine) executeKeyed(
	ctx context.Context,
	op domain.Operation,
	accountID uuid.UUID,
	key string,
	fingerprint string,
	fn mutation,
) (Receipt, error) {
	key = accountID.String() + ":" + key
	var receipt Receipt
	err := e.atomically(ctx, func(ctx context.Context, u *unit) error {
		replayed, found, err := storedReceipt(ctx, u, op, accountID, key, fingerprint)
		if err != nil {
			return err
		}
		if found {
			receipt = replayed
			return nil
		}

		receipt, err = fn(ctx, u)
		if err != nil {
			return err
		}
		return u.keys.Save(ctx, &domain.IdempotencyRecord{
			Key:         key,
			AccountID:   accountID,
			Operation:   op,
			Fingerprint: fingerprint,
			Balance:     receipt.Balance,
			PurchaseID:  receipt.PurchaseID,
			CreatedAt:   time.Now().UTC(),
		})
	})
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		return receipt, err
	}

	// Another request committed the same key first; answer with its result.
	err = e.atomically(ctx, func(ctx context.Context, u *unit) error {
		var found bool
		var err error
		receipt, found, err = storedReceipt(ctx, u, op, accountID, key, fingerprint)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrDuplicateRequest
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

func storedReceipt(
	ctx context.Context,
	u *unit,
	op domain.Operation,
	accountID uuid.UUID,
	key string,
	fingerprint string,
) (Receipt, bool, error) {
	stored, err := u.keys.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, err
	}
	if !stored.Matches(accountID, op, fingerprint) {
		return Receipt{}, false, domain.ErrIdempotencyConflict
	}
	return Receipt{Balance: stored.Balance, PurchaseID: stored.PurchaseID, Replayed: true}, true, nil
}
