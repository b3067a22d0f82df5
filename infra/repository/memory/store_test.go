package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, username string, balance int64) uuid.UUID {
	t.Helper()
	a := domain.NewAccount(username, "hash")
	a.Balance = decimal.NewFromInt(balance)
	require.NoError(t, s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return accounts.Create(context.Background(), a)
	}))
	return a.ID
}

func balance(t *testing.T, s *Store, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var bal decimal.Decimal
	require.NoError(t, s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		a, err := accounts.GetByID(context.Background(), id)
		if err != nil {
			return err
		}
		bal = a.Balance
		return nil
	}))
	return bal
}

func TestStore_RepositoriesOutsideDo(t *testing.T) {
	s := NewStore(nil)
	_, err := s.AccountRepository()
	assert.ErrorIs(t, err, repository.ErrNoActiveUnit)
	_, err = s.OutboxRepository()
	assert.ErrorIs(t, err, repository.ErrNoActiveUnit)
}

func TestStore_RollbackDiscardsStagedWrites(t *testing.T) {
	s := NewStore(nil)
	id := seed(t, s, "alice", 100)
	ctx := context.Background()

	err := s.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		transactions, _ := uow.TransactionRepository()
		if _, err := accounts.ApplyDelta(ctx, id, decimal.NewFromInt(-30), nil); err != nil {
			return err
		}
		rec := domain.NewTransactionRecord(id, domain.EntryDebit, decimal.NewFromInt(30), decimal.NewFromInt(70), time.Now())
		if err := transactions.Append(ctx, rec); err != nil {
			return err
		}
		return domain.ErrInsufficientFunds
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, "100", balance(t, s, id).String())

	require.NoError(t, s.Do(ctx, func(uow repository.UnitOfWork) error {
		transactions, _ := uow.TransactionRepository()
		records, err := transactions.ListForAccount(ctx, id)
		assert.Empty(t, records)
		return err
	}))
}

func TestStore_NonDomainErrorIsStorageUnavailable(t *testing.T) {
	s := NewStore(nil)
	err := s.Do(context.Background(), func(repository.UnitOfWork) error {
		return errors.New("disk full")
	})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestStore_UsernameReservedUntilUnitEnds(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	inside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.Do(ctx, func(uow repository.UnitOfWork) error {
			accounts, _ := uow.AccountRepository()
			if err := accounts.Create(ctx, domain.NewAccount("alice", "h1")); err != nil {
				return err
			}
			close(inside)
			<-release
			return errors.New("abort")
		})
	}()
	<-inside

	err := s.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		return accounts.Create(ctx, domain.NewAccount("alice", "h2"))
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	close(release)
	require.Error(t, <-done)

	// the aborted unit released its reservation
	seed(t, s, "alice", 0)
}

func TestStore_ApplyDeltaClassifiesFailures(t *testing.T) {
	s := NewStore(nil)
	id := seed(t, s, "alice", 10)
	ctx := context.Background()
	stale := decimal.NewFromInt(99)

	err := s.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		_, err := accounts.ApplyDelta(ctx, id, decimal.NewFromInt(-11), nil)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	err = s.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		_, err := accounts.ApplyDelta(ctx, id, decimal.NewFromInt(1), &stale)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrBalanceConflict)

	err = s.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		_, err := accounts.ApplyDelta(ctx, uuid.New(), decimal.NewFromInt(1), nil)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RowLockHeldUntilCommit(t *testing.T) {
	s := NewStore(nil)
	id := seed(t, s, "alice", 10)
	ctx := context.Background()
	locked := make(chan struct{})
	release := make(chan struct{})
	first := make(chan error, 1)

	go func() {
		first <- s.Do(ctx, func(uow repository.UnitOfWork) error {
			accounts, _ := uow.AccountRepository()
			if _, err := accounts.LockForUpdate(ctx, id); err != nil {
				return err
			}
			close(locked)
			<-release
			_, err := accounts.ApplyDelta(ctx, id, decimal.NewFromInt(5), nil)
			return err
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := s.Do(waitCtx, func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		_, err := accounts.LockForUpdate(waitCtx, id)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, "15", balance(t, s, id).String())
}

func TestStore_OutboxPublishedOnCommit(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	msg, err := domain.NewOutboxMessage("Ledger.Credited", uuid.New(), map[string]string{})
	require.NoError(t, err)

	require.NoError(t, s.Do(ctx, func(uow repository.UnitOfWork) error {
		outbox, _ := uow.OutboxRepository()
		return outbox.Enqueue(ctx, msg)
	}))

	_ = s.Do(ctx, func(uow repository.UnitOfWork) error {
		outbox, _ := uow.OutboxRepository()
		require.NoError(t, outbox.MarkPublished(ctx, []uuid.UUID{msg.ID}))
		return errors.New("relay crashed")
	})

	var pending []domain.OutboxMessage
	require.NoError(t, s.Do(ctx, func(uow repository.UnitOfWork) error {
		outbox, _ := uow.OutboxRepository()
		pending, err = outbox.FetchPending(ctx, 10)
		return err
	}))
	assert.Len(t, pending, 1)
}
