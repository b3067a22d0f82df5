package memory

import (
	"context"
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
)

// unit is one in-flight unit of work.
type unit struct {
	store *Store

	held      map[uuid.UUID]chan struct{}
	accounts  map[uuid.UUID]domain.Account
	names     map[string]uuid.UUID
	records   []domain.TransactionRecord
	purchases []domain.Purchase
	items     []domain.Item
	keys      map[string]domain.IdempotencyRecord
	outbox    []domain.OutboxMessage
	published map[uuid.UUID]struct{}
}

func newUnit(s *Store) *unit {
	return &unit{
		store:     s,
		held:      make(map[uuid.UUID]chan struct{}),
		accounts:  make(map[uuid.UUID]domain.Account),
		names:     make(map[string]uuid.UUID),
		keys:      make(map[string]domain.IdempotencyRecord),
		published: make(map[uuid.UUID]struct{}),
	}
}

// Do joins the running unit.
func (u *unit) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(u)
}

func (u *unit) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepository{u: u}, nil
}

func (u *unit) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepository{u: u}, nil
}

func (u *unit) PurchaseRepository() (repository.PurchaseRepository, error) {
	return &purchaseRepository{u: u}, nil
}

func (u *unit) CatalogRepository() (repository.CatalogRepository, error) {
	return &catalogRepository{u: u}, nil
}

func (u *unit) IdempotencyRepository() (repository.IdempotencyRepository, error) {
	return &idempotencyRepository{u: u}, nil
}

func (u *unit) OutboxRepository() (repository.OutboxRepository, error) {
	return &outboxRepository{u: u}, nil
}

// lock acquires the row lock for id unless this unit already holds it.
func (u *unit) lock(ctx context.Context, id uuid.UUID) error {
	if _, ok := u.held[id]; ok {
		return nil
	}
	ch := u.store.rowLock(id)
	select {
	case ch <- struct{}{}:
		u.held[id] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// account returns the unit's view of an account: staged state first,
// committed state otherwise.
func (u *unit) account(id uuid.UUID) (domain.Account, bool) {
	if a, ok := u.accounts[id]; ok {
		return a, true
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	a, ok := u.store.accounts[id]
	return a, ok
}

func (u *unit) commit() {
	s := u.store
	s.mu.Lock()
	for id, a := range u.accounts {
		s.accounts[id] = a
	}
	for name, id := range u.names {
		delete(s.reservedNames, name)
		s.usernames[name] = id
	}
	s.records = append(s.records, u.records...)
	s.purchases = append(s.purchases, u.purchases...)
	for _, item := range u.items {
		s.items[item.ID] = item
	}
	for k, rec := range u.keys {
		delete(s.reservedKeys, k)
		s.keys[k] = rec
	}
	s.outbox = append(s.outbox, u.outbox...)
	if len(u.published) > 0 {
		now := time.Now().UTC()
		for i := range s.outbox {
			if _, ok := u.published[s.outbox[i].ID]; ok {
				s.outbox[i].PublishedAt = &now
			}
		}
	}
	s.mu.Unlock()
	u.release()
}

func (u *unit) rollback() {
	s := u.store
	s.mu.Lock()
	for name := range u.names {
		if s.reservedNames[name] == u {
			delete(s.reservedNames, name)
		}
	}
	for k := range u.keys {
		if s.reservedKeys[k] == u {
			delete(s.reservedKeys, k)
		}
	}
	s.mu.Unlock()
	u.release()
}

func (u *unit) release() {
	for id, ch := range u.held {
		<-ch
		delete(u.held, id)
	}
}
