package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type accountRepository struct{ u *unit }

func (r *accountRepository) Create(_ context.Context, a *domain.Account) error {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[a.Username]; taken {
		return domain.ErrDuplicateUsername
	}
	if _, reserved := s.reservedNames[a.Username]; reserved {
		return domain.ErrDuplicateUsername
	}
	s.reservedNames[a.Username] = r.u
	r.u.names[a.Username] = a.ID
	r.u.accounts[a.ID] = *a
	return nil
}

func (r *accountRepository) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	id, ok := r.u.names[username]
	if !ok {
		s := r.u.store
		s.mu.Lock()
		id, ok = s.usernames[username]
		s.mu.Unlock()
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(context.Background(), id)
}

func (r *accountRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := r.u.account(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *accountRepository) LockForUpdate(
	ctx context.Context,
	ids ...uuid.UUID,
) (map[uuid.UUID]*domain.Account, error) {
	locked := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range domain.LockOrder(ids...) {
		if err := r.u.lock(ctx, id); err != nil {
			return nil, err
		}
		a, ok := r.u.account(id)
		if !ok {
			return nil, domain.ErrNotFound
		}
		locked[id] = &a
	}
	return locked, nil
}

func (r *accountRepository) ApplyDelta(
	ctx context.Context,
	id uuid.UUID,
	delta decimal.Decimal,
	expected *decimal.Decimal,
) (decimal.Decimal, error) {
	if err := r.u.lock(ctx, id); err != nil {
		return decimal.Zero, err
	}
	a, ok := r.u.account(id)
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	next := a.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	if expected != nil && !a.Balance.Equal(*expected) {
		return decimal.Zero, domain.ErrBalanceConflict
	}
	a.Balance = next
	a.UpdatedAt = time.Now().UTC()
	r.u.accounts[id] = a
	return next, nil
}

type transactionRepository struct{ u *unit }

func (r *transactionRepository) Append(_ context.Context, rec *domain.TransactionRecord) error {
	rec.Sequence = r.u.store.nextSequence()
	r.u.records = append(r.u.records, *rec)
	return nil
}

func (r *transactionRepository) ListForAccount(
	_ context.Context,
	accountID uuid.UUID,
) ([]domain.TransactionRecord, error) {
	var out []domain.TransactionRecord
	s := r.u.store
	s.mu.Lock()
	for _, rec := range s.records {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	s.mu.Unlock()
	for _, rec := range r.u.records {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	domain.SortNewestFirst(out)
	return out, nil
}

func (r *transactionRepository) StreamForAccount(
	ctx context.Context,
	accountID uuid.UUID,
	fn func(domain.TransactionRecord) error,
) error {
	records, err := r.ListForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

type purchaseRepository struct{ u *unit }

func (r *purchaseRepository) Create(_ context.Context, p *domain.Purchase) error {
	r.u.purchases = append(r.u.purchases, *p)
	return nil
}

func (r *purchaseRepository) ListForAccount(_ context.Context, accountID uuid.UUID) ([]domain.Purchase, error) {
	var out []domain.Purchase
	s := r.u.store
	s.mu.Lock()
	for _, p := range s.purchases {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	for _, p := range r.u.purchases {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

type catalogRepository struct{ u *unit }

func (r *catalogRepository) Create(_ context.Context, item *domain.Item) error {
	r.u.items = append(r.u.items, *item)
	return nil
}

func (r *catalogRepository) Get(_ context.Context, id uuid.UUID) (*domain.Item, error) {
	for _, item := range r.u.items {
		if item.ID == id {
			return &item, nil
		}
	}
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (r *catalogRepository) List(_ context.Context) ([]domain.Item, error) {
	s := r.u.store
	s.mu.Lock()
	out := make([]domain.Item, 0, len(s.items)+len(r.u.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	s.mu.Unlock()
	out = append(out, r.u.items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return strings.Compare(out[i].Name, out[j].Name) < 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type idempotencyRepository struct{ u *unit }

func (r *idempotencyRepository) Get(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	if rec, ok := r.u.keys[key]; ok {
		return &rec, nil
	}
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (r *idempotencyRepository) Save(_ context.Context, rec *domain.IdempotencyRecord) error {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[rec.Key]; ok {
		return domain.ErrDuplicateRequest
	}
	if owner, ok := s.reservedKeys[rec.Key]; ok && owner != r.u {
		return domain.ErrDuplicateRequest
	}
	s.reservedKeys[rec.Key] = r.u
	r.u.keys[rec.Key] = *rec
	return nil
}

type outboxRepository struct{ u *unit }

func (r *outboxRepository) Enqueue(_ context.Context, msg *domain.OutboxMessage) error {
	r.u.outbox = append(r.u.outbox, *msg)
	return nil
}

func (r *outboxRepository) FetchPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OutboxMessage
	for _, msg := range s.outbox {
		if limit > 0 && len(out) >= limit {
			break
		}
		if msg.PublishedAt != nil {
			continue
		}
		if _, ok := r.u.published[msg.ID]; ok {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		r.u.published[id] = struct{}{}
	}
	return nil
}
