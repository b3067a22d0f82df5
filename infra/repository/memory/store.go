package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
)

// Store is an in-process implementation of repository.UnitOfWork.
// Each unit of work stages its writes and publishes them under the store
// mutex on commit. Accounts are protected by per-row locks held until the
// unit ends, mirroring SELECT ... FOR UPDATE.
type Store struct {
	mu sync.Mutex

	accounts  map[uuid.UUID]domain.Account
	usernames map[string]uuid.UUID
	records   []domain.TransactionRecord
	purchases []domain.Purchase
	items     map[uuid.UUID]domain.Item
	keys      map[string]domain.IdempotencyRecord
	outbox    []domain.OutboxMessage
	sequence  int64

	// reservations emulate unique indexes for uncommitted inserts
	reservedNames map[string]*unit
	reservedKeys  map[string]*unit

	rowLocks map[uuid.UUID]chan struct{}
	logger   *slog.Logger
}

// NewStore creates an empty in-memory store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		accounts:      make(map[uuid.UUID]domain.Account),
		usernames:     make(map[string]uuid.UUID),
		items:         make(map[uuid.UUID]domain.Item),
		keys:          make(map[string]domain.IdempotencyRecord),
		reservedNames: make(map[string]*unit),
		reservedKeys:  make(map[string]*unit),
		rowLocks:      make(map[uuid.UUID]chan struct{}),
		logger:        logger.With("store", "memory"),
	}
}

// Do runs fn in a new unit. Staged writes are published only if fn
// returns nil.
func (s *Store) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) (err error) {
	u := newUnit(s)
	defer func() {
		if r := recover(); r != nil {
			u.rollback()
			panic(r)
		}
	}()

	if err = fn(u); err != nil {
		u.rollback()
		return domain.AsStorageError(err)
	}
	u.commit()
	return nil
}

func (s *Store) AccountRepository() (repository.AccountRepository, error) {
	return nil, repository.ErrNoActiveUnit
}

func (s *Store) TransactionRepository() (repository.TransactionRepository, error) {
	return nil, repository.ErrNoActiveUnit
}

func (s *Store) PurchaseRepository() (repository.PurchaseRepository, error) {
	return nil, repository.ErrNoActiveUnit
}

func (s *Store) CatalogRepository() (repository.CatalogRepository, error) {
	return nil, repository.ErrNoActiveUnit
}

func (s *Store) IdempotencyRepository() (repository.IdempotencyRepository, error) {
	return nil, repository.ErrNoActiveUnit
}

func (s *Store) OutboxRepository() (repository.OutboxRepository, error) {
	return nil, repository.ErrNoActiveUnit
}

func (s *Store) rowLock(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[id] = ch
	}
	return ch
}

func (s *Store) nextSequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence
}

var _ repository.UnitOfWork = (*Store)(nil)
