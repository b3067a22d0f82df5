package ledger_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/amirasaad/walletledger/infra/repository/memory"
	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/amirasaad/walletledger/pkg/service/catalog"
	"github.com/amirasaad/walletledger/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type EngineTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	catalog *catalog.Service
	engine  *ledger.Engine
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore(slog.Default())
	s.catalog = catalog.New(s.store, slog.Default())
	s.engine = ledger.New(s.store, s.catalog, slog.Default(), ledger.WithMaxAmount(dec("10000000")))
}

func (s *EngineTestSuite) account(username string) uuid.UUID {
	return createAccount(s.T(), s.store, username)
}

func (s *EngineTestSuite) balance(id uuid.UUID) string {
	b, err := s.engine.GetBalance(s.ctx, id)
	s.Require().NoError(err)
	return b.StringFixed(2)
}

func (s *EngineTestSuite) TestEndToEndScenario() {
	a := s.account("alice")
	b := s.account("bob")

	r, err := s.engine.Credit(s.ctx, a, dec("100"))
	s.Require().NoError(err)
	s.Equal("100.00", r.Balance.StringFixed(2))

	r, err = s.engine.Transfer(s.ctx, a, "bob", dec("40"))
	s.Require().NoError(err)
	s.Equal("60.00", r.Balance.StringFixed(2))
	s.Equal("40.00", s.balance(b))

	item, err := s.catalog.AddItem(s.ctx, "Coffee", dec("25"), "")
	s.Require().NoError(err)
	r, err = s.engine.Purchase(s.ctx, b, item.ID)
	s.Require().NoError(err)
	s.Equal("15.00", r.Balance.StringFixed(2))
	s.NotEqual(uuid.Nil, r.PurchaseID)

	_, err = s.engine.Transfer(s.ctx, a, "bob", dec("1000"))
	s.ErrorIs(err, domain.ErrInsufficientFunds)
	s.Equal("60.00", s.balance(a))
	s.Equal("15.00", s.balance(b))

	stmt, err := s.engine.GetStatement(s.ctx, a)
	s.Require().NoError(err)
	s.Require().Len(stmt, 2)
	s.Equal(domain.EntryDebit, stmt[0].Kind)
	s.Equal("40.00", stmt[0].Amount.StringFixed(2))
	s.Equal("60.00", stmt[0].ResultingBalance.StringFixed(2))
	s.Equal(domain.EntryCredit, stmt[1].Kind)
	s.Equal("100.00", stmt[1].ResultingBalance.StringFixed(2))

	stmt, err = s.engine.GetStatement(s.ctx, b)
	s.Require().NoError(err)
	s.Require().Len(stmt, 2)
	s.Equal(domain.EntryDebit, stmt[0].Kind)
	s.Equal("25.00", stmt[0].Amount.StringFixed(2))

	purchases, err := s.engine.ListPurchases(s.ctx, b)
	s.Require().NoError(err)
	s.Require().Len(purchases, 1)
	s.Equal(item.ID, purchases[0].ItemID)
	s.Equal(stmt[0].ID, purchases[0].TransactionID)
}

func (s *EngineTestSuite) TestInvalidAmounts() {
	a := s.account("alice")
	s.account("bob")

	for _, amt := range []string{"0", "-1", "0.001", "10.005", "10000000.01"} {
		_, err := s.engine.Credit(s.ctx, a, dec(amt))
		s.ErrorIs(err, domain.ErrInvalidAmount, amt)
		_, err = s.engine.Transfer(s.ctx, a, "bob", dec(amt))
		s.ErrorIs(err, domain.ErrInvalidAmount, amt)
	}
	s.Equal("0.00", s.balance(a))

	stmt, err := s.engine.GetStatement(s.ctx, a)
	s.Require().NoError(err)
	s.Empty(stmt)
}

func (s *EngineTestSuite) TestTransferPreconditionOrder() {
	a := s.account("alice")
	_, err := s.engine.Credit(s.ctx, a, dec("10"))
	s.Require().NoError(err)

	// amount is checked before the recipient
	_, err = s.engine.Transfer(s.ctx, a, "nobody", dec("0"))
	s.ErrorIs(err, domain.ErrInvalidAmount)

	_, err = s.engine.Transfer(s.ctx, a, "nobody", dec("5"))
	s.ErrorIs(err, domain.ErrRecipientNotFound)

	// self transfer is rejected before funds are checked
	_, err = s.engine.Transfer(s.ctx, a, "alice", dec("500"))
	s.ErrorIs(err, domain.ErrSelfTransferForbidden)

	s.Equal("10.00", s.balance(a))
}

func (s *EngineTestSuite) TestPurchaseErrors() {
	a := s.account("alice")

	_, err := s.engine.Purchase(s.ctx, a, uuid.New())
	s.ErrorIs(err, domain.ErrItemNotFound)

	item, err := s.catalog.AddItem(s.ctx, "Laptop", dec("999.99"), "")
	s.Require().NoError(err)
	_, err = s.engine.Purchase(s.ctx, a, item.ID)
	s.ErrorIs(err, domain.ErrInsufficientFunds)

	purchases, err := s.engine.ListPurchases(s.ctx, a)
	s.Require().NoError(err)
	s.Empty(purchases)
}

func (s *EngineTestSuite) TestUnknownAccount() {
	missing := uuid.New()

	_, err := s.engine.GetBalance(s.ctx, missing)
	s.ErrorIs(err, domain.ErrNotFound)
	_, err = s.engine.GetStatement(s.ctx, missing)
	s.ErrorIs(err, domain.ErrNotFound)
	_, err = s.engine.Credit(s.ctx, missing, dec("1"))
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *EngineTestSuite) TestIdempotentCredit() {
	a := s.account("alice")

	first, err := s.engine.Credit(s.ctx, a, dec("30"), ledger.WithIdempotencyKey("k-1"))
	s.Require().NoError(err)
	s.False(first.Replayed)

	again, err := s.engine.Credit(s.ctx, a, dec("30"), ledger.WithIdempotencyKey("k-1"))
	s.Require().NoError(err)
	s.True(again.Replayed)
	s.True(first.Balance.Equal(again.Balance))
	s.Equal("30.00", s.balance(a))

	s.account("bob")
	_, err = s.engine.Transfer(s.ctx, a, "bob", dec("1"), ledger.WithIdempotencyKey("k-1"))
	s.ErrorIs(err, domain.ErrIdempotencyConflict)
	s.Equal("30.00", s.balance(a))
}

func (s *EngineTestSuite) TestIdempotencyKeyReusedForDifferentRequest() {
	a := s.account("alice")
	s.account("bob")
	carol := s.account("carol")
	_, err := s.engine.Credit(s.ctx, a, dec("100"))
	s.Require().NoError(err)

	_, err = s.engine.Transfer(s.ctx, a, "bob", dec("5"), ledger.WithIdempotencyKey("k"))
	s.Require().NoError(err)

	_, err = s.engine.Transfer(s.ctx, a, "carol", dec("50"), ledger.WithIdempotencyKey("k"))
	s.ErrorIs(err, domain.ErrIdempotencyConflict)
	_, err = s.engine.Transfer(s.ctx, a, "bob", dec("6"), ledger.WithIdempotencyKey("k"))
	s.ErrorIs(err, domain.ErrIdempotencyConflict)
	s.Equal("0.00", s.balance(carol))
	s.Equal("95.00", s.balance(a))

	again, err := s.engine.Transfer(s.ctx, a, "bob", dec("5.00"), ledger.WithIdempotencyKey("k"))
	s.Require().NoError(err)
	s.True(again.Replayed)

	coffee, err := s.catalog.AddItem(s.ctx, "Coffee", dec("25"), "")
	s.Require().NoError(err)
	tea, err := s.catalog.AddItem(s.ctx, "Tea", dec("10"), "")
	s.Require().NoError(err)
	_, err = s.engine.Purchase(s.ctx, a, coffee.ID, ledger.WithIdempotencyKey("buy"))
	s.Require().NoError(err)
	_, err = s.engine.Purchase(s.ctx, a, tea.ID, ledger.WithIdempotencyKey("buy"))
	s.ErrorIs(err, domain.ErrIdempotencyConflict)
	s.Equal("70.00", s.balance(a))
}

func (s *EngineTestSuite) TestIdempotencyKeysAreScopedPerAccount() {
	a := s.account("alice")
	b := s.account("bob")

	ra, err := s.engine.Credit(s.ctx, a, dec("5"), ledger.WithIdempotencyKey("1"))
	s.Require().NoError(err)
	rb, err := s.engine.Credit(s.ctx, b, dec("7"), ledger.WithIdempotencyKey("1"))
	s.Require().NoError(err)

	s.False(ra.Replayed)
	s.False(rb.Replayed)
	s.Equal("7.00", s.balance(b))
}

func (s *EngineTestSuite) TestOversizedIdempotencyKey() {
	a := s.account("alice")

	_, err := s.engine.Credit(s.ctx, a, dec("5"), ledger.WithIdempotencyKey(strings.Repeat("k", 65)))
	s.ErrorIs(err, domain.ErrValidation)
	s.Equal("0.00", s.balance(a))
}

func (s *EngineTestSuite) TestIdempotentPurchaseReturnsSamePurchase() {
	a := s.account("alice")
	_, err := s.engine.Credit(s.ctx, a, dec("100"))
	s.Require().NoError(err)
	item, err := s.catalog.AddItem(s.ctx, "Coffee", dec("25"), "")
	s.Require().NoError(err)

	first, err := s.engine.Purchase(s.ctx, a, item.ID, ledger.WithIdempotencyKey("buy-1"))
	s.Require().NoError(err)
	second, err := s.engine.Purchase(s.ctx, a, item.ID, ledger.WithIdempotencyKey("buy-1"))
	s.Require().NoError(err)

	s.Equal(first.PurchaseID, second.PurchaseID)
	s.Equal("75.00", s.balance(a))
}

func (s *EngineTestSuite) TestRejectedCallDoesNotConsumeKey() {
	a := s.account("alice")
	s.account("bob")

	_, err := s.engine.Transfer(s.ctx, a, "bob", dec("10"), ledger.WithIdempotencyKey("pay-1"))
	s.ErrorIs(err, domain.ErrInsufficientFunds)

	_, err = s.engine.Credit(s.ctx, a, dec("10"))
	s.Require().NoError(err)
	r, err := s.engine.Transfer(s.ctx, a, "bob", dec("10"), ledger.WithIdempotencyKey("pay-1"))
	s.Require().NoError(err)
	s.False(r.Replayed)
	s.Equal("0.00", r.Balance.StringFixed(2))
}

func (s *EngineTestSuite) TestEventsAreEnqueued() {
	a := s.account("alice")
	s.account("bob")
	_, err := s.engine.Credit(s.ctx, a, dec("10"))
	s.Require().NoError(err)
	_, err = s.engine.Transfer(s.ctx, a, "bob", dec("4"))
	s.Require().NoError(err)
	_, err = s.engine.Transfer(s.ctx, a, "bob", dec("400"))
	s.Require().Error(err)

	var pending []domain.OutboxMessage
	err = s.store.Do(s.ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.OutboxRepository()
		if err != nil {
			return err
		}
		pending, err = repo.FetchPending(s.ctx, 10)
		return err
	})
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal("Ledger.Credited", pending[0].EventType)
	s.Equal("Ledger.Transferred", pending[1].EventType)
	s.Contains(string(pending[1].Payload), `"amount":"4"`)
}

func (s *EngineTestSuite) TestReconcile() {
	a := s.account("alice")
	s.account("bob")
	_, err := s.engine.Credit(s.ctx, a, dec("12.50"))
	s.Require().NoError(err)
	_, err = s.engine.Transfer(s.ctx, a, "bob", dec("2.25"))
	s.Require().NoError(err)

	rec, err := s.engine.Reconcile(s.ctx, a)
	s.Require().NoError(err)
	s.True(rec.Consistent)
	s.Equal(2, rec.Records)
	s.Equal("10.25", rec.Replayed.StringFixed(2))
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func TestPurchase_InvalidCatalogState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	a := createAccount(t, store, "alice")
	itemID := uuid.New()

	cat := &mockCatalog{}
	cat.On("GetItem", mock.Anything, itemID).Return(decimal.Zero, true, nil).Once()
	engine := ledger.New(store, cat, nil)

	_, err := engine.Purchase(ctx, a, itemID)
	assert.ErrorIs(t, err, domain.ErrInvalidCatalogState)
	cat.AssertExpectations(t)
}

func TestPurchase_CatalogUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	a := createAccount(t, store, "alice")

	cat := &mockCatalog{}
	cat.On("GetItem", mock.Anything, mock.Anything).Return(decimal.Zero, false, errors.New("db down"))
	engine := ledger.New(store, cat, nil)

	_, err := engine.Purchase(ctx, a, uuid.New())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

// indeterminateUoW commits through the wrapped store but reports the
// commit outcome as unknown.
type indeterminateUoW struct {
	repository.UnitOfWork
}

func (u indeterminateUoW) Do(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	if err := u.UnitOfWork.Do(ctx, fn); err != nil {
		return err
	}
	return domain.Wrap(domain.ErrIndeterminate, errors.New("connection reset during commit"))
}

func TestCredit_IndeterminateOutcomeIsSurfaced(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	a := createAccount(t, store, "alice")

	engine := ledger.New(indeterminateUoW{store}, nil, nil)
	_, err := engine.Credit(ctx, a, dec("5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndeterminate)
	assert.Equal(t, domain.KindIndeterminate, domain.KindOf(err))
}

// flakyLogUoW fails the nth log append inside each unit.
type flakyLogUoW struct {
	repository.UnitOfWork
	failAt int
}

func (u flakyLogUoW) Do(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	return u.UnitOfWork.Do(ctx, func(inner repository.UnitOfWork) error {
		return fn(flakyLogUoW{UnitOfWork: inner, failAt: u.failAt})
	})
}

func (u flakyLogUoW) TransactionRepository() (repository.TransactionRepository, error) {
	repo, err := u.UnitOfWork.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return &flakyLog{TransactionRepository: repo, failAt: u.failAt}, nil
}

type flakyLog struct {
	repository.TransactionRepository
	failAt  int
	appends int
}

func (l *flakyLog) Append(ctx context.Context, rec *domain.TransactionRecord) error {
	l.appends++
	if l.appends == l.failAt {
		return errors.New("disk full")
	}
	return l.TransactionRepository.Append(ctx, rec)
}

func TestTransfer_FailureAfterDebitRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	a := createAccount(t, store, "alice")
	b := createAccount(t, store, "bob")
	_, err := ledger.New(store, nil, nil).Credit(ctx, a, dec("100"))
	require.NoError(t, err)

	engine := ledger.New(flakyLogUoW{UnitOfWork: store, failAt: 2}, nil, nil)
	_, err = engine.Transfer(ctx, a, "bob", dec("40"))
	require.Error(t, err)
	assert.Equal(t, domain.KindStorageUnavailable, domain.KindOf(err))
	assert.NotErrorIs(t, err, domain.ErrIndeterminate)

	reader := ledger.New(store, nil, nil)
	balA, err := reader.GetBalance(ctx, a)
	require.NoError(t, err)
	balB, err := reader.GetBalance(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "100.00", balA.StringFixed(2))
	assert.True(t, balB.IsZero())

	stmt, err := reader.GetStatement(ctx, a)
	require.NoError(t, err)
	assert.Len(t, stmt, 1)
	stmt, err = reader.GetStatement(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, stmt)
}

func createAccount(t *testing.T, uow repository.UnitOfWork, username string) uuid.UUID {
	t.Helper()
	acc := domain.NewAccount(username, "hash")
	err := uow.Do(context.Background(), func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(context.Background(), acc)
	})
	require.NoError(t, err)
	return acc.ID
}
