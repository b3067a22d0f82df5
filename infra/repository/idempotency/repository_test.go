package idempotency

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDb, DriverName: "postgres"}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestRepository_SaveAndGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := New(db)
	account := uuid.New()
	rec := &domain.IdempotencyRecord{
		Key:         account.String() + ":k-1",
		AccountID:   account,
		Operation:   domain.OperationCredit,
		Fingerprint: domain.RequestFingerprint(domain.OperationCredit, "60.00"),
		Balance:     decimal.RequireFromString("60"),
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "idempotency_keys"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Save(context.Background(), rec))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "idempotency_keys"`)).
		WillReturnError(gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, repo.Save(context.Background(), rec), domain.ErrDuplicateRequest)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "idempotency_keys" WHERE key = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "account_id", "operation", "fingerprint", "balance", "purchase_id", "created_at"}).
			AddRow(rec.Key, account.String(), string(domain.OperationCredit), rec.Fingerprint, "60.00", uuid.Nil.String(), rec.CreatedAt))
	got, err := repo.Get(context.Background(), rec.Key)
	require.NoError(t, err)
	assert.True(t, got.Matches(account, domain.OperationCredit, rec.Fingerprint))
	assert.False(t, got.Matches(account, domain.OperationCredit, domain.RequestFingerprint(domain.OperationCredit, "61.00")))
	assert.Equal(t, "60.00", got.Balance.StringFixed(2))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "idempotency_keys" WHERE key = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"key"}))
	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
