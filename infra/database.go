package infra

import (
	"errors"

	"github.com/amirasaad/walletledger/infra/repository/account"
	"github.com/amirasaad/walletledger/infra/repository/catalog"
	"github.com/amirasaad/walletledger/infra/repository/idempotency"
	"github.com/amirasaad/walletledger/infra/repository/outbox"
	"github.com/amirasaad/walletledger/infra/repository/purchase"
	"github.com/amirasaad/walletledger/infra/repository/transaction"
	"github.com/amirasaad/walletledger/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the postgres database described by cnf.
// SQL statements are logged only in the development environment.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(postgres.Open(cnf.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cnf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cnf.ConnMaxLifetime)

	return connection, nil
}

// Migrate creates or updates the ledger schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&account.Account{},
		&transaction.Transaction{},
		&catalog.Product{},
		&purchase.Purchase{},
		&idempotency.Key{},
		&outbox.Message{},
	)
}
