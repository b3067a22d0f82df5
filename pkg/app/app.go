// Package app wires the ledger services on top of their infrastructure.
package app

import (
	"errors"
	"log/slog"

	"github.com/amirasaad/walletledger/pkg/cache"
	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/amirasaad/walletledger/pkg/eventbus"
	"github.com/amirasaad/walletledger/pkg/provider"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/amirasaad/walletledger/pkg/service/auth"
	"github.com/amirasaad/walletledger/pkg/service/catalog"
	"github.com/amirasaad/walletledger/pkg/service/currency"
	"github.com/amirasaad/walletledger/pkg/service/ledger"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow          repository.UnitOfWork
	RateProvider provider.ExchangeRate
	RateCache    cache.ExchangeRateCache
	Publisher    eventbus.Publisher
	Logger       *slog.Logger

	closers []func() error
}

// OnClose registers fn to run when the dependencies are released.
func (d *Deps) OnClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

// Close releases the dependencies in reverse registration order.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

type App struct {
	Deps            *Deps
	Config          *config.App
	AuthService     *auth.Service
	CatalogService  *catalog.Service
	LedgerService   *ledger.Engine
	CurrencyService *currency.Converter
}

func New(deps *Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.AuthService = auth.New(deps.Uow, deps.Logger)
	app.CatalogService = catalog.New(deps.Uow, deps.Logger)
	app.LedgerService = ledger.New(
		deps.Uow,
		app.CatalogService,
		deps.Logger,
		ledger.WithOperationTimeout(cfg.DB.OperationTimeout),
		ledger.WithMaxAmount(cfg.Ledger.MaxAmount),
	)
	app.CurrencyService = currency.New(
		deps.RateProvider,
		deps.RateCache,
		cfg.ExchangeRate.CacheTTL,
		deps.Logger,
	)
	return app
}
