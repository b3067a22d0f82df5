package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/walletledger/infra"
	infra_cache "github.com/amirasaad/walletledger/infra/cache"
	infra_eventbus "github.com/amirasaad/walletledger/infra/eventbus"
	infra_provider "github.com/amirasaad/walletledger/infra/provider"
	infra_repository "github.com/amirasaad/walletledger/infra/repository"
	"github.com/amirasaad/walletledger/infra/repository/memory"
	"github.com/amirasaad/walletledger/pkg/app"
	"github.com/amirasaad/walletledger/pkg/cache"
	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/amirasaad/walletledger/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies initializes all the application dependencies.
// Every optional backend falls back to an in-process implementation when it
// is not configured. Callers must Close the returned deps.
func InitializeDependencies(ctx context.Context, cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	logger := SetupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()

	if err = initStore(deps, cfg, logger); err != nil {
		return
	}
	deps.RateCache = initRateCache(ctx, deps, cfg, logger)

	if cfg.ExchangeRate.ApiKey != "" {
		deps.RateProvider = infra_provider.NewCurrencyAPIProvider(cfg.ExchangeRate, logger)
	} else {
		logger.Warn("EXCHANGE_RATE_API_KEY not set, using fixed exchange rates")
		deps.RateProvider = infra_provider.NewFixedExchangeRate(
			cfg.Ledger.BaseCurrency,
			infra_provider.DefaultFixedRates(),
		)
	}

	deps.Publisher, err = initPublisher(cfg, logger)
	if err != nil {
		return
	}
	deps.OnClose(deps.Publisher.Close)
	return
}

func initStore(deps *app.Deps, cfg *config.App, logger *slog.Logger) error {
	if cfg.DB.Url == "" {
		logger.Warn("DATABASE_URL not set, balances are kept in memory only")
		deps.Uow = memory.NewStore(logger)
		return nil
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	deps.OnClose(sqlDB.Close)

	if err := infra.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	deps.Uow = infra_repository.NewUoW(db, logger)
	return nil
}

func initRateCache(
	ctx context.Context,
	deps *app.Deps,
	cfg *config.App,
	logger *slog.Logger,
) cache.ExchangeRateCache {
	if cfg.Redis.URL == "" {
		return infra_cache.NewMemoryCache(ctx)
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Warn("Invalid REDIS_URL, using in-memory rate cache", "error", err)
		return infra_cache.NewMemoryCache(ctx)
	}
	opt.PoolSize = cfg.Redis.PoolSize
	opt.DialTimeout = cfg.Redis.DialTimeout
	opt.ReadTimeout = cfg.Redis.ReadTimeout
	opt.WriteTimeout = cfg.Redis.WriteTimeout

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, using in-memory rate cache", "error", err)
		_ = client.Close()
		return infra_cache.NewMemoryCache(ctx)
	}
	deps.OnClose(client.Close)
	return infra_cache.NewRedisExchangeRateCache(
		client,
		cfg.Redis.KeyPrefix+cfg.ExchangeRate.CachePrefix,
		logger,
	)
}

func initPublisher(cfg *config.App, logger *slog.Logger) (eventbus.Publisher, error) {
	if cfg.Kafka.Brokers != "" {
		return infra_eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}
	pub := infra_eventbus.NewMemoryPublisher(logger)
	pub.Register("", func(_ context.Context, env eventbus.Envelope) error {
		logger.Debug("ledger event", "event_type", env.Type, "event_id", env.ID, "account_id", env.AccountID)
		return nil
	})
	return pub, nil
}

// NewRelay creates the outbox relay for deps.
func NewRelay(deps *app.Deps, cfg *config.App) *infra_eventbus.Relay {
	return infra_eventbus.NewRelay(
		deps.Uow,
		deps.Publisher,
		cfg.Kafka.RelayInterval,
		cfg.Kafka.BatchSize,
		deps.Logger,
	)
}
