package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/walletledger/infra/initializer"
	"github.com/amirasaad/walletledger/pkg/app"
	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/amirasaad/walletledger/webapi"
	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fiberApp, relayDone, cleanup, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- fiberApp.Listen(addr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-relayDone
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	<-relayDone
	return nil
}

// setup wires the dependencies, the HTTP app and the outbox relay. The relay
// runs until ctx is done; relayDone is closed when it has stopped.
func setup(ctx context.Context, cfg *config.App) (
	fiberApp *fiber.App,
	relayDone <-chan struct{},
	cleanup func(),
	err error,
) {
	deps, err := initializer.InitializeDependencies(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	a := app.New(deps, cfg)
	fiberApp = webapi.SetupApp(a)

	done := make(chan struct{})
	relay := initializer.NewRelay(deps, cfg)
	go func() {
		defer close(done)
		relay.Run(ctx)
	}()

	deps.Logger.Info("Starting server",
		"env", cfg.Env,
		"address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"scheme", cfg.Server.Scheme,
		"base_currency", cfg.Ledger.BaseCurrency,
	)

	cleanup = func() {
		if err := deps.Close(); err != nil {
			deps.Logger.Error("Failed to release dependencies", "error", err)
		}
	}
	return fiberApp, done, cleanup, nil
}
