package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/walletledger/pkg/eventbus"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/google/uuid"
)

// Relay moves committed ledger events from the outbox to a Publisher.
type Relay struct {
	uow       repository.UnitOfWork
	publisher eventbus.Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewRelay creates an outbox relay.
func NewRelay(
	uow repository.UnitOfWork,
	publisher eventbus.Publisher,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		uow:       uow,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With("component", "outbox-relay"),
	}
}

// Run polls the outbox until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

// drain relays full batches back to back until the outbox is empty.
func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.RelayOnce(ctx)
		if err != nil {
			r.logger.Error("outbox relay failed", "error", err)
			return
		}
		if n < r.batchSize {
			return
		}
	}
}

// RelayOnce publishes one batch of pending events and marks them
// published. It returns how many events were relayed.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	relayed := 0
	err := r.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		outbox, err := uow.OutboxRepository()
		if err != nil {
			return err
		}
		pending, err := outbox.FetchPending(ctx, r.batchSize)
		if err != nil || len(pending) == 0 {
			return err
		}

		envs := make([]eventbus.Envelope, 0, len(pending))
		ids := make([]uuid.UUID, 0, len(pending))
		for _, msg := range pending {
			envs = append(envs, eventbus.NewEnvelope(msg))
			ids = append(ids, msg.ID)
		}
		if err := r.publisher.Publish(ctx, envs...); err != nil {
			return err
		}
		relayed = len(ids)
		return outbox.MarkPublished(ctx, ids)
	})
	if err != nil {
		return 0, err
	}
	if relayed > 0 {
		r.logger.Debug("outbox batch relayed", "count", relayed)
	}
	return relayed, nil
}
