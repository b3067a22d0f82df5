package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/walletledger/pkg/eventbus"
)

// MemoryPublisher dispatches envelopes to in-process handlers and keeps a
// copy of everything published.
type MemoryPublisher struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []eventbus.Envelope
}

var _ eventbus.Publisher = (*MemoryPublisher)(nil)

// NewMemoryPublisher creates an in-memory publisher.
func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryPublisher{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register registers a handler for an event type. The empty type matches
// every event.
func (b *MemoryPublisher) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish records the envelopes and runs their handlers. Handler errors are
// logged and do not fail the batch.
func (b *MemoryPublisher) Publish(ctx context.Context, envs ...eventbus.Envelope) error {
	for _, env := range envs {
		b.mu.Lock()
		b.published = append(b.published, env)
		handlers := append(append([]eventbus.HandlerFunc{}, b.handlers[env.Type]...), b.handlers[""]...)
		b.mu.Unlock()

		for _, handler := range handlers {
			if err := handler(ctx, env); err != nil {
				b.logger.Warn("event handler failed", "event_type", env.Type, "event_id", env.ID, "error", err)
			}
		}
	}
	return nil
}

// Published returns a copy of the envelopes published so far.
func (b *MemoryPublisher) Published() []eventbus.Envelope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]eventbus.Envelope, len(b.published))
	copy(out, b.published)
	return out
}

func (b *MemoryPublisher) Close() error {
	return nil
}
