package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
)

// Envelope is the wire form of a relayed ledger event.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	AccountID uuid.UUID       `json:"account_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEnvelope wraps a pending outbox message.
func NewEnvelope(msg domain.OutboxMessage) Envelope {
	return Envelope{
		ID:        msg.ID,
		Type:      msg.EventType,
		AccountID: msg.AccountID,
		Payload:   json.RawMessage(msg.Payload),
		CreatedAt: msg.CreatedAt,
	}
}

// HandlerFunc consumes a delivered envelope.
type HandlerFunc func(ctx context.Context, env Envelope) error

// Publisher delivers ledger events to the outside world. Publish either
// delivers every envelope or returns an error; a failed batch is retried
// as a whole, so delivery is at least once.
type Publisher interface {
	Publish(ctx context.Context, envs ...Envelope) error
	Close() error
}
