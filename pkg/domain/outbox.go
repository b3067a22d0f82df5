package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a ledger event persisted in the same atomic unit as the
// mutation it describes, waiting to be relayed to the event stream.
type OutboxMessage struct {
	ID          uuid.UUID
	EventType   string
	AccountID   uuid.UUID
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// NewOutboxMessage serializes payload into a pending outbox message.
func NewOutboxMessage(eventType string, accountID uuid.UUID, payload any) (*OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		ID:        uuid.New(),
		EventType: eventType,
		AccountID: accountID,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}
