package outbox

import (
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
)

// Message is a pending or relayed ledger event.
type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventType   string     `gorm:"type:varchar(64);not null"`
	AccountID   uuid.UUID  `gorm:"type:uuid;not null"`
	Payload     []byte     `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	PublishedAt *time.Time `gorm:"index"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "outbox_messages"
}

func fromDomain(msg *domain.OutboxMessage) Message {
	return Message{
		ID:          msg.ID,
		EventType:   msg.EventType,
		AccountID:   msg.AccountID,
		Payload:     msg.Payload,
		CreatedAt:   msg.CreatedAt,
		PublishedAt: msg.PublishedAt,
	}
}

func toDomain(m *Message) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:          m.ID,
		EventType:   m.EventType,
		AccountID:   m.AccountID,
		Payload:     m.Payload,
		CreatedAt:   m.CreatedAt,
		PublishedAt: m.PublishedAt,
	}
}
