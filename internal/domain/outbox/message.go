package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// Message stores a notification event until the poller publishes it.
// Status and attempt changes are applied by the Repository.
type Message struct {
	ID            int64                   `json:"id"`
	EventID       uuid.UUID               `json:"event_id"`
	RecordID      uuid.UUID               `json:"record_id"`
	Kind          shared.NotificationKind `json:"kind"`
	Payload       json.RawMessage         `json:"payload"`
	Status        shared.OutboxStatus     `json:"status"`
	Attempts      int                     `json:"attempts"`
	CreatedAt     time.Time               `json:"created_at"`
	LastAttemptAt *time.Time              `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *notification.Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	var recordID uuid.UUID
	if event.Record != nil {
		recordID = event.Record.ID
	}

	return &Message{
		EventID:   event.EventID,
		RecordID:  recordID,
		Kind:      event.Kind,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GetEvent extracts the notification event from the payload
func (m *Message) GetEvent() (*notification.Event, error) {
	var event notification.Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
