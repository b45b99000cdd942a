package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ems/internal/core"
)

// EventType is what happened to a record.
type EventType string

const (
	RecordCreated EventType = "created"
	RecordUpdated EventType = "updated"
	RecordDeleted EventType = "deleted"
)

// RecordEvent announces a committed expense or income change. It carries
// ids only; consumers load the current row from the database.
type RecordEvent struct {
	ID        uuid.UUID         `json:"id"`
	Kind      core.CategoryType `json:"kind"`
	UserID    uuid.UUID         `json:"userId"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewRecordEvent(rec core.Record, typ EventType) *RecordEvent {
	return &RecordEvent{
		ID:        rec.ID,
		Kind:      rec.Kind,
		UserID:    rec.UserID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		return nil, fmt.Errorf("record event without id")
	}
	if err := e.Kind.Validate(); err != nil {
		return nil, fmt.Errorf("record event %s: %w", e.ID, err)
	}
	switch e.Type {
	case RecordCreated, RecordUpdated, RecordDeleted:
	default:
		return nil, fmt.Errorf("record event %s: unknown type %q", e.ID, e.Type)
	}
	return &e, nil
}
