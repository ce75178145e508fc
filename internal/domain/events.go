package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants for hunt lifecycle events.
const (
	EventTypeHuntCompleted  = "hunt.completed"
	EventTypeBatchCompleted = "batch.completed"
)

// Event is a serialized lifecycle event ready for publishing.
type Event struct {
	EventID      string
	EventVersion int
	AggregateID  string
	EventType    string
	Payload      []byte
	CreatedAt    time.Time
}

// NewEvent creates a lifecycle event with a JSON-serialized payload.
func NewEvent(eventType, aggregateID string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:      uuid.New().String(),
		EventVersion: 1,
		AggregateID:  aggregateID,
		EventType:    eventType,
		Payload:      payloadBytes,
		CreatedAt:    time.Now(),
	}, nil
}

// HuntCompletedPayload is the payload for hunt.completed events.
type HuntCompletedPayload struct {
	HuntID         uuid.UUID      `json:"hunt_id"`
	Identifier     string         `json:"identifier"`
	Kind           IdentifierKind `json:"identifier_kind"`
	FullTextSource string         `json:"full_text_source"`
	QualityScore   float64        `json:"quality_score"`
	FromCache      bool           `json:"from_cache"`
	SourcesTried   int            `json:"sources_tried"`
	Duration       time.Duration  `json:"duration_ns"`
}

// BatchCompletedPayload is the payload for batch.completed events.
type BatchCompletedPayload struct {
	BatchID       uuid.UUID     `json:"batch_id"`
	Total         int           `json:"total"`
	FullTextFound int           `json:"full_text_found"`
	Virtual       int           `json:"virtual"`
	Duration      time.Duration `json:"duration_ns"`
}
