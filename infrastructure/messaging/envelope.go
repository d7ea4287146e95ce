// Package messaging publishes domain events after the remote write they
// describe has succeeded.
package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kwansinnn/cytosight-all-detect/domain/events"
)

// Envelope is the wire form of a domain event
type Envelope struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	UserID      string          `json:"user_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Detail      json.RawMessage `json:"detail"`
}

// NewEnvelope wraps event with a fresh ID
func NewEnvelope(event events.DomainEvent) (Envelope, error) {
	detail, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s event: %w", event.GetEventType(), err)
	}
	return Envelope{
		ID:          uuid.NewString(),
		Source:      events.Source,
		Type:        event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		UserID:      event.GetUserID(),
		Timestamp:   event.GetTimestamp(),
		Version:     event.GetVersion(),
		Detail:      detail,
	}, nil
}
