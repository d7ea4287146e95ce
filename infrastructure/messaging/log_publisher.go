package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
)

// LogPublisher writes events to the log. It is the default bus.
type LogPublisher struct {
	logger *zap.Logger
}

var _ ports.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a publisher logging at info level
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs one event
func (p *LogPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch logs each event
func (p *LogPublisher) PublishBatch(_ context.Context, batch []events.DomainEvent) error {
	for _, e := range batch {
		p.logger.Info("Domain event",
			zap.String("event_type", e.GetEventType()),
			zap.String("aggregate_id", e.GetAggregateID()),
			zap.String("user_id", e.GetUserID()),
			zap.Time("timestamp", e.GetTimestamp()),
		)
	}
	return nil
}
