package observability

import (
	"context"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
)

// InstrumentedPublisher counts publish outcomes per event type
type InstrumentedPublisher struct {
	next      ports.EventPublisher
	collector *Collector
}

var _ ports.EventPublisher = (*InstrumentedPublisher)(nil)

// NewInstrumentedPublisher decorates next
func NewInstrumentedPublisher(next ports.EventPublisher, collector *Collector) *InstrumentedPublisher {
	return &InstrumentedPublisher{next: next, collector: collector}
}

// Publish implements ports.EventPublisher
func (p *InstrumentedPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch implements ports.EventPublisher
func (p *InstrumentedPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if len(batch) == 0 {
		return nil
	}
	err := p.next.PublishBatch(ctx, batch)
	for _, e := range batch {
		p.collector.RecordEvent(e.GetEventType(), err)
	}
	return err
}
