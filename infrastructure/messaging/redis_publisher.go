package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
)

// DefaultChannel is used when no channel is configured
const DefaultChannel = "cytosight:events"

const recentLimit = 100

// RedisPublisher publishes event envelopes on a pub/sub channel and keeps
// the latest ones in a capped list for late readers.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

var _ ports.EventPublisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher. Connections are opened lazily.
func NewRedisPublisher(opts *redis.Options, channel string, logger *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: redis.NewClient(opts), channel: channel, logger: logger}
}

// RecentKey is the list holding the latest envelopes, newest first
func (p *RedisPublisher) RecentKey() string {
	return p.channel + ":recent"
}

// Ping verifies Redis connectivity
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close closes the connection pool
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

// Publish sends one event
func (p *RedisPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends the events in one pipeline
func (p *RedisPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if len(batch) == 0 {
		return nil
	}

	pipe := p.rdb.TxPipeline()
	for _, e := range batch {
		env, err := NewEnvelope(e)
		if err != nil {
			p.logger.Error("Failed to marshal event", zap.Error(err), zap.String("event_type", e.GetEventType()))
			continue
		}
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		pipe.Publish(ctx, p.channel, payload)
		pipe.LPush(ctx, p.RecentKey(), payload)
	}
	pipe.LTrim(ctx, p.RecentKey(), 0, recentLimit-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish events to redis: %w", err)
	}

	p.logger.Debug("Events published to Redis", zap.Int("count", len(batch)), zap.String("channel", p.channel))
	return nil
}
