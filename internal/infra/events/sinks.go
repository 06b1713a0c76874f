package events

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"storefront-customizer/internal/infra/logger"
)

// RedisSink publishes each event as JSON on a pub/sub channel.
type RedisSink struct {
	rdb     goredis.UniversalClient
	channel string
}

func NewRedisSink(rdb goredis.UniversalClient, channel string) (*RedisSink, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		channel = "customizer.events"
	}
	return &RedisSink{rdb: rdb, channel: channel}, nil
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, raw).Err()
}

// LogSink writes each event to the structured log.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.With("sink", "events")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, e Event) error {
	s.log.Info("event", "event", e.Name, "event_id", e.ID, "store_id", e.StoreID, "source", e.Source, "payload", e.Payload)
	return nil
}
