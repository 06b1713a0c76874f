package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"storefront-customizer/internal/infra/logger"
)

// RedisInvalidator drops cached storefront renders keyed by path and
// announces the invalidation so other render nodes can purge local caches.
type RedisInvalidator struct {
	log       *logger.Logger
	rdb       goredis.UniversalClient
	keyPrefix string
	channel   string
}

type invalidationMessage struct {
	Paths []string  `json:"paths"`
	At    time.Time `json:"at"`
}

func NewRedisInvalidator(log *logger.Logger, rdb goredis.UniversalClient, keyPrefix, channel string) (*RedisInvalidator, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if strings.TrimSpace(channel) == "" {
		channel = "storefront.invalidate"
	}
	if keyPrefix == "" {
		keyPrefix = "render:"
	}
	return &RedisInvalidator{
		log:       log.With("service", "RedisInvalidator"),
		rdb:       rdb,
		keyPrefix: keyPrefix,
		channel:   channel,
	}, nil
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, r.keyPrefix+p)
	}
	raw, err := json.Marshal(invalidationMessage{Paths: paths, At: time.Now().UTC()})
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.Publish(ctx, r.channel, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	r.log.Debug("storefront cache invalidated", "paths", paths)
	return nil
}
