package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
	"github.com/fizzlabs/fizzbuzz-service/internal/metrics"
	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// RedisCache caches sequences in Redis with a fixed TTL.
type RedisCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	opTimeout time.Duration
	log       *logger.Logger
}

var _ SequenceCache = (*RedisCache)(nil)

// NewRedisCache constructs a Redis-backed sequence cache.
func NewRedisCache(client redis.UniversalClient, ttl, opTimeout time.Duration, log *logger.Logger) *RedisCache {
	if log == nil {
		log = logger.NewDefault("cache")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if opTimeout <= 0 {
		opTimeout = 500 * time.Millisecond
	}
	return &RedisCache{client: client, ttl: ttl, opTimeout: opTimeout, log: log}
}

func (c *RedisCache) Get(ctx context.Context, req fizzbuzz.Request) ([]string, bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	raw, err := c.client.Get(opCtx, Key(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, false
	}
	if err != nil {
		// Fail open: a slow or broken cache is a miss, not an error.
		c.log.WithError(err).WithField("key", Key(req)).Warn("cache get failed, treating as miss")
		metrics.RecordCacheError()
		return nil, false
	}

	var sequence []string
	if err := json.Unmarshal(raw, &sequence); err != nil {
		c.log.WithError(err).WithField("key", Key(req)).Warn("cache entry corrupt, treating as miss")
		metrics.RecordCacheError()
		return nil, false
	}

	metrics.RecordCacheHit()
	return sequence, true
}

func (c *RedisCache) Set(ctx context.Context, req fizzbuzz.Request, sequence []string) {
	raw, err := json.Marshal(sequence)
	if err != nil {
		c.log.WithError(err).Warn("cache encode failed")
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	key := Key(req)

	// Delete before writing so a replaced entry always starts a fresh TTL
	// instead of inheriting state from whatever was there before.
	pipe := c.client.TxPipeline()
	pipe.Del(opCtx, key)
	pipe.Set(opCtx, key, raw, c.ttl)
	if _, err := pipe.Exec(opCtx); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
		metrics.RecordCacheError()
	}
}

func (c *RedisCache) Clear(ctx context.Context, req fizzbuzz.Request) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(opCtx, Key(req)).Err(); err != nil {
		c.log.WithError(err).WithField("key", Key(req)).Warn("cache clear failed")
	}
}
