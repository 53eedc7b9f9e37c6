package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue implements Producer and Source on a Redis list. LPUSH/BRPOP
// gives FIFO delivery; a message popped by a crashed consumer is lost,
// which the reconciliation sweep compensates for.
type RedisQueue struct {
	client      redis.UniversalClient
	key         string
	popTimeout  time.Duration
	pushTimeout time.Duration
}

var (
	_ Producer = (*RedisQueue)(nil)
	_ Source   = (*RedisQueue)(nil)
)

// NewRedisQueue constructs a Redis-backed tracking queue.
func NewRedisQueue(client redis.UniversalClient, key string, popTimeout, pushTimeout time.Duration) *RedisQueue {
	if key == "" {
		key = "fizzbuzz:track"
	}
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	if pushTimeout <= 0 {
		pushTimeout = 2 * time.Second
	}
	return &RedisQueue{client: client, key: key, popTimeout: popTimeout, pushTimeout: pushTimeout}
}

func (q *RedisQueue) Publish(ctx context.Context, msg TrackMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode track message: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, q.pushTimeout)
	defer cancel()

	if err := q.client.LPush(opCtx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue track message: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context) (TrackMessage, error) {
	res, err := q.client.BRPop(ctx, q.popTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return TrackMessage{}, ErrEmpty
	}
	if err != nil {
		return TrackMessage{}, fmt.Errorf("dequeue track message: %w", err)
	}

	// BRPOP returns [key, value].
	if len(res) != 2 {
		return TrackMessage{}, fmt.Errorf("unexpected BRPOP reply of %d elements", len(res))
	}

	var msg TrackMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return TrackMessage{}, fmt.Errorf("decode track message: %w", err)
	}
	return msg, nil
}
