package reconcile

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker guards a sweep so that only one instance runs it at a time.
type Locker interface {
	// Acquire returns true when the caller now holds the lock.
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// releaseScript deletes the lock key only when the stored token matches,
// so an expired lock taken over by another instance is never released
// out from under it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is a single-key SET NX EX lock. The TTL bounds how long a
// crashed holder can block other instances.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	token  string
}

var _ Locker = (*RedisLock)(nil)

// NewRedisLock creates a lock on the given key with the given TTL.
func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
	l.token = ""
	if err == redis.Nil {
		return nil
	}
	return err
}

// NoopLock always grants the lock. Used when a deployment runs a single
// reconcile instance and needs no coordination.
type NoopLock struct{}

var _ Locker = NoopLock{}

func (NoopLock) Acquire(context.Context) (bool, error) { return true, nil }
func (NoopLock) Release(context.Context) error         { return nil }
