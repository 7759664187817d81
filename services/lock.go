package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockBusy is returned when another holder owns the lock
var ErrLockBusy = errors.New("resource is locked by another request")

// Locker serializes work on one key across API instances
type Locker interface {
	// Lock acquires key and returns the function that releases it
	Lock(ctx context.Context, key string) (func(), error)
}

// RedisLocker implements Locker with SET NX and a TTL so a crashed holder
// cannot keep the key forever
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisLocker creates a locker on client. Keys expire after ttl.
func NewRedisLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, log: log}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = "lock:" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockBusy
	}

	return func() {
		if err := l.unlock(key, token); err != nil {
			l.log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// unlockScript deletes the key only while it still holds the caller's token;
// after a TTL expiry the key may belong to someone else
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLocker) unlock(key, token string) error {
	return unlockScript.Run(context.Background(), l.client, []string{key}, token).Err()
}

// NoopLocker grants every lock immediately. Used when Redis is not configured;
// the conditional updates in the store still guard every transition.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
