// Package lock provides a Redis try-lock with owner tokens, used to keep two
// bookings for the same professional and day from racing each other.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNotOwner is returned when unlocking a key held by someone else.
var ErrNotOwner = errors.New("lock not owned by this client")

// DefaultTTL bounds how long a crashed holder can block a key.
const DefaultTTL = 30 * time.Second

// unlockScript deletes the key only if it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
if redis.call("EXISTS", KEYS[1]) == 1 then
	return -1
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{
		client: client,
		prefix: "lock:",
		ttl:    ttl,
		logger: logger.With().Str("component", "lock").Logger(),
	}
}

// TryLock sets key if absent. ok is false when another owner holds it.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock %s: %w", key, err)
	}
	if !ok {
		l.logger.Debug().Str("key", key).Msg("lock held elsewhere")
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases key if token still owns it. An expired key is not an error.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	res, err := unlockScript.Run(ctx, l.client, []string{l.prefix + key}, token).Int()
	if err != nil {
		return fmt.Errorf("unlock %s: %w", key, err)
	}
	if res == -1 {
		l.logger.Warn().Str("key", key).Msg("lock ownership mismatch on unlock")
		return ErrNotOwner
	}
	return nil
}
