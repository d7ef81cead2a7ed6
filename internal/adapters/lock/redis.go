package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"groupevents/internal/domain"
)

const (
	redisKeyPrefix    = "lock:"
	redisRetryDelay   = 25 * time.Millisecond
	redisUnlockBudget = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis returns a Locker shared by every process using the same Redis.
// Each key is held with SET NX PX ttl; ttl bounds how long a crashed holder
// can block others.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) domain.Locker {
	return &redisLocker{client: client, ttl: ttl, logger: logger}
}

func (l *redisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	held := make([]string, 0, len(keys))
	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), redisUnlockBudget)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(ctx, l.client, []string{held[i]}, token).Err(); err != nil {
				l.logger.Warn("release lock", "key", held[i], "err", err)
			}
		}
	}

	for _, key := range keys {
		rkey := redisKeyPrefix + key
		if err := l.acquire(ctx, rkey, token); err != nil {
			unlock()
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		held = append(held, rkey)
	}
	return unlock, nil
}

func (l *redisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(redisRetryDelay)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
