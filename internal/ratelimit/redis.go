package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore keeps window counters in Redis so multiple instances
// share limits. INCR starts the window on the first hit and PEXPIRE NX pins
// its reset time, which reproduces the fixed-window-by-reset policy: once the
// key expires the next INCR starts a fresh window at 1.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Check(ctx context.Context, key string, limit int, window time.Duration) (Counter, bool, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return Counter{}, false, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return Counter{}, false, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return Counter{}, false, fmt.Errorf("ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// Expiry was lost (e.g. restart between INCR and PEXPIRE); repin it
		// rather than leaving an immortal counter.
		ttl = window
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return Counter{}, false, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	c := Counter{Count: int(count), ResetAt: time.Now().Add(ttl)}
	if int(count) > limit {
		return c, false, nil
	}
	return c, true, nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
