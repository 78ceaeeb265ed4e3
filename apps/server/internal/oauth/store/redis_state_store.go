package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tilsley/repomark/apps/server/internal/oauth"
)

const stateKeyPrefix = "oauth:state:"

// DefaultStateTTL bounds how long a login may take before its state expires.
const DefaultStateTTL = 10 * time.Minute

// Compile-time check: *RedisStateStore implements oauth.StateStore.
var _ oauth.StateStore = (*RedisStateStore)(nil)

// RedisStateStore keeps issued OAuth states in Redis with a TTL.
type RedisStateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStateStore creates a RedisStateStore. A zero ttl means DefaultStateTTL.
func NewRedisStateStore(rdb *redis.Client, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStateStore{rdb: rdb, ttl: ttl}
}

// Save stores state. Saving the same value twice is an error.
func (s *RedisStateStore) Save(ctx context.Context, state string) error {
	ok, err := s.rdb.SetNX(ctx, stateKeyPrefix+state, 1, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if !ok {
		return fmt.Errorf("state %q already issued", state)
	}
	return nil
}

// Consume deletes state, reporting whether it was present. DEL is atomic, so
// a state can be consumed at most once.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := s.rdb.Del(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		return false, fmt.Errorf("consume state: %w", err)
	}
	return n == 1, nil
}
