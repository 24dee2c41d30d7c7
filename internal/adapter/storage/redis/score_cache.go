package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ScoreCache implements ports.ScoreCache. Postgres stays the source of
// truth; this is a volatile read-through layer in front of it.
type ScoreCache struct {
	client *goredis.Client
	prefix string
}

// NewScoreCache creates a new Redis-backed reputation score cache.
func NewScoreCache(client *goredis.Client) *ScoreCache {
	return &ScoreCache{
		client: client,
		prefix: "reputation:score:",
	}
}

// Get retrieves a cached score. The second return value reports whether the
// key was present.
func (c *ScoreCache) Get(ctx context.Context, participant uuid.UUID) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+participant.String()).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis score get: %w", err)
	}
	score, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis score parse: %w", err)
	}
	return score, true, nil
}

// Set caches a score with TTL.
func (c *ScoreCache) Set(ctx context.Context, participant uuid.UUID, score int64, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+participant.String(), score, ttl).Err(); err != nil {
		return fmt.Errorf("redis score set: %w", err)
	}
	return nil
}

// Invalidate drops the cached score after a write.
func (c *ScoreCache) Invalidate(ctx context.Context, participant uuid.UUID) error {
	if err := c.client.Del(ctx, c.prefix+participant.String()).Err(); err != nil {
		return fmt.Errorf("redis score del: %w", err)
	}
	return nil
}
