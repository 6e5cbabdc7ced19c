package revokedtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

// RedisRepository stores each revoked token as a key that expires together
// with the token, so Redis evicts stale entries on its own.
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

// Key returns the Redis key for token. Tokens are hashed to keep keys short.
func Key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (r *RedisRepository) Create(ctx context.Context, token string, expires time.Time) error {
	ttl := expires.Sub(r.now())
	if ttl <= 0 {
		// an expired token is rejected on its own
		return nil
	}
	if err := r.client.Set(ctx, Key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, Key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}

// DeleteExpired is a no-op: keys carry their own TTL.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
