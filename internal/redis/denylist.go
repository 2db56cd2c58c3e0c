package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func denyKey(jti string) string { return "auth:denylist:" + jti }

// TokenDenylist records revoked token IDs until their natural expiry.
// Logout writes an entry with TTL = remaining token life; Redis key expiry
// is the sweep, so no background cleanup is needed.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type denylist struct {
	client *redis.Client
}

// NewTokenDenylist creates a Redis-backed TokenDenylist.
func NewTokenDenylist(client *redis.Client) TokenDenylist {
	return &denylist{client: client}
}

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

func (d *denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired; nothing to deny.
		return nil
	}
	if err := d.client.Set(ctx, denyKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke token %s: %w", jti, err)
	}
	return nil
}

func (d *denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := d.client.Get(ctx, denyKey(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis check token %s: %w", jti, err)
	}
	return true, nil
}
