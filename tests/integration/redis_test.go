//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/Codesplay12/Taskify/internal/redis"
)

// newRedisClient returns a client connected to the test container and flushes
// the database on test cleanup so tests don't interfere with each other.
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	t.Cleanup(func() {
		client.FlushDB(context.Background()) //nolint:errcheck
		client.Close()                       //nolint:errcheck
	})
	return client
}

// ── token denylist ───────────────────────────────────────────────────────────

func TestDenylist_RevokeAndCheck(t *testing.T) {
	denylist := redisstore.NewTokenDenylist(newRedisClient(t))
	ctx := context.Background()

	revoked, err := denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "unknown jti is not revoked")

	require.NoError(t, denylist.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestDenylist_EntryExpires(t *testing.T) {
	denylist := redisstore.NewTokenDenylist(newRedisClient(t))
	ctx := context.Background()

	require.NoError(t, denylist.Revoke(ctx, "jti-short", 100*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	revoked, err := denylist.IsRevoked(ctx, "jti-short")
	require.NoError(t, err)
	assert.False(t, revoked, "entry should expire with the token")
}

func TestDenylist_ExpiredTokenIsNoop(t *testing.T) {
	denylist := redisstore.NewTokenDenylist(newRedisClient(t))
	ctx := context.Background()

	// Negative TTL means the token is already past its expiry.
	require.NoError(t, denylist.Revoke(ctx, "jti-expired", -time.Minute))

	revoked, err := denylist.IsRevoked(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

// ── rate limiter ─────────────────────────────────────────────────────────────

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 5, time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(ctx, "within-limit")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 3, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "over-limit")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "over-limit")
	require.NoError(t, err)
	assert.False(t, ok, "4th request should be rate-limited")
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	// Use a short window so the test doesn't take too long.
	window := 200 * time.Millisecond
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 2, window)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "expiry-key")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "expiry-key")
	require.NoError(t, err)
	assert.False(t, ok, "should be blocked within window")

	// After the window expires, the limit resets.
	time.Sleep(window + 50*time.Millisecond)

	ok, err = limiter.Allow(ctx, "expiry-key")
	require.NoError(t, err)
	assert.True(t, ok, "should be allowed after window expires")
}

func TestRateLimiter_IndependentKeys(t *testing.T) {
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 1, time.Second)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "key-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "key-a")
	require.NoError(t, err)
	assert.False(t, ok, "key-a should be limited")

	// key-b has its own independent window.
	ok, err = limiter.Allow(ctx, "key-b")
	require.NoError(t, err)
	assert.True(t, ok, "key-b should be independent of key-a")
}
