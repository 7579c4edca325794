package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig(t *testing.T) Config {
	t.Helper()
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}
	port := os.Getenv("REDIS_TEST_PORT")
	if port == "" {
		port = "6379"
	}
	return Config{Host: host, Port: port, DB: 15}
}

func TestRateLimitKeys(t *testing.T) {
	assert.Equal(t, "ratelimit:10.0.0.1:auth", authKey("10.0.0.1"))
	assert.Equal(t, "ratelimit:10.0.0.1:send", sendKey("10.0.0.1"))
}

func TestPresenceStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, testClientConfig(t))
	require.NoError(t, err)
	defer client.Close()
	t.Cleanup(func() { client.FlushDB(context.Background()) })

	store := NewPresenceStore(client, time.Minute)
	require.NoError(t, store.Reset(ctx))
	require.NoError(t, store.SetOnline(ctx, "u1"))

	online, err := store.GetOnlineUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, online)

	require.NoError(t, store.SetOffline(ctx, "u1"))
	status, err := store.GetPresence(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, status.IsOnline)
	assert.False(t, status.LastSeen.IsZero())
}

func TestRateLimiter_AllowAuth(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, testClientConfig(t))
	require.NoError(t, err)
	defer client.Close()
	t.Cleanup(func() { client.FlushDB(context.Background()) })

	limiter := NewRateLimiter(client, RateLimitConfig{AuthLimit: 2, AuthWindow: time.Minute})
	require.NoError(t, limiter.ResetAuth(ctx, "1.2.3.4"))

	for i := 0; i < 2; i++ {
		res, err := limiter.AllowAuth(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.AllowAuth(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}
