package form

import (
	"context"
	"testing"
	"time"

	"marketplace-gateway/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLocalGate(t *testing.T) {
	g := NewLocalGate()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "s1:create-shop", time.Minute)
	require.NoError(t, err)

	_, err = g.Acquire(ctx, "s1:create-shop", time.Minute)
	assert.ErrorIs(t, err, ErrGateHeld)

	other, err := g.Acquire(ctx, "s2:create-shop", time.Minute)
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := g.Acquire(ctx, "s1:create-shop", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisGate_AcquireRelease(t *testing.T) {
	mr, client := setupRedis(t)
	g := NewRedisGate(client, logger.NewTestLogger(t))
	ctx := context.Background()

	release, err := g.Acquire(ctx, "s1:create-shop", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("submit-lock:s1:create-shop"))

	_, err = g.Acquire(ctx, "s1:create-shop", time.Minute)
	assert.ErrorIs(t, err, ErrGateHeld)

	release()
	assert.False(t, mr.Exists("submit-lock:s1:create-shop"))
}

func TestRedisGate_ReleaseKeepsForeignLock(t *testing.T) {
	mr, client := setupRedis(t)
	g := NewRedisGate(client, logger.NewTestLogger(t))
	ctx := context.Background()

	release, err := g.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// our lock expired and another replica took the key
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("submit-lock:k", "someone-else"))

	release()
	got, err := mr.Get("submit-lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisGate_FailsOpen(t *testing.T) {
	mr, client := setupRedis(t)
	g := NewRedisGate(client, logger.NewTestLogger(t))
	mr.Close()

	release, err := g.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	release()
}
