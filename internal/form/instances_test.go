package form

import (
	"context"
	"testing"
	"time"

	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstances_AcquireReturnsSameInstance(t *testing.T) {
	r := NewInstances(0, time.Minute, logger.NewTestLogger(t))
	defer r.Close()

	a, created := r.Acquire("s1", "create-shop", map[string]interface{}{"region": "NCR"})
	assert.True(t, created)
	b, created := r.Acquire("s1", "create-shop", nil)
	assert.False(t, created)
	c, _ := r.Acquire("s2", "create-shop", nil)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "s1:create-shop", a.Key)
	assert.Equal(t, "NCR", b.Draft.GetString("region"))
	assert.Equal(t, models.StateIdle, a.State())
}

func TestInstances_SweepSkipsSubmitting(t *testing.T) {
	r := NewInstances(0, time.Minute, logger.NewTestLogger(t))
	defer r.Close()

	idle, _ := r.Acquire("s1", "login", nil)
	busy, _ := r.Acquire("s1", "create-shop", nil)
	_, ok := busy.begin()
	require.True(t, ok)

	n := r.Sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 1, n)

	_, found := r.Lookup("s1", "login")
	assert.False(t, found)
	_, found = r.Lookup("s1", "create-shop")
	assert.True(t, found)

	idle.Draft.Set("name", "ignored after close")
	assert.Empty(t, idle.Draft.GetString("name"))
}

func TestInstances_RemoveSession(t *testing.T) {
	r := NewInstances(0, time.Minute, logger.NewTestLogger(t))
	defer r.Close()

	r.Acquire("s1", "login", nil)
	r.Acquire("s1", "signup", nil)
	r.Acquire("s2", "login", nil)

	r.RemoveSession("s1")
	assert.Equal(t, 1, r.Len())
}

func TestInstances_RunStopsOnCancel(t *testing.T) {
	defer verifyNoLeaks(t)()
	r := NewInstances(0, time.Millisecond, logger.NewNoOpLogger())
	r.Acquire("s1", "login", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
