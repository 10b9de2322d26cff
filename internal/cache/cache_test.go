package cache

import (
	"context"
	"testing"
	"time"

	"city-tours/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, "k", "v", 20*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, "k")
		return err == ErrNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestTake_ConsumesOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, "reset:abc", "user-1", time.Hour))

	v, err := Take(ctx, s, "reset:abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", v)

	_, err = Take(ctx, s, "reset:abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_Drivers(t *testing.T) {
	s, err := New(config.CacheConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))

	s, err = New(config.CacheConfig{Driver: "redis", RedisAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, s.Close())

	_, err = New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}
