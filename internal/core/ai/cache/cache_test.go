package cache

import (
	"context"
	"testing"
	"time"

	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAndScoped(t *testing.T) {
	a := Key("model-a", "weights", "prompt")
	assert.Equal(t, a, Key("model-a", "weights", "prompt"))
	assert.NotEqual(t, a, Key("model-b", "weights", "prompt"))
	assert.NotEqual(t, a, Key("model-a", "lookup", "prompt"))
	assert.Contains(t, a, "llm:weights:")
}

func TestManagerGetSet(t *testing.T) {
	m := NewManager(config.CacheConfig{Enabled: true, MaxSize: 2, TTL: time.Minute})
	require.NotNil(t, m)
	ctx := context.Background()

	_, err := m.Get(ctx, "k1")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k1", "v1"))
	v, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	// 超過容量時淘汰最舊項目
	require.NoError(t, m.Set(ctx, "k2", "v2"))
	require.NoError(t, m.Set(ctx, "k3", "v3"))
	_, err = m.Get(ctx, "k2")
	assert.NoError(t, err)

	stats := m.GetStats()
	assert.Equal(t, 2, stats["size"])
	assert.Equal(t, int64(1), stats["evictions"])
	assert.Equal(t, "memory", m.Backend())
}

func TestManagerExpires(t *testing.T) {
	m := NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: 20 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "v"))

	assert.Eventually(t, func() bool {
		_, err := m.Get(ctx, "k")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestNewDisabled(t *testing.T) {
	store, err := New(context.Background(), config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.Nil(t, NewManager(config.CacheConfig{Enabled: false}))
}

func TestNewRedisUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	store, err := New(ctx, config.CacheConfig{Enabled: true, Backend: "redis", RedisAddr: "127.0.0.1:1", TTL: time.Minute})
	assert.Error(t, err)
	assert.Nil(t, store)
}
