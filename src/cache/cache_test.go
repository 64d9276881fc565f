package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	_, ok := c.Get(ctx, IsinKey("i1"))
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, IsinKey("i1"), []byte(`{"id":"i1"}`), 0))
	got, ok := c.Get(ctx, IsinKey("i1"))
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"i1"}`, string(got))

	require.NoError(t, c.Delete(ctx, IsinKey("i1")))
	_, ok = c.Get(ctx, IsinKey("i1"))
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	c, err := New("", "", time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	c, err = New(BackendRedis, "127.0.0.1:6379", time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, c)

	_, err = New("memcached", "", time.Minute)
	assert.Error(t, err)
}

func TestRedisUnreachableIsAMiss(t *testing.T) {
	r := NewRedis("127.0.0.1:1")
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, ok := r.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, r.Set(ctx, "k", []byte("v"), time.Minute))
}
