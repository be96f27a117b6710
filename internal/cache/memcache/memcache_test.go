package memcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemCache_GetSetExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := New().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "cep:01310100", []byte("v"), time.Hour))

	b, ok, err := c.Get(ctx, "cep:01310100")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	now = now.Add(time.Hour)
	_, ok, err = c.Get(ctx, "cep:01310100")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemCache_KeysPurge(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "cep:2", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "cep:1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "other", []byte("x"), time.Minute))

	keys, err := c.Keys(ctx, "cep:")
	require.NoError(t, err)
	require.Equal(t, []string{"cep:1", "cep:2"}, keys)

	n, err := c.Purge(ctx, "cep:")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, ok, _ := c.Get(ctx, "other")
	require.True(t, ok)
}
