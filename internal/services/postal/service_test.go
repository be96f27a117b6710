package postal

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/ShipBox/internal/cache/memcache"
	"github.com/BearBump/ShipBox/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls int
	addr  models.AddressInfo
	err   error
}

func (c *countingClient) Lookup(ctx context.Context, cep string) (models.AddressInfo, error) {
	c.calls++
	return c.addr, c.err
}

func TestNormalize(t *testing.T) {
	cep, err := Normalize("01310-100")
	require.NoError(t, err)
	require.Equal(t, "01310100", cep)

	for _, raw := range []string{"", "1234567", "123456789", "abc", "0131-010"} {
		_, err := Normalize(raw)
		require.ErrorIs(t, err, models.ErrInvalidPostalCode, raw)
	}
}

func TestResolve_InvalidFormat_NoNetwork(t *testing.T) {
	cl := &countingClient{}
	s := New(cl, memcache.New(), 0)

	_, err := s.Resolve(context.Background(), "12-34")
	require.ErrorIs(t, err, models.ErrInvalidPostalCode)
	require.Zero(t, cl.calls)
}

func TestResolve_CachesWithinTTL(t *testing.T) {
	cl := &countingClient{addr: models.AddressInfo{CEP: "01310-100", City: "São Paulo", State: "SP"}}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := memcache.New().WithClock(func() time.Time { return now })
	s := New(cl, mc, 0)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	a1, err := s.Resolve(ctx, "01310-100")
	require.NoError(t, err)
	a2, err := s.Resolve(ctx, "01310100")
	require.NoError(t, err)
	require.Equal(t, a1, a2)
	require.Equal(t, 1, cl.calls)

	now = now.Add(24 * time.Hour)
	_, err = s.Resolve(ctx, "01310100")
	require.NoError(t, err)
	require.Equal(t, 2, cl.calls)
}

func TestResolve_ErrorsNotCached(t *testing.T) {
	cl := &countingClient{err: errors.Wrap(models.ErrLookupTimeout, "slow")}
	s := New(cl, memcache.New(), 0)

	ctx := context.Background()
	_, err := s.Resolve(ctx, "01310100")
	require.ErrorIs(t, err, models.ErrLookupTimeout)
	_, err = s.Resolve(ctx, "01310100")
	require.ErrorIs(t, err, models.ErrLookupTimeout)
	require.Equal(t, 2, cl.calls)
}

func TestCacheStatsAndClear(t *testing.T) {
	cl := &countingClient{addr: models.AddressInfo{City: "Curitiba", State: "PR"}}
	s := New(cl, memcache.New(), 0)
	ctx := context.Background()

	_, err := s.Resolve(ctx, "80010000")
	require.NoError(t, err)

	st, ok, err := s.CacheStats(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, st.Size)
	require.Equal(t, []string{"80010000"}, st.Entries)

	ok, err = s.ClearCache(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.Resolve(ctx, "80010000")
	require.NoError(t, err)
	require.Equal(t, 2, cl.calls)
}

func TestCacheStats_NoCache(t *testing.T) {
	s := New(&countingClient{}, nil, 0)
	_, ok, err := s.CacheStats(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}
