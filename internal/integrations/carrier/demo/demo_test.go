package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 16, 45, 0, 0, time.UTC)
	c := New().WithClock(func() time.Time { return now })

	a, err := c.GetTracking(context.Background(), "AA123456789BR")
	require.NoError(t, err)
	require.Equal(t, Service, a.Service)
	require.Len(t, a.Events, 2)
	require.Equal(t, "10/03/2026", a.Events[0].Date)
	require.Equal(t, "Objeto postado", a.Events[0].Status)
	require.Equal(t, "09/03/2026", a.Events[1].Date)
	require.Equal(t, "14:30", a.Events[1].Time)

	later := now.Add(time.Hour)
	c.WithClock(func() time.Time { return later })
	b, err := c.GetTracking(context.Background(), "AA123456789BR")
	require.NoError(t, err)
	require.Equal(t, a.Events, b.Events)
}
