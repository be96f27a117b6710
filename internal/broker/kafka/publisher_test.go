package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/ShipBox/internal/broker/messages"
)

func TestTrackingPublisher(t *testing.T) {
	fw := &fakeWriter{}
	pub := NewTrackingPublisher(newProducerWithWriter(fw))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return now }

	err := pub.TrackingUpdated(context.Background(), messages.TrackingUpdated{
		Kind:         messages.KindUpdate,
		TrackingCode: "AA1BR",
		OrderID:      "o1",
		NewEvents:    []messages.Event{{Date: "10/03/2026", Time: "09:00", Status: "Objeto postado"}},
	})
	require.NoError(t, err)
	require.Equal(t, TopicTrackingUpdated, fw.last[0].Topic)

	var got messages.TrackingUpdated
	require.NoError(t, json.Unmarshal(fw.last[0].Value, &got))
	require.Equal(t, now, got.SentAt)
	require.Len(t, got.NewEvents, 1)

	require.NoError(t, pub.RequestSync(context.Background(), "AA1BR"))
	require.Equal(t, TopicSyncRequested, fw.last[0].Topic)
	var req messages.SyncRequested
	require.NoError(t, json.Unmarshal(fw.last[0].Value, &req))
	require.Equal(t, "AA1BR", req.TrackingCode)
}
