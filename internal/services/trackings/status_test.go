package trackings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/ShipBox/internal/models"
)

func TestClassifyEvent(t *testing.T) {
	cases := map[string]string{
		"Objeto postado":                              models.TrackingStatusPending,
		"Objeto em trânsito - por favor aguarde":      models.TrackingStatusInTransit,
		"Objeto saiu para entrega ao destinatário":    models.TrackingStatusInTransit,
		"Objeto entregue ao destinatário":             models.TrackingStatusDelivered,
		"Objeto não entregue - carteiro não atendido": models.TrackingStatusInTransit,
		"Objeto devolvido ao remetente":               models.TrackingStatusReturned,
	}
	for text, want := range cases {
		require.Equal(t, want, ClassifyEvent(models.TrackingEvent{Status: text}), text)
	}
}

func TestClassify_MostAdvanced(t *testing.T) {
	events := []models.TrackingEvent{
		{Status: "Objeto postado"},
		{Status: "Objeto entregue ao destinatário"},
		{Status: "Objeto em trânsito"},
	}
	require.Equal(t, models.TrackingStatusDelivered, Classify(events))
	require.Equal(t, models.TrackingStatusPending, Classify(nil))
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, models.TrackingStatusInTransit, Advance(ctx, models.TrackingStatusPending, models.TrackingStatusInTransit))
	require.Equal(t, models.TrackingStatusDelivered, Advance(ctx, models.TrackingStatusPending, models.TrackingStatusDelivered))
	require.Equal(t, models.TrackingStatusReturned, Advance(ctx, models.TrackingStatusInTransit, models.TrackingStatusReturned))
	require.Equal(t, models.TrackingStatusInTransit, Advance(ctx, models.TrackingStatusInTransit, models.TrackingStatusPending))
	require.Equal(t, models.TrackingStatusDelivered, Advance(ctx, models.TrackingStatusDelivered, models.TrackingStatusInTransit))
	require.Equal(t, models.TrackingStatusReturned, Advance(ctx, models.TrackingStatusReturned, models.TrackingStatusDelivered))
	require.Equal(t, models.TrackingStatusInTransit, Advance(ctx, "", models.TrackingStatusInTransit))
}
