package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/ShipBox/internal/models"
)

func TestTrackings_UpsertMergesEvents(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trackings.json")
	s := NewTrackings(path).WithClock(fixedClock())

	ev1 := models.TrackingEvent{Date: "10/03/2026", Time: "09:00", Status: "Objeto postado"}
	ev2 := models.TrackingEvent{Date: "11/03/2026", Time: "14:30", Status: "Objeto em trânsito"}

	first, err := s.UpsertTracking(ctx, &models.Tracking{OrderID: "o1", TrackingCode: "AA123456789BR", Status: models.TrackingStatusPending, Events: []models.TrackingEvent{ev1}})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := s.UpsertTracking(ctx, &models.Tracking{OrderID: "o1", TrackingCode: "AA123456789BR", Status: models.TrackingStatusInTransit, Events: []models.TrackingEvent{ev1, ev2}})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, second.Events, 2)

	got, err := s.GetTrackingByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, models.TrackingStatusInTransit, got.Status)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc["trackings"], 1)
}

func TestTrackings_UpsertCodeOfAnotherOrderConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewTrackings(filepath.Join(t.TempDir(), "trackings.json")).WithClock(fixedClock())

	_, err := s.UpsertTracking(ctx, &models.Tracking{OrderID: "o1", TrackingCode: "AA1BR", Status: models.TrackingStatusPending})
	require.NoError(t, err)
	_, err = s.UpsertTracking(ctx, &models.Tracking{OrderID: "o2", TrackingCode: "BB2BR", Status: models.TrackingStatusPending})
	require.NoError(t, err)

	_, err = s.UpsertTracking(ctx, &models.Tracking{OrderID: "o1", TrackingCode: "BB2BR", Status: models.TrackingStatusPending})
	require.True(t, errors.Is(err, models.ErrConflict))

	// файл не изменился
	o1, err := s.GetTrackingByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "AA1BR", o1.TrackingCode)
	_, total, err := s.ListTrackings(ctx, models.TrackingFilter{}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	// перепривязка заказа на свободный код разрешена
	moved, err := s.UpsertTracking(ctx, &models.Tracking{OrderID: "o1", TrackingCode: "CC3BR", Status: models.TrackingStatusPending})
	require.NoError(t, err)
	require.Equal(t, o1.ID, moved.ID)
}

func TestTrackings_RemoveAndMissing(t *testing.T) {
	ctx := context.Background()
	s := NewTrackings(filepath.Join(t.TempDir(), "trackings.json"))

	_, err := s.GetTrackingByCode(ctx, "NOPE")
	require.True(t, errors.Is(err, models.ErrNotFound))

	_, err = s.UpsertTracking(ctx, &models.Tracking{OrderID: "o1", TrackingCode: "C1", Status: models.TrackingStatusPending})
	require.NoError(t, err)

	removed, err := s.RemoveTrackingByCode(ctx, "C1")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = s.RemoveTrackingByCode(ctx, "C1")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestTrackings_DueForSyncAndList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trackings.json")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-2 * time.Hour)
	fresh := now.Add(-10 * time.Minute)

	doc := map[string][]*models.Tracking{"trackings": {
		{ID: "1", TrackingCode: "DUE", Status: models.TrackingStatusInTransit, LastChecked: &old},
		{ID: "2", TrackingCode: "FRESH", Status: models.TrackingStatusPending, LastChecked: &fresh},
		{ID: "3", TrackingCode: "DONE", Status: models.TrackingStatusDelivered, LastChecked: &old},
		{ID: "4", TrackingCode: "BROKEN", Status: models.TrackingStatusPending, LastChecked: &old, ErrorCount: 5},
		{ID: "5", TrackingCode: "NEVER", Status: models.TrackingStatusPending},
	}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	s := NewTrackings(path)
	due, err := s.ListDueForSync(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "DUE", due[0].TrackingCode)

	page, total, err := s.ListTrackings(ctx, models.TrackingFilter{}, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Equal(t, []string{"FRESH", "DUE"}, []string{page[0].TrackingCode, page[1].TrackingCode})

	pending, total, err := s.ListTrackings(ctx, models.TrackingFilter{Status: models.TrackingStatusPending}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, pending, 3)
	require.Equal(t, "NEVER", pending[2].TrackingCode)

	empty, total, err := s.ListTrackings(ctx, models.TrackingFilter{}, 10, 50)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Empty(t, empty)
}
