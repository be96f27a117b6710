package pgstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

// insertEvents дописывает события после уже сохранённых, порядок перевозчика сохраняется через seq.
func insertEvents(ctx context.Context, q querier, trackingID string, events []models.TrackingEvent, now time.Time) error {
	if len(events) == 0 {
		return nil
	}
	var base int
	if err := q.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM tracking_events WHERE tracking_id = $1`, trackingID).Scan(&base); err != nil {
		return errors.Wrap(err, "select max event seq")
	}
	for i, e := range events {
		sub := e.SubStatus
		if sub == nil {
			sub = []string{}
		}
		_, err := q.Exec(ctx, `
INSERT INTO tracking_events (
  tracking_id, seq, event_date, event_time, location, status, sub_status, observation, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (tracking_id, event_date, event_time, status) DO NOTHING
`, trackingID, base+i+1, e.Date, e.Time, e.Location, e.Status, sub, e.Observation, now)
		if err != nil {
			return errors.Wrap(err, "insert tracking event")
		}
	}
	return nil
}

func (s *Storage) attachEvents(ctx context.Context, q querier, list []*models.Tracking) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*models.Tracking, len(list))
	ids := make([]string, 0, len(list))
	for _, t := range list {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	rows, err := q.Query(ctx, `
SELECT tracking_id, event_date, event_time, location, status, sub_status, observation
FROM tracking_events
WHERE tracking_id = ANY($1)
ORDER BY tracking_id, seq
`, ids)
	if err != nil {
		return errors.Wrap(err, "select events")
	}
	defer rows.Close()

	for rows.Next() {
		var trackingID string
		var e models.TrackingEvent
		if err := rows.Scan(&trackingID, &e.Date, &e.Time, &e.Location, &e.Status, &e.SubStatus, &e.Observation); err != nil {
			return errors.Wrap(err, "scan event")
		}
		if len(e.SubStatus) == 0 {
			e.SubStatus = nil
		}
		if t, ok := byID[trackingID]; ok {
			t.Events = append(t.Events, e)
		}
	}
	if rows.Err() != nil {
		return errors.Wrap(rows.Err(), "rows")
	}
	return nil
}
