package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

const trackingColumns = `
  id, order_id, tracking_code, status, servico,
  last_checked, last_update, error_count, last_error,
  created_at, updated_at`

func scanTracking(row pgx.Row) (*models.Tracking, error) {
	var t models.Tracking
	if err := row.Scan(
		&t.ID, &t.OrderID, &t.TrackingCode, &t.Status, &t.Servico,
		&t.LastChecked, &t.LastUpdate, &t.ErrorCount, &t.LastError,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Events = []models.TrackingEvent{}
	return &t, nil
}

func (s *Storage) queryTrackings(ctx context.Context, q querier, sql string, args ...any) ([]*models.Tracking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select trackings")
	}
	defer rows.Close()

	out := make([]*models.Tracking, 0)
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan tracking")
		}
		out = append(out, t)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	// события читаются отдельным запросом на том же соединении
	if err := s.attachEvents(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Storage) getTracking(ctx context.Context, where, what string, arg any) (*models.Tracking, error) {
	list, err := s.queryTrackings(ctx, s.db, `SELECT`+trackingColumns+` FROM trackings WHERE `+where+` LIMIT 1`, arg)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(models.ErrNotFound, "tracking %s", what)
	}
	return list[0], nil
}

func (s *Storage) GetTrackingByCode(ctx context.Context, code string) (*models.Tracking, error) {
	return s.getTracking(ctx, `tracking_code = $1`, code, code)
}

func (s *Storage) GetTrackingByOrder(ctx context.Context, orderID string) (*models.Tracking, error) {
	return s.getTracking(ctx, `order_id = $1`, "for order "+orderID, orderID)
}

// UpsertTracking ищет запись по коду или по заказу, обновляет поля
// и дописывает новые события; дубли отсекает уникальный индекс.
func (s *Storage) UpsertTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
SELECT id FROM trackings
WHERE tracking_code = $1 OR ($2 <> '' AND order_id = $2)
ORDER BY (tracking_code = $1) DESC
LIMIT 1
FOR UPDATE
`, t.TrackingCode, t.OrderID).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.Exec(ctx, `
INSERT INTO trackings (`+trackingColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
`, id, t.OrderID, t.TrackingCode, t.Status, t.Servico,
			utcPtr(t.LastChecked), now, t.ErrorCount, t.LastError, now)
	case err != nil:
		return nil, errors.Wrap(err, "select tracking for upsert")
	default:
		_, err = tx.Exec(ctx, `
UPDATE trackings SET
  order_id = $2, tracking_code = $3, status = $4, servico = $5,
  last_checked = $6, last_update = $7, error_count = $8, last_error = $9,
  updated_at = $7
WHERE id = $1
`, id, t.OrderID, t.TrackingCode, t.Status, t.Servico,
			utcPtr(t.LastChecked), now, t.ErrorCount, t.LastError)
	}
	if isUniqueViolation(err) {
		return nil, errors.Wrapf(models.ErrConflict, "tracking %s", t.TrackingCode)
	}
	if err != nil {
		return nil, errors.Wrap(err, "write tracking")
	}

	if err := insertEvents(ctx, tx, id, t.Events, now); err != nil {
		return nil, err
	}

	list, err := s.queryTrackings(ctx, tx, `SELECT`+trackingColumns+` FROM trackings WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(models.ErrNotFound, "tracking %s", t.TrackingCode)
	}
	return list[0], nil
}

func (s *Storage) RemoveTrackingByCode(ctx context.Context, code string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM trackings WHERE tracking_code = $1`, code)
	if err != nil {
		return false, errors.Wrap(err, "delete tracking")
	}
	return tag.RowsAffected() > 0, nil
}

// ListDueForSync: то же условие, что models.Tracking.DueForSync.
func (s *Storage) ListDueForSync(ctx context.Context, now time.Time) ([]*models.Tracking, error) {
	return s.queryTrackings(ctx, s.db, `
SELECT`+trackingColumns+`
FROM trackings
WHERE status NOT IN ($1, $2)
  AND error_count < $3
  AND COALESCE(last_checked, last_update) < $4
ORDER BY COALESCE(last_checked, last_update) ASC
`, models.TrackingStatusDelivered, models.TrackingStatusReturned, models.MaxTrackingErrors, now.UTC().Add(-models.SyncInterval))
}

func (s *Storage) ListTrackings(ctx context.Context, f models.TrackingFilter, limit, offset int) ([]*models.Tracking, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM trackings WHERE ($1 = '' OR status = $1)`, f.Status).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count trackings")
	}
	if limit <= 0 {
		limit = total
	}
	list, err := s.queryTrackings(ctx, s.db, `
SELECT`+trackingColumns+`
FROM trackings
WHERE ($1 = '' OR status = $1)
ORDER BY last_checked DESC NULLS LAST, created_at DESC
LIMIT $2 OFFSET $3
`, f.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
