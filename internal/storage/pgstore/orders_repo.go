package pgstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

func (s *Storage) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	var code, status *string
	err := s.db.QueryRow(ctx, `
SELECT id, user_id, status, tracking_code, tracking_status, last_tracking_update, tracking_notifications
FROM orders WHERE id = $1
`, id).Scan(&o.ID, &o.UserID, &o.Status, &code, &status, &o.LastTrackingUpdate, &o.TrackingNotifications)
	if err != nil {
		return nil, notFound(err, models.ErrNotFound, "select order "+id)
	}
	if code != nil {
		o.TrackingCode = *code
	}
	if status != nil {
		o.TrackingStatus = *status
	}
	return &o, nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, notFound(err, models.ErrNotFound, "select user "+id)
	}
	return &u, nil
}

// ListUserOrders возвращает заказы пользователя; пустой statuses: без фильтра.
func (s *Storage) ListUserOrders(ctx context.Context, userID string, statuses []string) ([]*models.Order, error) {
	if statuses == nil {
		statuses = []string{}
	}
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, status, COALESCE(tracking_code, ''), COALESCE(tracking_status, ''), last_tracking_update, tracking_notifications
FROM orders
WHERE user_id = $1
  AND (cardinality($2::text[]) = 0 OR status = ANY($2))
ORDER BY id
`, userID, statuses)
	if err != nil {
		return nil, errors.Wrap(err, "select user orders")
	}
	defer rows.Close()

	out := make([]*models.Order, 0)
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TrackingCode, &o.TrackingStatus, &o.LastTrackingUpdate, &o.TrackingNotifications); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, &o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) SetOrderTracking(ctx context.Context, orderID, code, status string, at time.Time) error {
	_, err := s.db.Exec(ctx, `
UPDATE orders SET tracking_code = $2, tracking_status = $3, last_tracking_update = $4
WHERE id = $1
`, orderID, code, status, at.UTC())
	return errors.Wrap(err, "annotate order tracking")
}

func (s *Storage) UpdateOrderTrackingStatus(ctx context.Context, orderID, status string, at time.Time) error {
	_, err := s.db.Exec(ctx, `
UPDATE orders SET tracking_status = $2, last_tracking_update = $3
WHERE id = $1
`, orderID, status, at.UTC())
	return errors.Wrap(err, "update order tracking status")
}

func (s *Storage) ClearOrderTracking(ctx context.Context, orderID string) error {
	_, err := s.db.Exec(ctx, `
UPDATE orders SET tracking_code = NULL, tracking_status = NULL, last_tracking_update = NULL
WHERE id = $1
`, orderID)
	return errors.Wrap(err, "clear order tracking")
}
