package dualstore

import (
	"context"
	"time"

	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/storage"
)

type Trackings struct {
	b *backend[storage.TrackingRepository]
}

func NewTrackings(primary, fallback storage.TrackingRepository, probe storage.Prober) *Trackings {
	if primary == nil {
		probe = nil
	}
	return &Trackings{b: &backend[storage.TrackingRepository]{name: "trackings", primary: primary, fallback: fallback, probe: probe}}
}

func (t *Trackings) UsingPrimary(ctx context.Context) bool { return t.b.usePrimary(ctx) }

func (t *Trackings) UpsertTracking(ctx context.Context, tr *models.Tracking) (*models.Tracking, error) {
	return call(ctx, t.b, "upsert", func(s storage.TrackingRepository) (*models.Tracking, error) {
		return s.UpsertTracking(ctx, tr)
	})
}

func (t *Trackings) GetTrackingByCode(ctx context.Context, code string) (*models.Tracking, error) {
	return call(ctx, t.b, "get_by_code", func(s storage.TrackingRepository) (*models.Tracking, error) {
		return s.GetTrackingByCode(ctx, code)
	})
}

func (t *Trackings) GetTrackingByOrder(ctx context.Context, orderID string) (*models.Tracking, error) {
	return call(ctx, t.b, "get_by_order", func(s storage.TrackingRepository) (*models.Tracking, error) {
		return s.GetTrackingByOrder(ctx, orderID)
	})
}

func (t *Trackings) RemoveTrackingByCode(ctx context.Context, code string) (bool, error) {
	return call(ctx, t.b, "remove", func(s storage.TrackingRepository) (bool, error) {
		return s.RemoveTrackingByCode(ctx, code)
	})
}

func (t *Trackings) ListDueForSync(ctx context.Context, now time.Time) ([]*models.Tracking, error) {
	return call(ctx, t.b, "list_due", func(s storage.TrackingRepository) ([]*models.Tracking, error) {
		return s.ListDueForSync(ctx, now)
	})
}

type page struct {
	items []*models.Tracking
	total int
}

func (t *Trackings) ListTrackings(ctx context.Context, f models.TrackingFilter, limit, offset int) ([]*models.Tracking, int, error) {
	p, err := call(ctx, t.b, "list", func(s storage.TrackingRepository) (page, error) {
		items, total, err := s.ListTrackings(ctx, f, limit, offset)
		return page{items: items, total: total}, err
	})
	return p.items, p.total, err
}
