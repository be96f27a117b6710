// Package dualstore выбирает хранилище на каждый вызов: основное (Postgres),
// если оно готово, иначе резервное (JSON-файлы). Сбой основного, не
// являющийся доменной ошибкой, прозрачно повторяется на резервном.
package dualstore

import (
	"context"
	"log/slog"

	"github.com/BearBump/ShipBox/internal/metrics"
	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/storage"
)

type backend[R any] struct {
	name     string
	primary  R
	fallback R
	probe    storage.Prober
}

// usePrimary: probe == nil означает, что основного хранилища нет вовсе.
func (b *backend[R]) usePrimary(ctx context.Context) bool {
	return b.probe != nil && b.probe.Ready(ctx)
}

func call[R any, T any](ctx context.Context, b *backend[R], op string, fn func(R) (T, error)) (T, error) {
	if b.usePrimary(ctx) {
		res, err := fn(b.primary)
		if err == nil || models.IsDomainError(err) {
			return res, err
		}
		slog.Warn("primary store failed, using file fallback", "store", b.name, "op", op, "err", err)
	}
	metrics.FallbackStoreOps.WithLabelValues(b.name).Inc()
	return fn(b.fallback)
}

// Regions: хранилище регионов с переключением на файл.
type Regions struct {
	b *backend[storage.RegionRepository]
}

// NewRegions: primary может быть nil, тогда работает только файл.
func NewRegions(primary, fallback storage.RegionRepository, probe storage.Prober) *Regions {
	if primary == nil {
		probe = nil
	}
	return &Regions{b: &backend[storage.RegionRepository]{name: "regions", primary: primary, fallback: fallback, probe: probe}}
}

// UsingPrimary: для /healthz и логов.
func (r *Regions) UsingPrimary(ctx context.Context) bool { return r.b.usePrimary(ctx) }

func (r *Regions) ListRegions(ctx context.Context, f models.RegionFilter) ([]*models.Region, error) {
	return call(ctx, r.b, "list", func(s storage.RegionRepository) ([]*models.Region, error) {
		return s.ListRegions(ctx, f)
	})
}

func (r *Regions) GetRegion(ctx context.Context, id string) (*models.Region, error) {
	return call(ctx, r.b, "get", func(s storage.RegionRepository) (*models.Region, error) {
		return s.GetRegion(ctx, id)
	})
}

func (r *Regions) CreateRegion(ctx context.Context, reg *models.Region) (*models.Region, error) {
	return call(ctx, r.b, "create", func(s storage.RegionRepository) (*models.Region, error) {
		return s.CreateRegion(ctx, reg)
	})
}

func (r *Regions) UpdateRegion(ctx context.Context, id string, patch models.RegionPatch) (*models.Region, error) {
	return call(ctx, r.b, "update", func(s storage.RegionRepository) (*models.Region, error) {
		return s.UpdateRegion(ctx, id, patch)
	})
}

func (r *Regions) DeleteRegion(ctx context.Context, id string) error {
	_, err := call(ctx, r.b, "delete", func(s storage.RegionRepository) (struct{}, error) {
		return struct{}{}, s.DeleteRegion(ctx, id)
	})
	return err
}

func (r *Regions) ToggleRegion(ctx context.Context, id string) (*models.Region, error) {
	return call(ctx, r.b, "toggle", func(s storage.RegionRepository) (*models.Region, error) {
		return s.ToggleRegion(ctx, id)
	})
}
