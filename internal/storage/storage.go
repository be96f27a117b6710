package storage

import (
	"context"
	"time"

	"github.com/BearBump/ShipBox/internal/models"
)

type RegionRepository interface {
	ListRegions(ctx context.Context, f models.RegionFilter) ([]*models.Region, error)
	GetRegion(ctx context.Context, id string) (*models.Region, error)
	CreateRegion(ctx context.Context, r *models.Region) (*models.Region, error)
	UpdateRegion(ctx context.Context, id string, patch models.RegionPatch) (*models.Region, error)
	DeleteRegion(ctx context.Context, id string) error
	ToggleRegion(ctx context.Context, id string) (*models.Region, error)
}

type TrackingRepository interface {
	UpsertTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error)
	GetTrackingByCode(ctx context.Context, code string) (*models.Tracking, error)
	GetTrackingByOrder(ctx context.Context, orderID string) (*models.Tracking, error)
	RemoveTrackingByCode(ctx context.Context, code string) (bool, error)
	ListDueForSync(ctx context.Context, now time.Time) ([]*models.Tracking, error)
	ListTrackings(ctx context.Context, f models.TrackingFilter, limit, offset int) ([]*models.Tracking, int, error)
}

// OrderRepository: доступ к чужим заказам: только чтение и аннотация трекинга.
type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUserOrders(ctx context.Context, userID string, statuses []string) ([]*models.Order, error)
	SetOrderTracking(ctx context.Context, orderID, code, status string, at time.Time) error
	UpdateOrderTrackingStatus(ctx context.Context, orderID, status string, at time.Time) error
	ClearOrderTracking(ctx context.Context, orderID string) error
}

type Prober interface {
	Ready(ctx context.Context) bool
}
