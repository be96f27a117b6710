package dualstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/storage"
)

// Orders: заказы есть только в основной БД. Без неё все методы
// возвращают models.ErrOrdersUnavailable, и сервисы пропускают проверки.
type Orders struct {
	primary storage.OrderRepository
	probe   storage.Prober
}

func NewOrders(primary storage.OrderRepository, probe storage.Prober) *Orders {
	return &Orders{primary: primary, probe: probe}
}

func (o *Orders) repo(ctx context.Context) (storage.OrderRepository, error) {
	if o.primary == nil || o.probe == nil || !o.probe.Ready(ctx) {
		return nil, models.ErrOrdersUnavailable
	}
	return o.primary, nil
}

// unavailable сворачивает инфраструктурные сбои в ErrOrdersUnavailable.
func unavailable(err error) error {
	if err == nil || models.IsDomainError(err) {
		return err
	}
	return errors.Wrap(models.ErrOrdersUnavailable, err.Error())
}

func (o *Orders) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	r, err := o.repo(ctx)
	if err != nil {
		return nil, err
	}
	ord, err := r.GetOrder(ctx, id)
	return ord, unavailable(err)
}

func (o *Orders) GetUser(ctx context.Context, id string) (*models.User, error) {
	r, err := o.repo(ctx)
	if err != nil {
		return nil, err
	}
	u, err := r.GetUser(ctx, id)
	return u, unavailable(err)
}

func (o *Orders) ListUserOrders(ctx context.Context, userID string, statuses []string) ([]*models.Order, error) {
	r, err := o.repo(ctx)
	if err != nil {
		return nil, err
	}
	list, err := r.ListUserOrders(ctx, userID, statuses)
	return list, unavailable(err)
}

func (o *Orders) SetOrderTracking(ctx context.Context, orderID, code, status string, at time.Time) error {
	r, err := o.repo(ctx)
	if err != nil {
		return err
	}
	return unavailable(r.SetOrderTracking(ctx, orderID, code, status, at))
}

func (o *Orders) UpdateOrderTrackingStatus(ctx context.Context, orderID, status string, at time.Time) error {
	r, err := o.repo(ctx)
	if err != nil {
		return err
	}
	return unavailable(r.UpdateOrderTrackingStatus(ctx, orderID, status, at))
}

func (o *Orders) ClearOrderTracking(ctx context.Context, orderID string) error {
	r, err := o.repo(ctx)
	if err != nil {
		return err
	}
	return unavailable(r.ClearOrderTracking(ctx, orderID))
}
