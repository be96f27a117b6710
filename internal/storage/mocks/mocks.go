// Package mocks: testify-моки интерфейсов storage.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BearBump/ShipBox/internal/models"
)

type MockRegionRepository struct {
	mock.Mock
}

func (m *MockRegionRepository) ListRegions(ctx context.Context, f models.RegionFilter) ([]*models.Region, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]*models.Region)
	return list, args.Error(1)
}

func (m *MockRegionRepository) GetRegion(ctx context.Context, id string) (*models.Region, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*models.Region)
	return r, args.Error(1)
}

func (m *MockRegionRepository) CreateRegion(ctx context.Context, reg *models.Region) (*models.Region, error) {
	args := m.Called(ctx, reg)
	r, _ := args.Get(0).(*models.Region)
	return r, args.Error(1)
}

func (m *MockRegionRepository) UpdateRegion(ctx context.Context, id string, patch models.RegionPatch) (*models.Region, error) {
	args := m.Called(ctx, id, patch)
	r, _ := args.Get(0).(*models.Region)
	return r, args.Error(1)
}

func (m *MockRegionRepository) DeleteRegion(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRegionRepository) ToggleRegion(ctx context.Context, id string) (*models.Region, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*models.Region)
	return r, args.Error(1)
}

type MockTrackingRepository struct {
	mock.Mock
}

func (m *MockTrackingRepository) UpsertTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error) {
	args := m.Called(ctx, t)
	r, _ := args.Get(0).(*models.Tracking)
	return r, args.Error(1)
}

func (m *MockTrackingRepository) GetTrackingByCode(ctx context.Context, code string) (*models.Tracking, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(*models.Tracking)
	return r, args.Error(1)
}

func (m *MockTrackingRepository) GetTrackingByOrder(ctx context.Context, orderID string) (*models.Tracking, error) {
	args := m.Called(ctx, orderID)
	r, _ := args.Get(0).(*models.Tracking)
	return r, args.Error(1)
}

func (m *MockTrackingRepository) RemoveTrackingByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrackingRepository) ListDueForSync(ctx context.Context, now time.Time) ([]*models.Tracking, error) {
	args := m.Called(ctx, now)
	list, _ := args.Get(0).([]*models.Tracking)
	return list, args.Error(1)
}

func (m *MockTrackingRepository) ListTrackings(ctx context.Context, f models.TrackingFilter, limit, offset int) ([]*models.Tracking, int, error) {
	args := m.Called(ctx, f, limit, offset)
	list, _ := args.Get(0).([]*models.Tracking)
	return list, args.Int(1), args.Error(2)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockOrderRepository) ListUserOrders(ctx context.Context, userID string, statuses []string) ([]*models.Order, error) {
	args := m.Called(ctx, userID, statuses)
	list, _ := args.Get(0).([]*models.Order)
	return list, args.Error(1)
}

func (m *MockOrderRepository) SetOrderTracking(ctx context.Context, orderID, code, status string, at time.Time) error {
	return m.Called(ctx, orderID, code, status, at).Error(0)
}

func (m *MockOrderRepository) UpdateOrderTrackingStatus(ctx context.Context, orderID, status string, at time.Time) error {
	return m.Called(ctx, orderID, status, at).Error(0)
}

func (m *MockOrderRepository) ClearOrderTracking(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

// StaticProber: проба с фиксированным ответом.
type StaticProber bool

func (p StaticProber) Ready(context.Context) bool { return bool(p) }
