package carrier

import (
	"context"

	"github.com/BearBump/ShipBox/internal/models"
)

// Result: ответ перевозчика по одному объекту. События в порядке перевозчика.
type Result struct {
	Code    string
	Service string
	Events  []models.TrackingEvent
}

type Client interface {
	GetTracking(ctx context.Context, code string) (Result, error)
}
