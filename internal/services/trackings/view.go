package trackings

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/ShipBox/internal/models"
)

// EventView: событие в форме, которую ждёт витрина.
type EventView struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
}

type View struct {
	TrackingCode string        `json:"trackingCode"`
	Status       string        `json:"status"`
	Servico      string        `json:"servico,omitempty"`
	LastUpdate   time.Time     `json:"lastUpdate"`
	Order        *models.Order `json:"order"`
	Events       []EventView   `json:"events"`
	ExternalData []any         `json:"externalData"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func ToEventViews(events []models.TrackingEvent) []EventView {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		sub := strings.Join(e.SubStatus, "; ")
		date := e.Date
		if e.Date != "" && e.Time != "" {
			date = e.Date + " " + e.Time
		}
		out = append(out, EventView{
			Status:      firstNonEmpty(e.Status, sub),
			Description: firstNonEmpty(e.Observation, e.Status, sub),
			Location:    e.Location,
			Date:        date,
		})
	}
	return out
}

// View: заказ подмешивается, только когда доступна основная БД.
func (s *Service) View(ctx context.Context, code string) (View, error) {
	t, err := s.Get(ctx, code)
	if err != nil {
		return View{}, err
	}
	v := View{
		TrackingCode: t.TrackingCode,
		Status:       t.Status,
		Servico:      t.Servico,
		Events:       ToEventViews(t.Events),
		ExternalData: []any{},
	}
	switch {
	case t.LastUpdate != nil:
		v.LastUpdate = *t.LastUpdate
	case t.LastChecked != nil:
		v.LastUpdate = *t.LastChecked
	default:
		v.LastUpdate = s.now().UTC()
	}
	if t.OrderID != "" {
		if o, err := s.orders.GetOrder(ctx, t.OrderID); err == nil {
			v.Order = o
		}
	}
	return v, nil
}
