package trackings

import (
	"context"
	"strings"

	loopfsm "github.com/looplab/fsm"

	"github.com/BearBump/ShipBox/internal/models"
)

const (
	eventShip    = "ship"
	eventDeliver = "deliver"
	eventReturn  = "return"
)

var statusEvents = loopfsm.Events{
	{Name: eventShip, Src: []string{models.TrackingStatusPending}, Dst: models.TrackingStatusInTransit},
	{Name: eventDeliver, Src: []string{models.TrackingStatusPending, models.TrackingStatusInTransit}, Dst: models.TrackingStatusDelivered},
	{Name: eventReturn, Src: []string{models.TrackingStatusPending, models.TrackingStatusInTransit}, Dst: models.TrackingStatusReturned},
}

var eventFor = map[string]string{
	models.TrackingStatusInTransit: eventShip,
	models.TrackingStatusDelivered: eventDeliver,
	models.TrackingStatusReturned:  eventReturn,
}

// ClassifyEvent сопоставляет текст статуса перевозчика нормализованному статусу.
func ClassifyEvent(e models.TrackingEvent) string {
	s := strings.ToLower(e.Status)
	switch {
	case strings.Contains(s, "devolvid"), strings.Contains(s, "devolução"), strings.Contains(s, "devolucao"):
		return models.TrackingStatusReturned
	case strings.Contains(s, "não entregue"), strings.Contains(s, "nao entregue"):
		return models.TrackingStatusInTransit
	case strings.Contains(s, "entregue"):
		return models.TrackingStatusDelivered
	case strings.Contains(s, "trânsito"), strings.Contains(s, "transito"),
		strings.Contains(s, "encaminhado"), strings.Contains(s, "saiu para entrega"),
		strings.Contains(s, "aguardando retirada"):
		return models.TrackingStatusInTransit
	default:
		return models.TrackingStatusPending
	}
}

func rank(status string) int {
	switch status {
	case models.TrackingStatusInTransit:
		return 1
	case models.TrackingStatusDelivered, models.TrackingStatusReturned:
		return 2
	default:
		return 0
	}
}

// Classify: самая продвинутая классификация среди событий; при равенстве
// выигрывает первое по порядку перевозчика.
func Classify(events []models.TrackingEvent) string {
	best := models.TrackingStatusPending
	for _, e := range events {
		if c := ClassifyEvent(e); rank(c) > rank(best) {
			best = c
		}
	}
	return best
}

// Advance пытается перевести current в target. Недопустимый переход
// оставляет текущий статус.
func Advance(ctx context.Context, current, target string) string {
	if current == "" {
		current = models.TrackingStatusPending
	}
	ev, ok := eventFor[target]
	if !ok || target == current {
		return current
	}
	machine := loopfsm.NewFSM(current, statusEvents, nil)
	if err := machine.Event(ctx, ev); err != nil {
		return current
	}
	return machine.Current()
}
