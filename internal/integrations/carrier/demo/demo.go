package demo

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/BearBump/ShipBox/internal/integrations/carrier"
	"github.com/BearBump/ShipBox/internal/models"
)

const Service = "SEDEX - Encomenda Expressa"

// Client: демо-перевозчик для окружений без учётных данных Correios.
// Ответ детерминирован: время события зависит только от кода,
// даты берутся от текущего дня, поэтому повторный опрос в тот же день
// не даёт новых событий.
type Client struct {
	now func() time.Time
}

func New() *Client { return &Client{now: time.Now} }

func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

func (c *Client) GetTracking(_ context.Context, code string) (carrier.Result, error) {
	today := c.now()
	yesterday := today.AddDate(0, 0, -1)

	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	v := h.Sum32()
	postedAt := fmt.Sprintf("%02d:%02d", 8+v%10, (v/10)%60)

	return carrier.Result{
		Code:    code,
		Service: Service,
		Events: []models.TrackingEvent{
			{
				Date:      today.Format("02/01/2006"),
				Time:      postedAt,
				Location:  "CENTRO DE DISTRIBUIÇÃO - SÃO PAULO/SP",
				Status:    "Objeto postado",
				SubStatus: []string{"Registrado por AGÊNCIA DOS CORREIOS - SÃO PAULO/SP"},
			},
			{
				Date:      yesterday.Format("02/01/2006"),
				Time:      "14:30",
				Location:  "CENTRO DE TRIAGEM - SÃO PAULO/SP",
				Status:    "Objeto em trânsito",
				SubStatus: []string{"Encaminhado para CENTRO DE DISTRIBUIÇÃO"},
			},
		},
	}, nil
}
