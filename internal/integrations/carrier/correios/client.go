package correios

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/integrations/carrier"
	"github.com/BearBump/ShipBox/internal/models"
)

const (
	ProductionURL   = "https://cws.correios.com.br"
	HomologationURL = "https://cwshom.correios.com.br"

	defaultTimeout = 10 * time.Second
)

// BaseURL выбирает окружение API Rastro: боевое только для production.
func BaseURL(env string) string {
	if strings.EqualFold(env, "production") {
		return ProductionURL
	}
	return HomologationURL
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = HomologationURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

type rastroResp struct {
	Objetos []struct {
		Codigo  string `json:"codigo"`
		Servico string `json:"servico"`
		Eventos []struct {
			Data       string   `json:"data"`
			Hora       string   `json:"hora"`
			Local      string   `json:"local"`
			Status     string   `json:"status"`
			SubStatus  []string `json:"subStatus"`
			Observacao string   `json:"observacao"`
		} `json:"eventos"`
	} `json:"objetos"`
}

func (c *Client) GetTracking(ctx context.Context, code string) (carrier.Result, error) {
	u := c.baseURL + "/rastro-json/consulta/objetos/" + url.PathEscape(code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return carrier.Result{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "ShipBox-Tracking/1.0")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return carrier.Result{}, errors.Wrapf(models.ErrCarrier, "correios request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return carrier.Result{}, errors.Wrapf(models.ErrCarrier, "correios http %d", resp.StatusCode)
	}

	var r rastroResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return carrier.Result{}, errors.Wrapf(models.ErrCarrier, "decode: %v", err)
	}
	if len(r.Objetos) == 0 {
		return carrier.Result{}, errors.Wrap(models.ErrCarrier, "nenhum dado de rastreamento encontrado")
	}

	obj := r.Objetos[0]
	res := carrier.Result{Code: obj.Codigo, Service: obj.Servico}
	if res.Code == "" {
		res.Code = code
	}
	for _, e := range obj.Eventos {
		res.Events = append(res.Events, models.TrackingEvent{
			Date:        e.Data,
			Time:        e.Hora,
			Location:    e.Local,
			Status:      e.Status,
			SubStatus:   e.SubStatus,
			Observation: e.Observacao,
		})
	}
	return res, nil
}
