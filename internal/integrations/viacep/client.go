package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/ShipBox/internal/models"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://viacep.com.br/ws"

type Client struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

type viaCEPResp struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	IBGE        string `json:"ibge"`
	GIA         string `json:"gia"`
	DDD         string `json:"ddd"`
	SIAFI       string `json:"siafi"`
	// ViaCEP отдаёт erro то как bool, то как строку "true".
	Erro any `json:"erro,omitempty"`
}

func (r viaCEPResp) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// Lookup ожидает уже нормализованный CEP из 8 цифр.
func (c *Client) Lookup(ctx context.Context, cep string) (models.AddressInfo, error) {
	u, err := url.Parse(fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(cep)))
	if err != nil {
		return models.AddressInfo{}, errors.Wrap(err, "parse base url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.AddressInfo{}, errors.Wrap(err, "new request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return models.AddressInfo{}, errors.Wrap(models.ErrLookupTimeout, err.Error())
		}
		return models.AddressInfo{}, errors.Wrap(models.ErrLookupFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return models.AddressInfo{}, models.ErrInvalidPostalCode
	}
	if resp.StatusCode/100 != 2 {
		return models.AddressInfo{}, errors.Wrapf(models.ErrLookupFailure, "viacep http %d", resp.StatusCode)
	}

	var r viaCEPResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		if isTimeout(err) {
			return models.AddressInfo{}, errors.Wrap(models.ErrLookupTimeout, err.Error())
		}
		return models.AddressInfo{}, errors.Wrapf(models.ErrLookupFailure, "decode: %v", err)
	}
	if r.notFound() {
		return models.AddressInfo{}, models.ErrPostalCodeNotFound
	}

	return models.AddressInfo{
		CEP:          r.CEP,
		Street:       r.Logradouro,
		Complement:   r.Complemento,
		Neighborhood: r.Bairro,
		City:         r.Localidade,
		State:        r.UF,
		IBGE:         r.IBGE,
		GIA:          r.GIA,
		DDD:          r.DDD,
		SIAFI:        r.SIAFI,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
