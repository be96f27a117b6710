package freight_api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/ShipBox/internal/api"
	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/services/freight"
	"github.com/BearBump/ShipBox/internal/services/postal"
	"github.com/BearBump/ShipBox/internal/validation"
)

type Calculator interface {
	Calculate(ctx context.Context, cep string, weight, orderValue float64) (models.FreightQuote, error)
}

type PostalService interface {
	Resolve(ctx context.Context, raw string) (models.AddressInfo, error)
	CacheStats(ctx context.Context) (postal.CacheStats, bool, error)
	ClearCache(ctx context.Context) (bool, error)
}

type RegionService interface {
	List(ctx context.Context, f models.RegionFilter) ([]*models.Region, error)
	Get(ctx context.Context, id string) (*models.Region, error)
	Create(ctx context.Context, in models.RegionInput) (*models.Region, error)
	Update(ctx context.Context, id string, patch models.RegionPatch) (*models.Region, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (*models.Region, error)
}

var regionTexts = api.Texts{
	NotFound: "Região não encontrada",
	Conflict: "Já existe uma região com este nome",
}

type FreightAPI struct {
	freight   Calculator
	postal    PostalService
	regions   RegionService
	originZip string
	log       *slog.Logger
}

// New: originZip: CEP склада для национальных вариантов доставки.
func New(calc Calculator, ps PostalService, rs RegionService, originZip string) *FreightAPI {
	return &FreightAPI{
		freight:   calc,
		postal:    ps,
		regions:   rs,
		originZip: originZip,
		log:       slog.With("component", "freight_api"),
	}
}

// Routes монтируется на /api/freight.
func (a *FreightAPI) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/calculate", a.calculate)
	r.Get("/cep/{cep}", a.cepInfo)

	r.Get("/regions", a.listRegions)
	r.Post("/regions", a.createRegion)
	r.Get("/regions/{id}", a.getRegion)
	r.Put("/regions/{id}", a.updateRegion)
	r.Delete("/regions/{id}", a.deleteRegion)
	r.Patch("/regions/{id}/toggle", a.toggleRegion)

	r.Get("/cache", a.cacheStats)
	r.Delete("/cache", a.clearCache)
	return r
}

type calculateRequest struct {
	CEP        string   `json:"cep" validate:"required"`
	Weight     *float64 `json:"weight" validate:"omitempty,gte=0"`
	OrderValue *float64 `json:"orderValue" validate:"omitempty,gte=0"`
}

type fallbackResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Fallback models.NationalQuote `json:"fallback"`
}

// calculate не отвечает ошибкой, пока можно посчитать национальные варианты.
func (a *FreightAPI) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err, api.Texts{})
		return
	}
	if strings.TrimSpace(req.CEP) == "" {
		api.Fail(w, http.StatusBadRequest, "CEP é obrigatório")
		return
	}
	if err := validation.Struct(req); err != nil {
		api.Error(w, err, api.Texts{})
		return
	}
	weight, orderValue := 1.0, 0.0
	if req.Weight != nil && *req.Weight > 0 {
		weight = *req.Weight
	}
	if req.OrderValue != nil {
		orderValue = *req.OrderValue
	}

	quote, err := a.freight.Calculate(r.Context(), req.CEP, weight, orderValue)
	if err == nil {
		api.OK(w, http.StatusOK, quote, "")
		return
	}
	a.log.Warn("regional freight failed, using national options", "cep", req.CEP, "err", err)

	msg := "Falha no cálculo regional, usando opções nacionais"
	if api.StatusFor(err) < http.StatusInternalServerError {
		msg = api.Message(err, api.Texts{})
	}
	fb, fbErr := freight.National(a.originZip, req.CEP, weight)
	if fbErr != nil {
		api.Fail(w, http.StatusBadRequest, msg)
		return
	}
	api.WriteJSON(w, http.StatusOK, fallbackResponse{Success: false, Message: msg, Fallback: fb})
}

func (a *FreightAPI) cepInfo(w http.ResponseWriter, r *http.Request) {
	addr, err := a.postal.Resolve(r.Context(), chi.URLParam(r, "cep"))
	if err != nil {
		api.Error(w, err, api.Texts{})
		return
	}
	api.OK(w, http.StatusOK, addr, "")
}

func (a *FreightAPI) listRegions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.RegionFilter{
		State:      q.Get("state"),
		NameSearch: q.Get("search"),
	}
	if v := q.Get("active"); v != "" {
		active := v == "true"
		f.Active = &active
	}
	list, err := a.regions.List(r.Context(), f)
	if err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	if list == nil {
		list = []*models.Region{}
	}
	api.OK(w, http.StatusOK, list, "")
}

func (a *FreightAPI) getRegion(w http.ResponseWriter, r *http.Request) {
	region, err := a.regions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	api.OK(w, http.StatusOK, region, "")
}

func (a *FreightAPI) createRegion(w http.ResponseWriter, r *http.Request) {
	var in models.RegionInput
	if err := api.Decode(r, &in); err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	region, err := a.regions.Create(r.Context(), in)
	if err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	a.log.Info("region created", "id", region.ID, "name", region.Name)
	api.OK(w, http.StatusCreated, region, "Região de frete criada com sucesso")
}

func (a *FreightAPI) updateRegion(w http.ResponseWriter, r *http.Request) {
	var patch models.RegionPatch
	if err := api.Decode(r, &patch); err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	region, err := a.regions.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	api.OK(w, http.StatusOK, region, "Região atualizada com sucesso")
}

func (a *FreightAPI) deleteRegion(w http.ResponseWriter, r *http.Request) {
	if err := a.regions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	api.OK(w, http.StatusOK, nil, "Região deletada com sucesso")
}

func (a *FreightAPI) toggleRegion(w http.ResponseWriter, r *http.Request) {
	region, err := a.regions.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, err, regionTexts)
		return
	}
	state := "desativada"
	if region.Active {
		state = "ativada"
	}
	api.OK(w, http.StatusOK, region, "Região "+state+" com sucesso")
}

type cacheStatsResponse struct {
	Supported bool     `json:"supported"`
	Size      int      `json:"size"`
	Entries   []string `json:"entries"`
}

func (a *FreightAPI) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, ok, err := a.postal.CacheStats(r.Context())
	if err != nil {
		api.Error(w, err, api.Texts{})
		return
	}
	out := cacheStatsResponse{Supported: ok, Size: stats.Size, Entries: stats.Entries}
	if out.Entries == nil {
		out.Entries = []string{}
	}
	api.OK(w, http.StatusOK, out, "")
}

func (a *FreightAPI) clearCache(w http.ResponseWriter, r *http.Request) {
	ok, err := a.postal.ClearCache(r.Context())
	if err != nil {
		api.Error(w, err, api.Texts{})
		return
	}
	if !ok {
		api.Fail(w, http.StatusNotImplemented, "Cache não suporta limpeza")
		return
	}
	api.OK(w, http.StatusOK, nil, "Cache de CEP limpo com sucesso")
}
