package trackings_api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/ShipBox/internal/api"
	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/services/trackings"
)

type Service interface {
	CreateOrUpdate(ctx context.Context, orderID, code string) (*models.Tracking, error)
	List(ctx context.Context, status string, page, limit int) (trackings.ListPage, error)
	BatchSync(ctx context.Context) (trackings.BatchResult, error)
	UserTrackings(ctx context.Context, userID string) ([]trackings.UserTracking, error)
	View(ctx context.Context, code string) (trackings.View, error)
	Delete(ctx context.Context, code string) error
	Sync(ctx context.Context, code string) (trackings.SyncResult, error)
	RequestSync(ctx context.Context, code string) (bool, error)
}

var trackingTexts = api.Texts{NotFound: "Rastreamento não encontrado"}

type TrackingsAPI struct {
	svc Service
	log *slog.Logger
}

func New(svc Service) *TrackingsAPI {
	return &TrackingsAPI{svc: svc, log: slog.With("component", "trackings_api")}
}

// Routes монтируется на /api/tracking.
func (a *TrackingsAPI) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", a.create)
	r.Get("/", a.list)
	r.Post("/sync-all", a.syncAll)
	r.Get("/user/{userId}", a.userTrackings)
	r.Get("/{code}", a.get)
	r.Delete("/{code}", a.delete)
	r.Put("/{code}/sync", a.sync)
	r.Post("/{code}/refresh", a.refresh)
	return r
}

type createRequest struct {
	OrderID      string `json:"orderId"`
	TrackingCode string `json:"trackingCode"`
}

func (a *TrackingsAPI) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err, api.Texts{})
		return
	}
	t, err := a.svc.CreateOrUpdate(r.Context(), req.OrderID, req.TrackingCode)
	if err != nil {
		api.Error(w, err, api.Texts{NotFound: "Pedido não encontrado"})
		return
	}
	api.OK(w, http.StatusOK, t, "Rastreamento criado com sucesso")
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func (a *TrackingsAPI) list(w http.ResponseWriter, r *http.Request) {
	page, err := a.svc.List(r.Context(), r.URL.Query().Get("status"), queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		api.Error(w, err, trackingTexts)
		return
	}
	api.OK(w, http.StatusOK, page, "")
}

func (a *TrackingsAPI) syncAll(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.BatchSync(r.Context())
	if err != nil {
		api.Error(w, err, trackingTexts)
		return
	}
	msg := fmt.Sprintf("Atualização concluída: %d/%d sucessos", res.Updated, res.Total)
	api.OK(w, http.StatusOK, res, msg)
}

func (a *TrackingsAPI) userTrackings(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.UserTrackings(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		api.Error(w, err, trackingTexts)
		return
	}
	api.OK(w, http.StatusOK, list, "")
}

type viewResponse struct {
	Tracking trackings.View `json:"tracking"`
}

func (a *TrackingsAPI) get(w http.ResponseWriter, r *http.Request) {
	v, err := a.svc.View(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		api.Error(w, err, trackingTexts)
		return
	}
	api.OK(w, http.StatusOK, viewResponse{Tracking: v}, "")
}

func (a *TrackingsAPI) delete(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		api.Error(w, err, trackingTexts)
		return
	}
	api.OK(w, http.StatusOK, nil, "Rastreamento removido com sucesso")
}

func (a *TrackingsAPI) sync(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.Sync(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		api.Error(w, err, trackingTexts)
		return
	}
	api.OK(w, http.StatusOK, res, "Rastreamento atualizado com sucesso")
}

// refresh: 202, если синхронизация ушла в очередь воркера.
func (a *TrackingsAPI) refresh(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	queued, err := a.svc.RequestSync(r.Context(), code)
	if err != nil {
		api.Error(w, err, trackingTexts)
		return
	}
	if queued {
		a.log.Info("sync requested", "code", code)
		api.OK(w, http.StatusAccepted, nil, "Atualização agendada")
		return
	}
	api.OK(w, http.StatusOK, nil, "Rastreamento atualizado com sucesso")
}
