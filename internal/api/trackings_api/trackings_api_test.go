package trackings_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/ShipBox/internal/integrations/carrier/demo"
	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/services/trackings"
	"github.com/BearBump/ShipBox/internal/storage/filestore"
	"github.com/BearBump/ShipBox/internal/storage/mocks"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type queueStub struct{ codes []string }

func (q *queueStub) RequestSync(_ context.Context, code string) error {
	q.codes = append(q.codes, code)
	return nil
}

func offlineOrders() *mocks.MockOrderRepository {
	m := &mocks.MockOrderRepository{}
	m.On("GetOrder", mock.Anything, mock.Anything).Return(nil, models.ErrOrdersUnavailable).Maybe()
	m.On("GetUser", mock.Anything, mock.Anything).Return(nil, models.ErrOrdersUnavailable).Maybe()
	m.On("ListUserOrders", mock.Anything, mock.Anything, mock.Anything).Return(nil, models.ErrOrdersUnavailable).Maybe()
	m.On("SetOrderTracking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(models.ErrOrdersUnavailable).Maybe()
	m.On("UpdateOrderTrackingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(models.ErrOrdersUnavailable).Maybe()
	m.On("ClearOrderTracking", mock.Anything, mock.Anything).Return(models.ErrOrdersUnavailable).Maybe()
	return m
}

func newServer(t *testing.T, opts ...trackings.Option) *httptest.Server {
	t.Helper()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	repo := filestore.NewTrackings(filepath.Join(t.TempDir(), "trackings.json")).WithClock(clock)
	opts = append([]trackings.Option{trackings.WithClock(clock), trackings.WithBatchDelay(0)}, opts...)
	svc := trackings.New(repo, offlineOrders(), demo.New().WithClock(clock), opts...)

	srv := httptest.NewServer(New(svc).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestTrackingsAPI_Flow(t *testing.T) {
	srv := newServer(t)

	code, env := do(t, srv, http.MethodPost, "/", map[string]string{"orderId": "o1", "trackingCode": "aa123456789br"})
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)
	var created models.Tracking
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "AA123456789BR", created.TrackingCode)

	code, env = do(t, srv, http.MethodPut, "/AA123456789BR/sync", nil)
	require.Equal(t, http.StatusOK, code)
	var synced trackings.SyncResult
	require.NoError(t, json.Unmarshal(env.Data, &synced))
	require.True(t, synced.HasUpdates)
	require.Len(t, synced.NewEvents, 2)

	code, env = do(t, srv, http.MethodGet, "/AA123456789BR", nil)
	require.Equal(t, http.StatusOK, code)
	var view struct {
		Tracking trackings.View `json:"tracking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Equal(t, models.TrackingStatusInTransit, view.Tracking.Status)
	require.Len(t, view.Tracking.Events, 2)
	require.Nil(t, view.Tracking.Order)

	code, env = do(t, srv, http.MethodGet, "/?status=in_transit&limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	var page trackings.ListPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Equal(t, 1, page.Pagination.Total)

	code, env = do(t, srv, http.MethodGet, "/user/u1", nil)
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `[]`, string(env.Data))

	code, _ = do(t, srv, http.MethodDelete, "/AA123456789BR", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, srv, http.MethodGet, "/AA123456789BR", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Rastreamento não encontrado", env.Message)
}

func TestTrackingsAPI_CreateValidation(t *testing.T) {
	srv := newServer(t)

	code, env := do(t, srv, http.MethodPost, "/", map[string]string{"orderId": "o1"})
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)
	require.Equal(t, "ID do pedido e código de rastreamento são obrigatórios", env.Message)
}

func TestTrackingsAPI_SyncAll(t *testing.T) {
	srv := newServer(t)

	code, env := do(t, srv, http.MethodPost, "/sync-all", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Atualização concluída: 0/0 sucessos", env.Message)

	var res trackings.BatchResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Zero(t, res.Total)
	require.Empty(t, res.Results)
}

func TestTrackingsAPI_Refresh(t *testing.T) {
	q := &queueStub{}
	srv := newServer(t, trackings.WithSyncRequester(q))

	code, _ := do(t, srv, http.MethodPost, "/C1/refresh", nil)
	require.Equal(t, http.StatusNotFound, code)

	_, _ = do(t, srv, http.MethodPost, "/", map[string]string{"orderId": "o1", "trackingCode": "C1"})
	code, env := do(t, srv, http.MethodPost, "/c1/refresh", nil)
	require.Equal(t, http.StatusAccepted, code)
	require.True(t, env.Success)
	require.Equal(t, []string{"C1"}, q.codes)
}
