package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	freightapi "github.com/BearBump/ShipBox/internal/api/freight_api"
	trackingsapi "github.com/BearBump/ShipBox/internal/api/trackings_api"
	"github.com/BearBump/ShipBox/internal/cache/memcache"
	"github.com/BearBump/ShipBox/internal/integrations/carrier/demo"
	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/services/freight"
	"github.com/BearBump/ShipBox/internal/services/postal"
	"github.com/BearBump/ShipBox/internal/services/regions"
	"github.com/BearBump/ShipBox/internal/services/trackings"
	"github.com/BearBump/ShipBox/internal/storage/dualstore"
	"github.com/BearBump/ShipBox/internal/storage/filestore"
	"github.com/BearBump/ShipBox/internal/storage/mocks"
)

type noLookup struct{}

func (noLookup) Lookup(context.Context, string) (models.AddressInfo, error) {
	return models.AddressInfo{}, models.ErrLookupFailure
}

func fileDeps(t *testing.T) shipAPIDeps {
	t.Helper()
	dir := t.TempDir()
	regionStore := filestore.NewRegions(filepath.Join(dir, "freight_regions.json"))
	ps := postal.New(noLookup{}, memcache.New(), 0)
	ts := trackings.New(
		filestore.NewTrackings(filepath.Join(dir, "trackings.json")),
		dualstore.NewOrders(nil, nil),
		demo.New(),
	)
	return shipAPIDeps{
		freight:   freightapi.New(freight.New(ps, regionStore), ps, regions.New(regionStore), "01000000"),
		trackings: trackingsapi.New(ts),
	}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRunShipAPI_Serves(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := shipAPIOpts{
		grpcAddr:     "127.0.0.1:0",
		httpAddr:     "127.0.0.1:0",
		grpcDialAddr: "127.0.0.1:0", // будет подменён внутри runShipAPI
		swaggerPath:  sw,
		onListen:     func(_grpcAddr, httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runShipAPI(ctx, opts, fileDeps(t))
	}()
	base := "http://" + <-addrCh

	code, body := get(t, base+"/swagger.json")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"swagger"`)

	require.Eventually(t, func() bool {
		code, _ := get(t, base+"/healthz")
		return code == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	code, _ = get(t, base+"/healthz?service=postgres")
	require.NotEqual(t, http.StatusOK, code)

	code, body = get(t, base+"/api/freight/regions")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "fallback1")

	code, _ = get(t, base+"/api/tracking/NOPE")
	require.Equal(t, http.StatusNotFound, code)

	code, body = get(t, base+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "shipbox_")

	cancel()
	require.Error(t, <-errCh)
}

func TestRunShipAPI_MissingSwagger(t *testing.T) {
	err := runShipAPI(context.Background(), shipAPIOpts{swaggerPath: filepath.Join(t.TempDir(), "nope.json")}, shipAPIDeps{})
	require.Error(t, err)
}

func TestWatchPrimary(t *testing.T) {
	hs := health.NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watchPrimary(ctx, hs, mocks.StaticProber(true), 5*time.Millisecond)

	require.Eventually(t, func() bool {
		resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: primaryService})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)
}
