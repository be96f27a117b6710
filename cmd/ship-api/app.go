package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	freightapi "github.com/BearBump/ShipBox/internal/api/freight_api"
	trackingsapi "github.com/BearBump/ShipBox/internal/api/trackings_api"
	"github.com/BearBump/ShipBox/internal/metrics"
	"github.com/BearBump/ShipBox/internal/storage"
)

// primaryService: имя в gRPC health для основной БД.
const primaryService = "postgres"

type shipAPIOpts struct {
	grpcAddr     string
	httpAddr     string
	grpcDialAddr string
	swaggerPath  string

	probeInterval time.Duration

	onListen func(grpcAddr, httpAddr string)
}

type shipAPIDeps struct {
	freight   *freightapi.FreightAPI
	trackings *trackingsapi.TrackingsAPI
	probe     storage.Prober
}

func runShipAPI(ctx context.Context, opts shipAPIOpts, deps shipAPIDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	grpcLis, err := net.Listen("tcp", opts.grpcAddr)
	if err != nil {
		return err
	}
	httpLis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		_ = grpcLis.Close()
		return err
	}

	if opts.onListen != nil {
		opts.onListen(grpcLis.Addr().String(), httpLis.Addr().String())
	}

	dialAddr := opts.grpcDialAddr
	if dialAddr == "" || strings.HasSuffix(dialAddr, ":0") {
		dialAddr = grpcLis.Addr().String()
	}

	hs := health.NewServer()
	go watchPrimary(ctx, hs, deps.probe, opts.probeInterval)

	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- runGRPCServer(ctx, grpcLis, hs)
	}()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runGatewayServer(ctx, httpLis, dialAddr, opts.swaggerPath, deps)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-grpcErr:
		return err
	case err := <-httpErr:
		return err
	}
}

// watchPrimary: сам сервис SERVING всегда, файловый резерв держит его живым;
// состояние Postgres публикуется отдельным сервисом.
func watchPrimary(ctx context.Context, hs *health.Server, probe storage.Prober, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Second
	}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	update := func() {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if probe != nil && probe.Ready(ctx) {
			status = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(primaryService, status)
	}
	update()

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			update()
		}
	}
}

func runGRPCServer(ctx context.Context, lis net.Listener, hs *health.Server) error {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	go func() {
		<-ctx.Done()
		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			s.Stop()
		}
		_ = lis.Close()
	}()

	slog.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.Serve(lis)
}

func newRouter(swaggerPath string, gw http.Handler, deps shipAPIDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api/freight", deps.freight.Routes())
	r.Mount("/api/tracking", deps.trackings.Routes())

	// /healthz отдаёт grpc-gateway через gRPC health
	r.Mount("/", gw)
	return r
}

func runGatewayServer(ctx context.Context, lis net.Listener, grpcAddr string, swaggerPath string, deps shipAPIDeps) error {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	mux := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))

	srv := &http.Server{Handler: newRouter(swaggerPath, mux, deps)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP gateway listening", "addr", lis.Addr().String())
	return srv.Serve(lis)
}
