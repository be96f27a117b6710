package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ShipBox/config"
	freightapi "github.com/BearBump/ShipBox/internal/api/freight_api"
	trackingsapi "github.com/BearBump/ShipBox/internal/api/trackings_api"
	"github.com/BearBump/ShipBox/internal/bootstrap"
	"github.com/BearBump/ShipBox/internal/broker/kafka"
	"github.com/BearBump/ShipBox/internal/cache"
	"github.com/BearBump/ShipBox/internal/cache/memcache"
	"github.com/BearBump/ShipBox/internal/cache/rediscache"
	"github.com/BearBump/ShipBox/internal/integrations/viacep"
	"github.com/BearBump/ShipBox/internal/services/freight"
	"github.com/BearBump/ShipBox/internal/services/postal"
	"github.com/BearBump/ShipBox/internal/services/regions"
	"github.com/BearBump/ShipBox/internal/services/trackings"
)

const postgresWait = 30 * time.Second

type shipAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    shipAPIOpts
	deps    shipAPIDeps
	closers []func()
}

func mustBootstrapShipAPI() *shipAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	grpcAddr := cfg.ShipBox.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = ":50051"
	}
	httpAddr := cfg.ShipBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &shipAPIApp{ctx: ctx, cancel: cancel}

	stores := bootstrap.NewStores(cfg, bootstrap.OpenPrimary(ctx, cfg, postgresWait))
	app.closers = append(app.closers, stores.Close)

	var postalCache cache.BytesCache = memcache.New()
	if cfg.RedisEnabled() {
		rc := rediscache.New(cfg.RedisAddr(), "shipbox:")
		postalCache = rc
		app.closers = append(app.closers, func() { _ = rc.Close() })
	}
	postalSvc := postal.New(viacep.New(cfg.ShipBox.ViaCEPBaseURL, 0), postalCache, cfg.PostalCacheTTL())
	regionsSvc := regions.New(stores.Regions)
	freightSvc := freight.New(postalSvc, stores.Regions)

	opts := bootstrap.TrackingOptions(cfg)
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers())
		pub := kafka.NewTrackingPublisher(producer)
		opts = append(opts, trackings.WithNotifier(pub), trackings.WithSyncRequester(pub))
		app.closers = append(app.closers, func() { _ = producer.Close() })
	} else {
		slog.Info("kafka disabled: notifications off, refresh syncs inline")
	}
	trackingSvc := trackings.New(stores.Trackings, stores.Orders, bootstrap.NewCarrier(cfg), opts...)

	app.opts = shipAPIOpts{
		grpcAddr:     grpcAddr,
		httpAddr:     httpAddr,
		grpcDialAddr: grpcAddr,
		swaggerPath:  swaggerPath,
	}
	app.deps = shipAPIDeps{
		freight:   freightapi.New(freightSvc, postalSvc, regionsSvc, cfg.ShipBox.StoreZipCode),
		trackings: trackingsapi.New(trackingSvc),
		probe:     stores.Probe(),
	}
	return app
}

func (a *shipAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *shipAPIApp) Run() error {
	return runShipAPI(a.ctx, a.opts, a.deps)
}
