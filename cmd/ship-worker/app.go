package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/ShipBox/config"
	"github.com/BearBump/ShipBox/internal/bootstrap"
	"github.com/BearBump/ShipBox/internal/broker/kafka"
	"github.com/BearBump/ShipBox/internal/cache/rediscache"
	"github.com/BearBump/ShipBox/internal/integrations/carrier"
	"github.com/BearBump/ShipBox/internal/services/poller"
	"github.com/BearBump/ShipBox/internal/services/trackings"
)

const (
	postgresWait         = 30 * time.Second
	defaultConsumerGroup = "ship-worker"
)

type syncConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

// workerFactories: nil-результат означает, что зависимость выключена в конфиге.
type workerFactories struct {
	newStores        func(ctx context.Context, cfg *config.Config) bootstrap.Stores
	newNotifier      func(cfg *config.Config) (trackings.Notifier, func())
	newRateLimiter   func(cfg *config.Config) (trackings.RateLimiter, func())
	newCarrierClient func(cfg *config.Config) carrier.Client
	newConsumer      func(cfg *config.Config) (syncConsumer, func())
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStores: func(ctx context.Context, cfg *config.Config) bootstrap.Stores {
			return bootstrap.NewStores(cfg, bootstrap.OpenPrimary(ctx, cfg, postgresWait))
		},
		newNotifier: func(cfg *config.Config) (trackings.Notifier, func()) {
			if !cfg.KafkaEnabled() {
				return nil, nil
			}
			p := kafka.NewProducer(cfg.KafkaBrokers())
			return kafka.NewTrackingPublisher(p), func() { _ = p.Close() }
		},
		newRateLimiter: func(cfg *config.Config) (trackings.RateLimiter, func()) {
			if !cfg.RedisEnabled() || cfg.ShipBox.CarrierRateLimitPerMinute <= 0 {
				return nil, nil
			}
			rl := rediscache.NewRateLimiter(cfg.RedisAddr())
			return rl, func() { _ = rl.Close() }
		},
		newCarrierClient: bootstrap.NewCarrier,
		newConsumer: func(cfg *config.Config) (syncConsumer, func()) {
			if !cfg.KafkaEnabled() {
				return nil, nil
			}
			group := cfg.Kafka.ConsumerGroup
			if group == "" {
				group = defaultConsumerGroup
			}
			topic := cfg.Kafka.SyncRequestedTopicName
			if topic == "" {
				topic = kafka.TopicSyncRequested
			}
			c := kafka.NewConsumer(cfg.KafkaBrokers(), topic, group)
			return c, func() { _ = c.Close() }
		},
	}
}

// RunShipWorker: пакетная синхронизация по расписанию, обработка
// внеочередных запросов из Kafka и служебный HTTP.
func RunShipWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	stores := f.newStores(ctx, cfg)
	defer stores.Close()

	opts := bootstrap.TrackingOptions(cfg)
	if n, closeFn := f.newNotifier(cfg); n != nil {
		defer closeFn()
		opts = append(opts, trackings.WithNotifier(n))
	}
	if rl, closeFn := f.newRateLimiter(cfg); rl != nil {
		defer closeFn()
		opts = append(opts, trackings.WithRateLimit(rl, int64(cfg.ShipBox.CarrierRateLimitPerMinute)))
	}
	svc := trackings.New(stores.Trackings, stores.Orders, f.newCarrierClient(cfg), opts...)
	p := poller.New(svc, cfg.ShipBox.SyncSchedule)

	if c, closeFn := f.newConsumer(cfg); c != nil {
		defer closeFn()
		go func() {
			slog.Info("sync request consumer started")
			if err := c.Consume(ctx, func(key, value []byte) error {
				return svc.HandleSyncRequested(ctx, key, value)
			}); err != nil {
				slog.Error("sync request consumer stopped", "err", err)
			}
		}()
	}

	if httpOpts.swaggerPath != "" {
		httpOpts.poller = p
		httpOpts.cfg = cfg
		httpOpts.probe = stores.Probe()
		go func() {
			if err := runWorkerHTTPServer(ctx, httpOpts); err != nil {
				slog.Error("worker http server", "err", err)
			}
		}()
	}

	return p.Run(ctx)
}
