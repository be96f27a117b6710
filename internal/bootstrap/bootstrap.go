// Package bootstrap собирает хранилища, перевозчика и сервис трекинга
// из конфига; общий код для ship-api и ship-worker.
package bootstrap

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/BearBump/ShipBox/config"
	"github.com/BearBump/ShipBox/internal/integrations/carrier"
	"github.com/BearBump/ShipBox/internal/integrations/carrier/correios"
	"github.com/BearBump/ShipBox/internal/integrations/carrier/demo"
	"github.com/BearBump/ShipBox/internal/services/trackings"
	"github.com/BearBump/ShipBox/internal/storage"
	"github.com/BearBump/ShipBox/internal/storage/dualstore"
	"github.com/BearBump/ShipBox/internal/storage/filestore"
	"github.com/BearBump/ShipBox/internal/storage/pgstore"
)

const (
	RegionsFile   = "freight_regions.json"
	TrackingsFile = "trackings.json"

	defaultDataDir = "data"
)

// OpenPrimary ждёт Postgres не дольше wait. Без БД сервис не падает,
// а работает на файлах: возвращается nil.
func OpenPrimary(ctx context.Context, cfg *config.Config, wait time.Duration) *pgstore.Storage {
	if !cfg.PrimaryEnabled() {
		slog.Info("primary database disabled, using file stores")
		return nil
	}
	deadline := time.Now().Add(wait)
	var lastErr error
	for {
		st, err := pgstore.New(ctx, cfg.PostgresConnString())
		if err == nil {
			slog.Info("primary database connected", "host", cfg.Database.Host)
			return st
		}
		lastErr = err
		if time.Now().After(deadline) || ctx.Err() != nil {
			break
		}
		time.Sleep(time.Second)
	}
	slog.Warn("primary database is not ready, using file stores", "wait", wait, "err", lastErr)
	return nil
}

type Stores struct {
	Primary   *pgstore.Storage
	Regions   *dualstore.Regions
	Trackings *dualstore.Trackings
	Orders    *dualstore.Orders
}

// Probe: nil, если основной БД нет.
func (s Stores) Probe() storage.Prober {
	if s.Primary == nil {
		return nil
	}
	return s.Primary
}

func (s Stores) Close() {
	if s.Primary != nil {
		s.Primary.Close()
	}
}

func DataDir(cfg *config.Config) string {
	if cfg.ShipBox.DataDir == "" {
		return defaultDataDir
	}
	return cfg.ShipBox.DataDir
}

// NewStores: primary может быть nil. Интерфейсы собираются явно,
// чтобы typed-nil не выглядел как живое хранилище.
func NewStores(cfg *config.Config, primary *pgstore.Storage) Stores {
	dir := DataDir(cfg)
	fileRegions := filestore.NewRegions(filepath.Join(dir, RegionsFile))
	fileTrackings := filestore.NewTrackings(filepath.Join(dir, TrackingsFile))

	var (
		pr    storage.RegionRepository
		pt    storage.TrackingRepository
		po    storage.OrderRepository
		probe storage.Prober
	)
	if primary != nil {
		pr, pt, po, probe = primary, primary, primary, primary
	}
	return Stores{
		Primary:   primary,
		Regions:   dualstore.NewRegions(pr, fileRegions, probe),
		Trackings: dualstore.NewTrackings(pt, fileTrackings, probe),
		Orders:    dualstore.NewOrders(po, probe),
	}
}

// NewCarrier: без учётных данных Correios: демо-перевозчик.
func NewCarrier(cfg *config.Config) carrier.Client {
	if !cfg.CorreiosEnabled() {
		slog.Info("correios credentials not set, using demo carrier")
		return demo.New()
	}
	baseURL := cfg.Correios.BaseURL
	if baseURL == "" {
		baseURL = correios.BaseURL(cfg.ShipBox.Env)
	}
	slog.Info("correios carrier enabled", "base_url", baseURL)
	return correios.New(baseURL, cfg.Correios.Token, cfg.CorreiosTimeout())
}

// TrackingOptions: общие настройки сервиса трекинга из конфига.
func TrackingOptions(cfg *config.Config) []trackings.Option {
	var opts []trackings.Option
	if cfg.ShipBox.SyncDelayMillis > 0 {
		opts = append(opts, trackings.WithBatchDelay(time.Duration(cfg.ShipBox.SyncDelayMillis)*time.Millisecond))
	}
	return opts
}
