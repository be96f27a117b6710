package postal

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/ShipBox/internal/cache"
	"github.com/BearBump/ShipBox/internal/metrics"
	"github.com/BearBump/ShipBox/internal/models"
)

const (
	DefaultCacheTTL = 24 * time.Hour
	cachePrefix     = "cep:"
)

type Lookuper interface {
	Lookup(ctx context.Context, cep string) (models.AddressInfo, error)
}

type Service struct {
	client Lookuper
	cache  cache.BytesCache
	ttl    time.Duration
	now    func() time.Time
}

func New(client Lookuper, c cache.BytesCache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{client: client, cache: c, ttl: ttl, now: time.Now}
}

// Normalize оставляет только цифры и требует ровно 8.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cep := b.String()
	if len(cep) != 8 {
		return "", models.ErrInvalidPostalCode
	}
	return cep, nil
}

func (s *Service) Resolve(ctx context.Context, raw string) (models.AddressInfo, error) {
	cep, err := Normalize(raw)
	if err != nil {
		return models.AddressInfo{}, err
	}

	if addr, ok := s.fromCache(ctx, cep); ok {
		metrics.PostalLookups.WithLabelValues("cache").Inc()
		return addr, nil
	}

	addr, err := s.client.Lookup(ctx, cep)
	if err != nil {
		metrics.PostalLookups.WithLabelValues("error").Inc()
		return models.AddressInfo{}, err
	}
	metrics.PostalLookups.WithLabelValues("remote").Inc()

	if s.cache != nil {
		b, _ := json.Marshal(models.PostalCacheEntry{PostalCode: cep, Address: addr, FetchedAt: s.now().UTC()})
		if err := s.cache.Set(ctx, cachePrefix+cep, b, s.ttl); err != nil {
			slog.Warn("postal cache set", "cep", cep, "error", err.Error())
		}
	}
	return addr, nil
}

func (s *Service) fromCache(ctx context.Context, cep string) (models.AddressInfo, bool) {
	if s.cache == nil {
		return models.AddressInfo{}, false
	}
	b, ok, err := s.cache.Get(ctx, cachePrefix+cep)
	if err != nil || !ok {
		return models.AddressInfo{}, false
	}
	var e models.PostalCacheEntry
	if json.Unmarshal(b, &e) != nil {
		return models.AddressInfo{}, false
	}
	// TTL кэша: верхняя граница; fetchedAt проверяем на случай долгоживущего Redis-ключа.
	if s.now().Sub(e.FetchedAt) >= s.ttl {
		return models.AddressInfo{}, false
	}
	return e.Address, true
}

type CacheStats struct {
	Size    int      `json:"size"`
	Entries []string `json:"entries"`
}

// CacheStats возвращает false, если кэш не умеет перечислять ключи.
func (s *Service) CacheStats(ctx context.Context) (CacheStats, bool, error) {
	in, ok := s.cache.(cache.Inspector)
	if !ok {
		return CacheStats{}, false, nil
	}
	keys, err := in.Keys(ctx, cachePrefix)
	if err != nil {
		return CacheStats{}, true, err
	}
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, strings.TrimPrefix(k, cachePrefix))
	}
	return CacheStats{Size: len(entries), Entries: entries}, true, nil
}

func (s *Service) ClearCache(ctx context.Context) (bool, error) {
	in, ok := s.cache.(cache.Inspector)
	if !ok {
		return false, nil
	}
	n, err := in.Purge(ctx, cachePrefix)
	if err != nil {
		return true, err
	}
	slog.Info("postal cache cleared", "entries", n)
	return true, nil
}
