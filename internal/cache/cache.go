package cache

import (
	"context"
	"time"
)

type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Inspector: необязательные возможности кэша для админки.
// Redis-кэш его не реализует: ключи там общие с другими сервисами.
type Inspector interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
	Purge(ctx context.Context, prefix string) (int, error)
}
