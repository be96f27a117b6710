package pgstore

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS regions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  states TEXT[] NOT NULL,
  cities JSONB NOT NULL DEFAULT '[]'::jsonb,
  base_price DOUBLE PRECISION NOT NULL DEFAULT 0,
  price_per_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
  free_shipping_threshold DOUBLE PRECISION NOT NULL DEFAULT 0,
  delivery_min INT NOT NULL DEFAULT 0,
  delivery_max INT NOT NULL DEFAULT 0,
  is_free_shipping BOOLEAN NOT NULL DEFAULT FALSE,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		// имя уникально только среди активных регионов
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_regions_active_name ON regions(lower(name)) WHERE active`,
		`CREATE INDEX IF NOT EXISTS idx_regions_states ON regions USING GIN(states)`,
		`
CREATE TABLE IF NOT EXISTS trackings (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL DEFAULT '',
  tracking_code TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  servico TEXT NOT NULL DEFAULT '',
  last_checked TIMESTAMPTZ NULL,
  last_update TIMESTAMPTZ NULL,
  error_count INT NOT NULL DEFAULT 0,
  last_error TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_trackings_order ON trackings(order_id) WHERE order_id <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_trackings_due ON trackings(status, error_count, last_checked)`,
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id BIGSERIAL PRIMARY KEY,
  tracking_id TEXT NOT NULL REFERENCES trackings(id) ON DELETE CASCADE,
  seq INT NOT NULL,
  event_date TEXT NOT NULL,
  event_time TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  sub_status TEXT[] NOT NULL DEFAULT '{}',
  observation TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracking_events_dedup ON tracking_events(tracking_id, event_date, event_time, status)`,
		// Заказы и пользователи принадлежат магазину; таблицы создаются,
		// только если их ещё нет (standalone-развёртывание и тесты).
		`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT ''
)`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL,
  tracking_code TEXT NULL,
  tracking_status TEXT NULL,
  last_tracking_update TIMESTAMPTZ NULL,
  tracking_notifications BOOLEAN NOT NULL DEFAULT TRUE
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
