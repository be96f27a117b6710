package pgstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

const regionColumns = `
  id, name, states, cities,
  base_price, price_per_kg, free_shipping_threshold,
  delivery_min, delivery_max,
  is_free_shipping, active,
  created_at, updated_at`

func scanRegion(row pgx.Row) (*models.Region, error) {
	var r models.Region
	var cities []byte
	if err := row.Scan(
		&r.ID, &r.Name, &r.States, &cities,
		&r.BasePrice, &r.PricePerKg, &r.FreeShippingThreshold,
		&r.DeliveryTime.Min, &r.DeliveryTime.Max,
		&r.IsFreeShipping, &r.Active,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.Cities = []models.CityPrice{}
	if len(cities) > 0 {
		if err := json.Unmarshal(cities, &r.Cities); err != nil {
			return nil, errors.Wrap(err, "decode region cities")
		}
	}
	return &r, nil
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}

func (s *Storage) ListRegions(ctx context.Context, f models.RegionFilter) ([]*models.Region, error) {
	var search string
	if strings.TrimSpace(f.NameSearch) != "" {
		search = likePattern(f.NameSearch)
	}
	rows, err := s.db.Query(ctx, `
SELECT`+regionColumns+`
FROM regions
WHERE ($1::boolean IS NULL OR active = $1)
  AND ($2 = '' OR $2 = ANY(states))
  AND ($3 = '' OR name ILIKE $3)
ORDER BY name ASC
`, f.Active, f.State, search)
	if err != nil {
		return nil, errors.Wrap(err, "select regions")
	}
	defer rows.Close()

	out := make([]*models.Region, 0)
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan region")
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) getRegion(ctx context.Context, q querier, id string, lock bool) (*models.Region, error) {
	sql := `SELECT` + regionColumns + ` FROM regions WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	r, err := scanRegion(q.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, notFound(err, models.ErrNotFound, "select region "+id)
	}
	return r, nil
}

func (s *Storage) GetRegion(ctx context.Context, id string) (*models.Region, error) {
	return s.getRegion(ctx, s.db, id, false)
}

func (s *Storage) writeRegion(ctx context.Context, q querier, r *models.Region, insert bool) error {
	if r.Cities == nil {
		r.Cities = []models.CityPrice{}
	}
	cities, err := json.Marshal(r.Cities)
	if err != nil {
		return errors.Wrap(err, "encode region cities")
	}
	if insert {
		_, err = q.Exec(ctx, `
INSERT INTO regions (`+regionColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
			r.ID, r.Name, r.States, cities,
			r.BasePrice, r.PricePerKg, r.FreeShippingThreshold,
			r.DeliveryTime.Min, r.DeliveryTime.Max,
			r.IsFreeShipping, r.Active,
			r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
		)
	} else {
		_, err = q.Exec(ctx, `
UPDATE regions SET
  name = $2, states = $3, cities = $4,
  base_price = $5, price_per_kg = $6, free_shipping_threshold = $7,
  delivery_min = $8, delivery_max = $9,
  is_free_shipping = $10, active = $11,
  updated_at = $12
WHERE id = $1
`,
			r.ID, r.Name, r.States, cities,
			r.BasePrice, r.PricePerKg, r.FreeShippingThreshold,
			r.DeliveryTime.Min, r.DeliveryTime.Max,
			r.IsFreeShipping, r.Active,
			r.UpdatedAt.UTC(),
		)
	}
	if isUniqueViolation(err) {
		return errors.Wrapf(models.ErrConflict, "region %q already exists", r.Name)
	}
	return errors.Wrap(err, "write region")
}

func (s *Storage) CreateRegion(ctx context.Context, r *models.Region) (*models.Region, error) {
	created := *r
	now := time.Now().UTC()
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	if err := s.writeRegion(ctx, s.db, &created, true); err != nil {
		return nil, err
	}
	return &created, nil
}

// mutateRegion читает регион под блокировкой, применяет fn и сохраняет.
func (s *Storage) mutateRegion(ctx context.Context, id string, fn func(r models.Region) models.Region) (*models.Region, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := s.getRegion(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	next := fn(*cur)
	if err := s.writeRegion(ctx, tx, &next, false); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return &next, nil
}

func (s *Storage) UpdateRegion(ctx context.Context, id string, patch models.RegionPatch) (*models.Region, error) {
	return s.mutateRegion(ctx, id, func(r models.Region) models.Region {
		return patch.Apply(r, time.Now().UTC())
	})
}

func (s *Storage) ToggleRegion(ctx context.Context, id string) (*models.Region, error) {
	return s.mutateRegion(ctx, id, func(r models.Region) models.Region {
		r.Active = !r.Active
		r.UpdatedAt = time.Now().UTC()
		return r
	})
}

func (s *Storage) DeleteRegion(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete region")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(models.ErrNotFound, "region %s", id)
	}
	return nil
}
