package filestore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

// Regions: резервное хранилище регионов доставки.
type Regions struct {
	file *File
	now  func() time.Time
}

func NewRegions(path string) *Regions {
	return &Regions{file: NewFile(path), now: time.Now}
}

func (s *Regions) WithClock(now func() time.Time) *Regions {
	s.now = now
	return s
}

// DefaultRegions: три региона, которые видны читателям, пока файл пуст.
func DefaultRegions(now time.Time) []*models.Region {
	mk := func(id, name string, states []string, base, perKg, threshold float64, min, max int, cities []models.CityPrice) *models.Region {
		return &models.Region{
			ID:                    id,
			Name:                  name,
			States:                states,
			Cities:                cities,
			BasePrice:             base,
			PricePerKg:            perKg,
			FreeShippingThreshold: threshold,
			DeliveryTime:          models.DeliveryTime{Min: min, Max: max},
			Active:                true,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
	}
	return []*models.Region{
		mk("fallback1", "Sudeste", []string{"SP", "RJ", "MG", "ES"}, 18.9, 2.5, 150, 2, 5, []models.CityPrice{
			{Name: "São Paulo", State: "SP", CustomPrice: 8.9},
			{Name: "Rio de Janeiro", State: "RJ", CustomPrice: 12.9},
			{Name: "Belo Horizonte", State: "MG", CustomPrice: 15.9},
		}),
		mk("fallback2", "Sul", []string{"RS", "SC", "PR"}, 22.9, 3.0, 200, 3, 7, []models.CityPrice{
			{Name: "Porto Alegre", State: "RS", CustomPrice: 16.9},
			{Name: "Florianópolis", State: "SC", CustomPrice: 18.9},
			{Name: "Curitiba", State: "PR", CustomPrice: 14.9},
		}),
		mk("fallback3", "Nordeste", []string{"BA", "PE", "CE", "RN", "PB", "AL", "SE", "MA", "PI"}, 35.9, 4.5, 300, 5, 10, []models.CityPrice{
			{Name: "Salvador", State: "BA", CustomPrice: 25.9},
			{Name: "Recife", State: "PE", CustomPrice: 28.9},
			{Name: "Fortaleza", State: "CE", CustomPrice: 32.9},
		}),
	}
}

// decodeRegions принимает и голый массив, и {"regions": [...]}.
// Битый файл считается пустым.
func (s *Regions) decodeRegions(data []byte) []*models.Region {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var list []*models.Region
	if err := json.Unmarshal(data, &list); err == nil {
		return list
	}
	var wrapped struct {
		Regions []*models.Region `json:"regions"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		slog.Warn("fallback regions file is corrupted, treating as empty", "path", s.file.Path(), "err", err)
		return nil
	}
	return wrapped.Regions
}

func encodeRegions(list []*models.Region) ([]byte, error) {
	if list == nil {
		list = []*models.Region{}
	}
	b, err := json.MarshalIndent(list, "", "  ")
	return b, errors.Wrap(err, "encode regions")
}

// current: то, что видят читатели: содержимое файла или дефолты.
func (s *Regions) current(data []byte) []*models.Region {
	list := s.decodeRegions(data)
	if len(list) == 0 {
		return DefaultRegions(s.now())
	}
	return list
}

func (s *Regions) ListRegions(_ context.Context, f models.RegionFilter) ([]*models.Region, error) {
	var out []*models.Region
	err := s.file.View(func(data []byte) error {
		for _, r := range s.current(data) {
			if f.Match(r) {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Regions) GetRegion(_ context.Context, id string) (*models.Region, error) {
	var found *models.Region
	err := s.file.View(func(data []byte) error {
		for _, r := range s.current(data) {
			if r.ID == id {
				found = r
				return nil
			}
		}
		return errors.Wrapf(models.ErrNotFound, "region %s", id)
	})
	return found, err
}

func nameTaken(list []*models.Region, name, exceptID string) bool {
	for _, r := range list {
		if r.ID != exceptID && r.Active && strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// CreateRegion дописывает регион к содержимому файла. Дефолты при этом
// не материализуются: после первого create читатели видят только файл.
func (s *Regions) CreateRegion(_ context.Context, r *models.Region) (*models.Region, error) {
	created := *r
	err := s.file.Update(func(data []byte) ([]byte, error) {
		list := s.decodeRegions(data)
		if created.Active && nameTaken(list, created.Name, "") {
			return nil, errors.Wrapf(models.ErrConflict, "region %q already exists", created.Name)
		}
		now := s.now()
		created.ID = GenerateID(now)
		created.CreatedAt = now
		created.UpdatedAt = now
		return encodeRegions(append(list, &created))
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// mutate применяет fn к региону id. Пустой файл сначала заполняется
// дефолтами, чтобы их можно было править по тем же id.
func (s *Regions) mutate(id string, fn func(list []*models.Region, idx int) ([]*models.Region, error)) error {
	return s.file.Update(func(data []byte) ([]byte, error) {
		list := s.current(data)
		idx := -1
		for i, r := range list {
			if r.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.Wrapf(models.ErrNotFound, "region %s", id)
		}
		out, err := fn(list, idx)
		if err != nil {
			return nil, err
		}
		return encodeRegions(out)
	})
}

func (s *Regions) UpdateRegion(_ context.Context, id string, patch models.RegionPatch) (*models.Region, error) {
	var updated models.Region
	err := s.mutate(id, func(list []*models.Region, idx int) ([]*models.Region, error) {
		updated = patch.Apply(*list[idx], s.now())
		if updated.Active && nameTaken(list, updated.Name, id) {
			return nil, errors.Wrapf(models.ErrConflict, "region %q already exists", updated.Name)
		}
		list[idx] = &updated
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Regions) DeleteRegion(_ context.Context, id string) error {
	return s.mutate(id, func(list []*models.Region, idx int) ([]*models.Region, error) {
		return append(list[:idx:idx], list[idx+1:]...), nil
	})
}

func (s *Regions) ToggleRegion(_ context.Context, id string) (*models.Region, error) {
	var toggled models.Region
	err := s.mutate(id, func(list []*models.Region, idx int) ([]*models.Region, error) {
		toggled = *list[idx]
		toggled.Active = !toggled.Active
		toggled.UpdatedAt = s.now()
		if toggled.Active && nameTaken(list, toggled.Name, id) {
			return nil, errors.Wrapf(models.ErrConflict, "region %q already exists", toggled.Name)
		}
		list[idx] = &toggled
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}
