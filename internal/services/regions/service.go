package regions

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/storage"
	"github.com/BearBump/ShipBox/internal/validation"
)

// Service: администрирование регионов доставки поверх хранилища.
type Service struct {
	repo storage.RegionRepository
}

func New(repo storage.RegionRepository) *Service {
	return &Service{repo: repo}
}

func normalizeStates(states []string) []string {
	if states == nil {
		return nil
	}
	out := make([]string, 0, len(states))
	seen := make(map[string]struct{}, len(states))
	for _, s := range states {
		s = strings.ToUpper(strings.TrimSpace(s))
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func normalizeCities(cities []models.CityPrice) []models.CityPrice {
	for i := range cities {
		cities[i].Name = strings.TrimSpace(cities[i].Name)
		cities[i].State = strings.ToUpper(strings.TrimSpace(cities[i].State))
	}
	return cities
}

func (s *Service) List(ctx context.Context, f models.RegionFilter) ([]*models.Region, error) {
	f.State = strings.ToUpper(strings.TrimSpace(f.State))
	return s.repo.ListRegions(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Region, error) {
	return s.repo.GetRegion(ctx, id)
}

func (s *Service) Create(ctx context.Context, in models.RegionInput) (*models.Region, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.States = normalizeStates(in.States)
	in.Cities = normalizeCities(in.Cities)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.repo.CreateRegion(ctx, in.ToRegion("", time.Now().UTC()))
}

func (s *Service) Update(ctx context.Context, id string, patch models.RegionPatch) (*models.Region, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.States != nil {
		patch.States = normalizeStates(patch.States)
		if len(patch.States) == 0 {
			return nil, models.Invalid("states deve ter ao menos 1 item(s)")
		}
	}
	patch.Cities = normalizeCities(patch.Cities)
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	return s.repo.UpdateRegion(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteRegion(ctx, id)
}

func (s *Service) Toggle(ctx context.Context, id string) (*models.Region, error) {
	return s.repo.ToggleRegion(ctx, id)
}
