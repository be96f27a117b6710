package filestore

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/ShipBox/internal/models"
)

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func newRegions(t *testing.T) (*Regions, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "regions.json")
	return NewRegions(path).WithClock(fixedClock()), path
}

func TestRegions_DefaultsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s, path := newRegions(t)

	list, err := s.ListRegions(ctx, models.RegionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)

	// директория создаётся, но файл при чтении не пишется
	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	sp, err := s.ListRegions(ctx, models.RegionFilter{State: "SP"})
	require.NoError(t, err)
	require.Len(t, sp, 1)
	require.Equal(t, "fallback1", sp[0].ID)
	c, ok := sp[0].CityOverride("são paulo", "SP")
	require.True(t, ok)
	require.Equal(t, 8.9, c.CustomPrice)
}

func TestRegions_CreateReplacesDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newRegions(t)

	in := models.RegionInput{Name: "Norte", States: []string{"AM", "PA"}, BasePrice: 40, PricePerKg: 5, DeliveryTime: models.DeliveryTime{Min: 7, Max: 15}}
	created, err := s.CreateRegion(ctx, in.ToRegion("", time.Time{}))
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^fb_\d+_[0-9a-z]{6}$`), created.ID)
	require.True(t, created.Active)

	list, err := s.ListRegions(ctx, models.RegionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Norte", list[0].Name)

	_, err = s.CreateRegion(ctx, in.ToRegion("", time.Time{}))
	require.True(t, errors.Is(err, models.ErrConflict))
}

func TestRegions_ToggleAndDeleteDefault(t *testing.T) {
	ctx := context.Background()
	s, _ := newRegions(t)

	toggled, err := s.ToggleRegion(ctx, "fallback2")
	require.NoError(t, err)
	require.False(t, toggled.Active)

	active := true
	list, err := s.ListRegions(ctx, models.RegionFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, s.DeleteRegion(ctx, "fallback3"))
	_, err = s.GetRegion(ctx, "fallback3")
	require.True(t, errors.Is(err, models.ErrNotFound))

	err = s.DeleteRegion(ctx, "missing")
	require.True(t, errors.Is(err, models.ErrNotFound))
}

func TestRegions_UpdatePatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newRegions(t)

	price := 19.9
	free := true
	updated, err := s.UpdateRegion(ctx, "fallback1", models.RegionPatch{BasePrice: &price})
	require.NoError(t, err)
	require.Equal(t, 19.9, updated.BasePrice)
	require.Equal(t, "Sudeste", updated.Name)

	updated, err = s.UpdateRegion(ctx, "fallback1", models.RegionPatch{IsFreeShipping: &free})
	require.NoError(t, err)
	require.Zero(t, updated.BasePrice)
	require.Zero(t, updated.PricePerKg)

	name := "Sul"
	_, err = s.UpdateRegion(ctx, "fallback1", models.RegionPatch{Name: &name})
	require.True(t, errors.Is(err, models.ErrConflict))
}

func TestRegions_AcceptsWrappedFileAndCorruption(t *testing.T) {
	ctx := context.Background()
	s, path := newRegions(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	require.NoError(t, os.WriteFile(path, []byte(`{"regions":[{"_id":"r1","name":"Centro-Oeste","states":["DF"],"active":true}]}`), 0o644))
	list, err := s.ListRegions(ctx, models.RegionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "r1", list[0].ID)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	list, err = s.ListRegions(ctx, models.RegionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
}

func TestGenerateID_Unique(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateID(now)
		require.False(t, seen[id])
		seen[id] = true
	}
}
