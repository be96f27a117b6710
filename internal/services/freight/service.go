package freight

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/metrics"
	"github.com/BearBump/ShipBox/internal/models"
)

type AddressResolver interface {
	Resolve(ctx context.Context, raw string) (models.AddressInfo, error)
}

type RegionLister interface {
	ListRegions(ctx context.Context, f models.RegionFilter) ([]*models.Region, error)
}

type Service struct {
	postal  AddressResolver
	regions RegionLister
}

func New(postal AddressResolver, regions RegionLister) *Service {
	return &Service{postal: postal, regions: regions}
}

// centEpsilon гасит двоичную погрешность: 1.005*100 = 100.49999999999999.
const centEpsilon = 1e-9

// RoundCents: округление половины вверх до копейки (centavo).
func RoundCents(v float64) float64 {
	return math.Floor(v*100+0.5+centEpsilon) / 100
}

// Calculate: weight <= 0 трактуется как 1 кг, orderValue < 0 как 0.
func (s *Service) Calculate(ctx context.Context, cep string, weight, orderValue float64) (models.FreightQuote, error) {
	if weight <= 0 {
		weight = 1
	}
	if orderValue < 0 {
		orderValue = 0
	}

	addr, err := s.postal.Resolve(ctx, cep)
	if err != nil {
		metrics.FreightQuotes.WithLabelValues("address_error").Inc()
		return models.FreightQuote{}, err
	}

	active := true
	candidates, err := s.regions.ListRegions(ctx, models.RegionFilter{Active: &active, State: addr.State})
	if err != nil {
		metrics.FreightQuotes.WithLabelValues("store_error").Inc()
		return models.FreightQuote{}, errors.Wrap(err, "list regions")
	}
	region, city := pickRegion(candidates, addr)
	if region == nil {
		metrics.FreightQuotes.WithLabelValues("no_region").Inc()
		return models.FreightQuote{}, errors.Wrapf(models.ErrRegionNotFound, "uf %s", addr.State)
	}

	price, free := Price(region, city, weight, orderValue)
	outcome := "priced"
	if free {
		outcome = "free"
	}
	metrics.FreightQuotes.WithLabelValues(outcome).Inc()

	return models.FreightQuote{
		Price:        price,
		DeliveryTime: region.DeliveryTime,
		RegionName:   region.Name,
		FreeShipping: free,
		Address:      addr,
	}, nil
}

// pickRegion: кандидаты упорядочены (бесплатные первыми, затем по базовой цене);
// регион с ценой для города адреса выигрывает, иначе берётся первый.
func pickRegion(candidates []*models.Region, addr models.AddressInfo) (*models.Region, *models.CityPrice) {
	list := make([]*models.Region, 0, len(candidates))
	for _, r := range candidates {
		if r.Active && r.ServesState(addr.State) {
			list = append(list, r)
		}
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsFreeShipping != list[j].IsFreeShipping {
			return list[i].IsFreeShipping
		}
		return list[i].BasePrice < list[j].BasePrice
	})
	for _, r := range list {
		if c, ok := r.CityOverride(addr.City, addr.State); ok {
			return r, &c
		}
	}
	return list[0], nil
}

// Price возвращает цену и признак бесплатной доставки.
func Price(r *models.Region, city *models.CityPrice, weight, orderValue float64) (float64, bool) {
	if r.IsFreeShipping {
		return 0, true
	}
	if r.FreeShippingThreshold > 0 && orderValue >= r.FreeShippingThreshold {
		return 0, true
	}
	base := r.BasePrice
	if city != nil && city.CustomPrice > 0 {
		base = city.CustomPrice
	}
	return RoundCents(base + math.Max(0, weight-1)*r.PricePerKg), false
}
