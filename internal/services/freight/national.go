package freight

import (
	"math"

	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/services/postal"
)

type nationalService struct {
	code       string
	name       string
	tiers      []tier
	extraPerKg float64
	days       models.DeliveryTime
}

// tier: цена до maxKg включительно.
type tier struct {
	maxKg float64
	price float64
}

var nationalServices = []nationalService{
	{
		code:       "PAC",
		name:       "PAC - Encomenda Econômica",
		tiers:      []tier{{1, 24.9}, {2, 29.9}, {5, 39.9}, {10, 59.9}},
		extraPerKg: 5.5,
		days:       models.DeliveryTime{Min: 6, Max: 12},
	},
	{
		code:       "SEDEX",
		name:       "SEDEX - Encomenda Expressa",
		tiers:      []tier{{1, 39.9}, {2, 49.9}, {5, 69.9}, {10, 99.9}},
		extraPerKg: 9.5,
		days:       models.DeliveryTime{Min: 2, Max: 5},
	},
}

func (n nationalService) price(weight float64) float64 {
	for _, t := range n.tiers {
		if weight <= t.maxKg {
			return t.price
		}
	}
	last := n.tiers[len(n.tiers)-1]
	return RoundCents(last.price + math.Ceil(weight-last.maxKg)*n.extraPerKg)
}

// National: деградированные варианты доставки без регионов и без сети.
// Ошибка только если CEP назначения не из 8 цифр.
func National(originZip, destinyZip string, weight float64) (models.NationalQuote, error) {
	dest, err := postal.Normalize(destinyZip)
	if err != nil {
		return models.NationalQuote{}, err
	}
	if weight <= 0 {
		weight = 1
	}
	q := models.NationalQuote{OriginZip: originZip, DestinyZip: dest, Weight: weight}
	for _, s := range nationalServices {
		q.Options = append(q.Options, models.ShippingOption{
			Service:      s.code,
			Name:         s.name,
			Price:        s.price(weight),
			DeliveryTime: s.days,
		})
	}
	return q, nil
}
