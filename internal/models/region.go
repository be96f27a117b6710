package models

import (
	"strings"
	"time"
)

type Region struct {
	ID                    string       `json:"_id"`
	Name                  string       `json:"name"`
	States                []string     `json:"states"`
	Cities                []CityPrice  `json:"cities"`
	BasePrice             float64      `json:"basePrice"`
	PricePerKg            float64      `json:"pricePerKg"`
	FreeShippingThreshold float64      `json:"freeShippingThreshold"`
	DeliveryTime          DeliveryTime `json:"deliveryTime"`
	IsFreeShipping        bool         `json:"isFreeShipping"`
	Active                bool         `json:"active"`
	CreatedAt             time.Time    `json:"createdAt"`
	UpdatedAt             time.Time    `json:"updatedAt"`
}

type CityPrice struct {
	Name        string  `json:"name" validate:"required"`
	State       string  `json:"state" validate:"required,len=2"`
	CustomPrice float64 `json:"customPrice" validate:"gte=0"`
}

// DeliveryTime: срок доставки в днях.
type DeliveryTime struct {
	Min int `json:"min" validate:"gte=0,ltefield=Max"`
	Max int `json:"max" validate:"gte=0"`
}

// RegionInput: данные для создания региона.
type RegionInput struct {
	Name                  string       `json:"name" validate:"required"`
	States                []string     `json:"states" validate:"required,min=1,dive,len=2,uppercase"`
	Cities                []CityPrice  `json:"cities" validate:"omitempty,dive"`
	BasePrice             float64      `json:"basePrice" validate:"gte=0"`
	PricePerKg            float64      `json:"pricePerKg" validate:"gte=0"`
	FreeShippingThreshold float64      `json:"freeShippingThreshold" validate:"gte=0"`
	DeliveryTime          DeliveryTime `json:"deliveryTime"`
	IsFreeShipping        bool         `json:"isFreeShipping"`
}

// RegionPatch: частичное обновление; nil означает "не менять".
type RegionPatch struct {
	Name                  *string       `json:"name,omitempty" validate:"omitempty,min=1"`
	States                []string      `json:"states,omitempty" validate:"omitempty,dive,len=2,uppercase"`
	Cities                []CityPrice   `json:"cities,omitempty" validate:"omitempty,dive"`
	BasePrice             *float64      `json:"basePrice,omitempty" validate:"omitempty,gte=0"`
	PricePerKg            *float64      `json:"pricePerKg,omitempty" validate:"omitempty,gte=0"`
	FreeShippingThreshold *float64      `json:"freeShippingThreshold,omitempty" validate:"omitempty,gte=0"`
	DeliveryTime          *DeliveryTime `json:"deliveryTime,omitempty"`
	IsFreeShipping        *bool         `json:"isFreeShipping,omitempty"`
	Active                *bool         `json:"active,omitempty"`
}

type RegionFilter struct {
	Active     *bool
	State      string
	NameSearch string
}

// Match применяет фильтр в памяти; pgstore строит эквивалентный WHERE.
func (f RegionFilter) Match(r *Region) bool {
	if f.Active != nil && r.Active != *f.Active {
		return false
	}
	if f.State != "" && !r.ServesState(f.State) {
		return false
	}
	if q := strings.TrimSpace(f.NameSearch); q != "" {
		if !strings.Contains(strings.ToLower(r.Name), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

func (r *Region) ServesState(state string) bool {
	for _, s := range r.States {
		if s == state {
			return true
		}
	}
	return false
}

// CityOverride ищет цену для города без учёта регистра.
func (r *Region) CityOverride(city, state string) (CityPrice, bool) {
	for _, c := range r.Cities {
		if strings.EqualFold(c.Name, city) && c.State == state {
			return c, true
		}
	}
	return CityPrice{}, false
}

// NormalizeFreeShipping обнуляет цены у региона с бесплатной доставкой.
func (r *Region) NormalizeFreeShipping() {
	if r.IsFreeShipping {
		r.BasePrice = 0
		r.PricePerKg = 0
		r.FreeShippingThreshold = 0
	}
}

func (in RegionInput) ToRegion(id string, now time.Time) *Region {
	r := &Region{
		ID:                    id,
		Name:                  strings.TrimSpace(in.Name),
		States:                append([]string(nil), in.States...),
		Cities:                append([]CityPrice{}, in.Cities...),
		BasePrice:             in.BasePrice,
		PricePerKg:            in.PricePerKg,
		FreeShippingThreshold: in.FreeShippingThreshold,
		DeliveryTime:          in.DeliveryTime,
		IsFreeShipping:        in.IsFreeShipping,
		Active:                true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	r.NormalizeFreeShipping()
	return r
}

// Apply накладывает patch на копию региона.
func (p RegionPatch) Apply(r Region, now time.Time) Region {
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.States != nil {
		r.States = append([]string(nil), p.States...)
	}
	if p.Cities != nil {
		r.Cities = append([]CityPrice{}, p.Cities...)
	}
	if p.BasePrice != nil {
		r.BasePrice = *p.BasePrice
	}
	if p.PricePerKg != nil {
		r.PricePerKg = *p.PricePerKg
	}
	if p.FreeShippingThreshold != nil {
		r.FreeShippingThreshold = *p.FreeShippingThreshold
	}
	if p.DeliveryTime != nil {
		r.DeliveryTime = *p.DeliveryTime
	}
	if p.IsFreeShipping != nil {
		r.IsFreeShipping = *p.IsFreeShipping
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
	r.NormalizeFreeShipping()
	r.UpdatedAt = now
	return r
}
