package models

type FreightQuote struct {
	Price        float64      `json:"price"`
	DeliveryTime DeliveryTime `json:"deliveryTime"`
	RegionName   string       `json:"region"`
	FreeShipping bool         `json:"freeShipping"`
	Address      AddressInfo  `json:"cepInfo"`
}

// ShippingOption: национальный вариант доставки для деградированного ответа.
type ShippingOption struct {
	Service      string       `json:"service"`
	Name         string       `json:"name"`
	Price        float64      `json:"price"`
	DeliveryTime DeliveryTime `json:"deliveryTime"`
}

type NationalQuote struct {
	OriginZip  string           `json:"originZip"`
	DestinyZip string           `json:"destinyZip"`
	Weight     float64          `json:"weight"`
	Options    []ShippingOption `json:"options"`
}
