package models

import "time"

// AddressInfo: ответ ViaCEP; имена полей сохранены, их читает витрина.
type AddressInfo struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	IBGE         string `json:"ibge"`
	GIA          string `json:"gia"`
	DDD          string `json:"ddd"`
	SIAFI        string `json:"siafi"`
}

type PostalCacheEntry struct {
	PostalCode string      `json:"postalCode"`
	Address    AddressInfo `json:"resolvedAddress"`
	FetchedAt  time.Time   `json:"fetchedAt"`
}
