package models

import "github.com/pkg/errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	ErrInvalidPostalCode  = errors.New("CEP deve conter 8 dígitos")
	ErrPostalCodeNotFound = errors.New("CEP não encontrado")
	ErrLookupTimeout      = errors.New("timeout na consulta do CEP")
	ErrLookupFailure      = errors.New("falha na consulta do CEP")
	ErrRegionNotFound     = errors.New("região não atendida para entrega")

	ErrCarrier = errors.New("carrier error")

	// ErrPersistenceUnavailable: основная БД недоступна; хранилища переключаются на файлы.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrOrdersUnavailable: заказы живут только в основной БД.
	ErrOrdersUnavailable = errors.New("orders unavailable")
)

// ValidationError несёт текст для клиента и матчится как ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(msg string) error { return &ValidationError{Msg: msg} }

// IsDomainError: ошибки, которые не означают проблем с хранилищем
// и не должны переключать запрос на резервное хранилище.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) || errors.Is(err, ErrRegionNotFound)
}
