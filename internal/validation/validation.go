package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в сообщениях: json-имена полей, как их видит клиент
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct проверяет теги validate и возвращает *models.ValidationError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return models.Invalid(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// Namespace начинается с имени типа: RegionInput.states[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " é obrigatório"
	case "min":
		return field + " deve ter ao menos " + fe.Param() + " item(s)"
	case "len":
		return field + " deve ter " + fe.Param() + " caracteres"
	case "gte":
		return field + " deve ser maior ou igual a " + fe.Param()
	case "ltefield":
		return field + " deve ser menor ou igual a " + strings.ToLower(fe.Param())
	case "uppercase":
		return field + " deve estar em maiúsculas"
	default:
		return field + " inválido (" + fe.Tag() + ")"
	}
}
