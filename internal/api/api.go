// Package api: общий JSON-конверт REST-ответов {success, data|message}.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

const internalErrorMessage = "Erro interno do servidor"

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "err", err)
	}
}

func OK(w http.ResponseWriter, status int, data any, msg string) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Message: msg})
}

func Fail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Success: false, Message: msg})
}

// StatusFor сопоставляет доменные ошибки HTTP-статусам.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidPostalCode),
		errors.Is(err, models.ErrLookupTimeout), errors.Is(err, models.ErrLookupFailure):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrPostalCodeNotFound),
		errors.Is(err, models.ErrRegionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrCarrier):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrOrdersUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var sentinels = []error{
	models.ErrInvalidPostalCode,
	models.ErrPostalCodeNotFound,
	models.ErrLookupTimeout,
	models.ErrLookupFailure,
	models.ErrRegionNotFound,
}

// Texts: сообщения ресурса для NotFound и Conflict.
type Texts struct {
	NotFound string
	Conflict string
}

// Message: текст для клиента. Внутренние детали наружу не отдаются.
func Message(err error, t Texts) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Msg
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	switch {
	case errors.Is(err, models.ErrNotFound) && t.NotFound != "":
		return t.NotFound
	case errors.Is(err, models.ErrConflict) && t.Conflict != "":
		return t.Conflict
	}
	if StatusFor(err) >= http.StatusInternalServerError {
		return internalErrorMessage
	}
	return err.Error()
}

// Error пишет ответ об ошибке; 5xx логируются.
func Error(w http.ResponseWriter, err error, t Texts) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "err", err)
	}
	Fail(w, status, Message(err, t))
}

// Decode читает JSON-тело; ошибка разбора: ошибка валидации.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.Invalid("JSON inválido")
	}
	return nil
}
