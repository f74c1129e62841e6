package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// Response wraps single records and fixed-size lists. Data is always present,
// so a missing record encodes as {"data": null}.
type Response struct {
	Data any `json:"data"`
}

// ErrorBody is the one error shape every endpoint returns. Error is always a
// plain string.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes {"data": v}.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError maps err to a status code and writes an ErrorBody. 5xx errors are
// logged with their cause; the client only sees "Internal server error".
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	ctx := r.Context()
	body := ErrorBody{RequestID: logger.CorrelationIDFromContext(ctx)}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		err = valErr.First()
	}

	status := apperrors.HTTPStatus(err)
	body.Code = string(apperrors.KindOf(err))

	var appErr *apperrors.AppError
	switch {
	case status >= http.StatusInternalServerError:
		body.Error = "Internal server error"
		logger.FromContext(ctx, fallback).ErrorContext(ctx, "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	case errors.As(err, &appErr):
		body.Error = appErr.Message
		body.Field = appErr.Field
	default:
		body.Error = defaultMessage(status)
	}

	WriteJSON(w, status, body)
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "resource already exists"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	default:
		return "invalid input"
	}
}

// ParseUUID parses a path parameter. On failure it writes a 400 and returns
// false so the caller can return early.
func ParseUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorBody{
			Error:     "invalid id: " + param,
			Code:      string(apperrors.KindInvalidInput),
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		})
		return uuid.Nil, false
	}
	return id, true
}
