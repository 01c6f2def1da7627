package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/repositories"
)

// envelope is the success response shape shared by every endpoint.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// errorEnvelope is the failure response shape. Errors carries field-level
// validation details when present.
type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondError translates the typed error taxonomy into an HTTP status and
// the public error envelope. Unclassified errors become opaque 500s.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "something went wrong, please try again"
	var fields []string

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Field != "" {
			fields = append(fields, appErr.Field)
		}
	}

	switch {
	case errors.Is(err, apperror.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated),
		errors.Is(err, apperror.ErrInvalidCredentials),
		errors.Is(err, apperror.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
		if message == "something went wrong, please try again" {
			message = "resource not found"
		}
	case errors.Is(err, repositories.ErrInvalidReference):
		status = http.StatusNotFound
		message = "resource not found"
	case errors.Is(err, apperror.ErrConflict), errors.Is(err, repositories.ErrConflict):
		status = http.StatusConflict
		if message == "something went wrong, please try again" {
			message = "resource already exists"
		}
	case errors.Is(err, repositories.ErrSelfSubscription):
		status = http.StatusBadRequest
		message = "cannot subscribe to your own channel"
	default:
		logging.FromContext(ctx).Error("request failed", "error", err)
	}

	if fields == nil {
		fields = []string{}
	}

	writeJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     fields,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status)
	}
}

// decodeJSON parses the request body into dst, translating malformed input
// into a BadRequest error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	return nil
}
