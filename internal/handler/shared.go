package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/reconcile"
	"github.com/Samir899/SpendVolt/internal/upi"
)

// Dependencies holds the services required by the handlers.
type Dependencies struct {
	App AppService
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// StatusFor maps an app error to an HTTP status.
func StatusFor(err error) int {
	var domainErr *models.Error
	var gwErr *gateway.Error
	switch {
	case errors.As(err, &domainErr):
		switch domainErr.Kind {
		case models.KindValidation:
			return http.StatusBadRequest
		case models.KindNotFound:
			return http.StatusNotFound
		case models.KindConflict:
			return http.StatusConflict
		}
	case errors.Is(err, upi.ErrInvalidQR):
		return http.StatusBadRequest
	case errors.Is(err, reconcile.ErrNotAuthenticated), gateway.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.As(err, &gwErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeAppError logs err and writes it with its mapped status.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	WriteError(w, status, gateway.UserMessage(err))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("invalid request body", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
