package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hperssn/clockd/internal/engine"
	"github.com/hperssn/clockd/internal/runner"
)

func RespondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func RespondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// StatusFor maps runner and engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, runner.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrSessionExists),
		errors.Is(err, engine.ErrInvalidState),
		errors.Is(err, engine.ErrZeroDuration):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidSetting),
		errors.Is(err, ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, runner.ErrManagerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
