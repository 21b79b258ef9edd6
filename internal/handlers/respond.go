// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

// respondError writes a JSON error body with the given status
func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// respondDomainError maps a service error onto the HTTP status it implies:
// validation -> 400, not found -> 404, conflict and insufficient stock -> 409,
// anything else -> 500 with the detail kept out of the response body.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, logger, http.StatusBadRequest, map[string]string{
			"error": ve.Message,
			"field": ve.Field,
		})
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, logger, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInsufficientStock):
		respondError(w, logger, http.StatusConflict, "insufficient stock")
	case errors.Is(err, domain.ErrConflict):
		respondError(w, logger, http.StatusConflict, "conflict")
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		respondError(w, logger, http.StatusInternalServerError, "internal error")
	}
}

// pagination is the standard list-response wrapper
type pagination struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type listResponse struct {
	Data       interface{} `json:"data"`
	Pagination pagination  `json:"pagination"`
}
