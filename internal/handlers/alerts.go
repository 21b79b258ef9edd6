// internal/handlers/alerts.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// AlertHandler handles low-stock alert HTTP requests
type AlertHandler struct {
	service ports.AlertService
	logger  *slog.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(service ports.AlertService, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "alerts")),
	}
}

// GetAlert handles GET /api/v1/alerts/{id}
func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid alert id")
		return
	}

	alert, err := h.service.Get(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, alert)
}

// ListAlerts handles GET /api/v1/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, pageSize := 1, 50
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= 200 {
		pageSize = v
	}
	status := domain.AlertStatus(q.Get("status"))

	alerts, total, err := h.service.List(ctx, status, pageSize, (page-1)*pageSize)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, listResponse{
		Data: alerts,
		Pagination: pagination{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		},
	})
}

// AcknowledgeAlert handles POST /api/v1/alerts/{id}/acknowledge
func (h *AlertHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid alert id")
		return
	}

	var req struct {
		AcknowledgedBy string `json:"acknowledged_by"`
	}
	// body is optional; a missing or empty body acknowledges anonymously
	_ = json.NewDecoder(r.Body).Decode(&req)

	alert, err := h.service.Acknowledge(ctx, id, req.AcknowledgedBy)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, alert)
}

// ResolveAlert handles POST /api/v1/alerts/{id}/resolve
func (h *AlertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid alert id")
		return
	}

	alert, err := h.service.Resolve(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, alert)
}

// BulkAcknowledge handles POST /api/v1/alerts/bulk-acknowledge
func (h *AlertHandler) BulkAcknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		IDs            []uuid.UUID `json:"ids"`
		AcknowledgedBy string      `json:"acknowledged_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, h.logger, http.StatusBadRequest, "ids is required")
		return
	}

	acked, err := h.service.BulkAcknowledge(ctx, req.IDs, req.AcknowledgedBy)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"acknowledged": acked,
		"count":        len(acked),
	})
}

// RunCheck handles POST /api/v1/alerts/check
func (h *AlertHandler) RunCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	created, updated, err := h.service.AutoCheck(ctx)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"created": created,
		"updated": updated,
	})
}
