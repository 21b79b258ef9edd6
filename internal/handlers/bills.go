// internal/handlers/bills.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// BillHandler handles bill HTTP requests
type BillHandler struct {
	ledger ports.LedgerService
	logger *slog.Logger
}

// NewBillHandler creates a new bill handler
func NewBillHandler(ledger ports.LedgerService, logger *slog.Logger) *BillHandler {
	return &BillHandler{
		ledger: ledger,
		logger: logger.With(slog.String("handler", "bills")),
	}
}

// CreateBill handles POST /api/v1/bills
func (h *BillHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	bill := &domain.Bill{
		BillNumber:   req.BillNumber,
		CustomerName: req.CustomerName,
		Tax:          req.Tax,
		Notes:        req.Notes,
	}

	created, err := h.ledger.CreateBill(ctx, bill, req.Items)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, created)
}

// GetBill handles GET /api/v1/bills/{id}
func (h *BillHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid bill id")
		return
	}

	bill, err := h.ledger.GetBill(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, bill)
}

// ListBills handles GET /api/v1/bills
func (h *BillHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, pageSize := 1, 50
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= 200 {
		pageSize = v
	}

	bills, total, err := h.ledger.ListBills(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, listResponse{
		Data: bills,
		Pagination: pagination{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		},
	})
}

// UpdateBill handles PUT /api/v1/bills/{id}
func (h *BillHandler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid bill id")
		return
	}

	var req struct {
		Items []domain.BillLine `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	bill, err := h.ledger.UpdateBill(ctx, id, req.Items)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, bill)
}

// DeleteBill handles DELETE /api/v1/bills/{id}
func (h *BillHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid bill id")
		return
	}

	if err := h.ledger.DeleteBill(ctx, id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message": "bill deleted",
		"id":      id,
	})
}

// Request DTOs

// BillRequest represents the request body for creating a bill
type BillRequest struct {
	BillNumber   string            `json:"bill_number"`
	CustomerName string            `json:"customer_name,omitempty"`
	Tax          decimal.Decimal   `json:"tax,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Items        []domain.BillLine `json:"items"`
}
