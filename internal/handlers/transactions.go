// internal/handlers/transactions.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// TransactionHandler handles stock transaction HTTP requests
type TransactionHandler struct {
	ledger ports.LedgerService
	logger *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(ledger ports.LedgerService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		ledger: ledger,
		logger: logger.With(slog.String("handler", "transactions")),
	}
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, item, err := h.ledger.ApplyTransaction(ctx, req.ToDomain())
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"transaction": tx,
		"item":        item,
	})
}

// GetTransaction handles GET /api/v1/transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := h.ledger.GetTransaction(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, tx)
}

// ListTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := ports.TxListParams{
		Type:     domain.TransactionType(q.Get("type")),
		Status:   domain.TransactionStatus(q.Get("status")),
		Page:     1,
		PageSize: 50,
	}
	if v, err := uuid.Parse(q.Get("item_id")); err == nil {
		params.ItemID = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		params.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= 200 {
		params.PageSize = v
	}

	txs, total, err := h.ledger.ListTransactions(ctx, params)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, listResponse{
		Data: txs,
		Pagination: pagination{
			Total:    total,
			Page:     params.Page,
			PageSize: params.PageSize,
		},
	})
}

// CompleteTransaction handles POST /api/v1/transactions/{id}/complete
func (h *TransactionHandler) CompleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, item, err := h.ledger.CompleteTransaction(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"transaction": tx,
		"item":        item,
	})
}

// Request DTOs

// TransactionRequest represents the request body for creating a transaction
type TransactionRequest struct {
	ItemID   uuid.UUID  `json:"item_id"`
	Type     string     `json:"type"`
	Quantity int        `json:"quantity"`
	UserName string     `json:"user_name,omitempty"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Notes    string     `json:"notes,omitempty"`
}

// ToDomain converts the request to a domain model
func (r *TransactionRequest) ToDomain() *domain.Transaction {
	return &domain.Transaction{
		ItemID:   r.ItemID,
		Type:     domain.TransactionType(r.Type),
		Quantity: r.Quantity,
		UserName: r.UserName,
		DueDate:  r.DueDate,
		Notes:    r.Notes,
	}
}
