// internal/core/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a stock-affecting event.
type TransactionType string

// Transaction type constants
const (
	TxCheckout    TransactionType = "checkout"
	TxCheckin     TransactionType = "checkin"
	TxLost        TransactionType = "lost"
	TxDamaged     TransactionType = "damaged"
	TxMaintenance TransactionType = "maintenance"
)

// TransactionStatus tracks the lifecycle of a transaction record.
type TransactionStatus string

// Transaction status constants
const (
	TxActive        TransactionStatus = "active"
	TxCompleted     TransactionStatus = "completed"
	TxOverdue       TransactionStatus = "overdue"
	TxStatusLost    TransactionStatus = "lost"
	TxStatusDamaged TransactionStatus = "damaged"
)

// Transaction records one stock-affecting event against an item. It is
// immutable once created except for status and return-date transitions.
type Transaction struct {
	ID         uuid.UUID         `json:"id"`
	ItemID     uuid.UUID         `json:"item_id"`
	Type       TransactionType   `json:"type"`
	Quantity   int               `json:"quantity"`
	Status     TransactionStatus `json:"status"`
	UserName   string            `json:"user_name,omitempty"`
	DueDate    *time.Time        `json:"due_date,omitempty"`
	ReturnedAt *time.Time        `json:"returned_at,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Validate performs domain validation on the transaction.
func (t *Transaction) Validate() error {
	if t.ItemID == uuid.Nil {
		return NewValidationError("item_id", "is required")
	}
	switch t.Type {
	case TxCheckout, TxCheckin, TxLost, TxDamaged, TxMaintenance:
	default:
		return NewValidationError("type", "must be one of checkout, checkin, lost, damaged, maintenance")
	}
	if t.Quantity <= 0 {
		return NewValidationError("quantity", "must be positive")
	}
	return nil
}

// Delta returns the signed quantity change this transaction applies to the
// item: checkin is positive, every other type consumes stock.
func (t *Transaction) Delta() int {
	if t.Type == TxCheckin {
		return t.Quantity
	}
	return -t.Quantity
}

// InitialStatus returns the status a freshly committed transaction carries.
func (t *Transaction) InitialStatus() TransactionStatus {
	switch t.Type {
	case TxLost:
		return TxStatusLost
	case TxDamaged:
		return TxStatusDamaged
	case TxCheckin:
		return TxCompleted
	default:
		return TxActive
	}
}

// ItemStatusEffect returns the item status implied by this transaction type,
// or "" when the type does not change item status.
func (t *Transaction) ItemStatusEffect() ItemStatus {
	switch t.Type {
	case TxLost:
		return ItemLost
	case TxDamaged, TxMaintenance:
		return ItemMaintenance
	default:
		return ""
	}
}

// PrepareForStorage assigns identity, status and timestamps before persistence.
func (t *Transaction) PrepareForStorage() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = t.InitialStatus()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
