// internal/core/ports/repositories.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

// InventoryRepository defines the persistence port for inventory items.
// Quantity is never written through this interface; all quantity changes go
// through LedgerRepository so they stay atomic with their cause.
type InventoryRepository interface {
	Save(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	FindAll(ctx context.Context, params ListParams) ([]*domain.InventoryItem, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// ListBelowMinimum returns items whose quantity is at or below their
	// minimum threshold. Used by the periodic alert auto-check.
	ListBelowMinimum(ctx context.Context) ([]*domain.InventoryItem, error)
}

// LedgerRepository is the only persistence port allowed to change an item's
// quantity. Every method is atomic: a failure at any step leaves the store
// exactly as before the call.
type LedgerRepository interface {
	// ApplyTransaction persists the transaction and applies its stock delta
	// in one atomic unit. Returns domain.ErrInsufficientStock when the delta
	// would take the quantity below zero, domain.ErrNotFound for an unknown
	// item. On success the returned item reflects the committed quantity.
	ApplyTransaction(ctx context.Context, tx *domain.Transaction) (*domain.InventoryItem, error)

	// SetQuantity overrides an item's quantity directly, bypassing delta
	// computation. The reason is recorded with the override.
	SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int, reason string) (*domain.InventoryItem, error)

	// CreateBill verifies and decrements stock for every line, snapshots
	// unit prices, and persists the bill with its line items, all atomically
	// across lines and across concurrent callers targeting the same item.
	// On success bill.Items and totals are populated.
	CreateBill(ctx context.Context, bill *domain.Bill, lines []domain.BillLine) error

	// UpdateBill reconciles a bill against a replacement line set: restores
	// previously committed quantities, re-applies the new decrements, and
	// re-validates sufficiency for any net increase, as one atomic unit.
	UpdateBill(ctx context.Context, billID uuid.UUID, lines []domain.BillLine) (*domain.Bill, error)

	// DeleteBill restores stock for every line item, then removes the bill,
	// its line items and payments, atomically.
	DeleteBill(ctx context.Context, billID uuid.UUID) error
}

// TransactionRepository defines the read/transition port for transactions.
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, params TxListParams) ([]*domain.Transaction, int64, error)
	// UpdateStatus transitions a transaction's status and optional return
	// date. Fails with domain.ErrNotFound for an unknown id.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, returnedAt *time.Time) (*domain.Transaction, error)
	// MarkOverdue flags active checkouts whose due date has passed and
	// returns the number of rows transitioned.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// BillRepository defines the read port for bills. Mutations cascade into
// inventory and therefore live on LedgerRepository.
type BillRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Bill, int64, error)
}

// AlertRepository defines the persistence port for low-stock alerts.
type AlertRepository interface {
	Save(ctx context.Context, alert *domain.LowStockAlert) error
	Update(ctx context.Context, alert *domain.LowStockAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.LowStockAlert, error)
	// FindUnresolvedByItem returns the item's active or acknowledged alert,
	// or nil when the item has none. At most one can exist.
	FindUnresolvedByItem(ctx context.Context, itemID uuid.UUID) (*domain.LowStockAlert, error)
	List(ctx context.Context, status domain.AlertStatus, limit, offset int) ([]*domain.LowStockAlert, int64, error)
	// DeleteResolvedBefore purges alerts resolved before the cutoff and
	// returns the number of rows removed.
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListParams holds parameters for listing inventory.
type ListParams struct {
	Search    string
	Category  string
	Status    string
	BelowMin  bool
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Offset returns the row offset implied by page and page size.
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// TxListParams holds parameters for listing transactions.
type TxListParams struct {
	ItemID   uuid.UUID
	Type     domain.TransactionType
	Status   domain.TransactionStatus
	Page     int
	PageSize int
}

// Offset returns the row offset implied by page and page size.
func (p TxListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
