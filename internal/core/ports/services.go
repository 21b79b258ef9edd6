// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

// InventoryService defines the business operations for inventory catalog
// management. Quantity-affecting operations live on LedgerService.
type InventoryService interface {
	Create(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	List(ctx context.Context, params ListParams) ([]*domain.InventoryItem, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LedgerService defines the atomic stock mutation operations. Every
// successful mutation re-derives the affected items' alerts and publishes a
// change event after commit.
type LedgerService interface {
	// ApplyTransaction validates and commits a stock movement against a
	// single item, transitioning the item's status where the movement type
	// requires it.
	ApplyTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, *domain.InventoryItem, error)

	// SetQuantity overrides an item's quantity to an explicit value.
	SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int, reason string) (*domain.InventoryItem, error)

	// CreateBill decrements stock for every requested line and persists the
	// bill; either all lines commit or none do.
	CreateBill(ctx context.Context, bill *domain.Bill, lines []domain.BillLine) (*domain.Bill, error)

	// UpdateBill replaces a bill's line set, reconciling stock by the
	// per-item difference between old and new lines.
	UpdateBill(ctx context.Context, billID uuid.UUID, lines []domain.BillLine) (*domain.Bill, error)

	// DeleteBill removes a bill and restores the stock its lines consumed.
	DeleteBill(ctx context.Context, billID uuid.UUID) error

	GetBill(ctx context.Context, billID uuid.UUID) (*domain.Bill, error)
	ListBills(ctx context.Context, limit, offset int) ([]*domain.Bill, int64, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, params TxListParams) ([]*domain.Transaction, int64, error)

	// CompleteTransaction transitions an active checkout to completed and
	// checks the stock back in.
	CompleteTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, *domain.InventoryItem, error)
}

// AlertService defines the alert lifecycle operations.
type AlertService interface {
	// Evaluate re-derives the alert state for one item from its committed
	// quantity. It is idempotent; evaluating an unchanged item is a no-op.
	Evaluate(ctx context.Context, item *domain.InventoryItem) error

	Get(ctx context.Context, id uuid.UUID) (*domain.LowStockAlert, error)
	List(ctx context.Context, status domain.AlertStatus, limit, offset int) ([]*domain.LowStockAlert, int64, error)

	// Acknowledge marks an active alert as seen by an operator. A missing
	// alert and a non-active one both fail with domain.ErrNotFound.
	Acknowledge(ctx context.Context, id uuid.UUID, by string) (*domain.LowStockAlert, error)

	// Resolve marks an alert resolved. Resolving twice is a no-op.
	Resolve(ctx context.Context, id uuid.UUID) (*domain.LowStockAlert, error)

	// BulkAcknowledge acknowledges every listed alert that is still active,
	// skipping ids that are missing, resolved or already acknowledged, and
	// returns the ids actually transitioned.
	BulkAcknowledge(ctx context.Context, ids []uuid.UUID, by string) ([]uuid.UUID, error)

	// AutoCheck sweeps all items at or below minimum and reconciles their
	// alerts, returning how many alerts were created and updated.
	AutoCheck(ctx context.Context) (created, updated int, err error)

	// PurgeResolved removes alerts resolved before the retention cutoff.
	PurgeResolved(ctx context.Context, olderThan time.Duration) (int64, error)
}
