// internal/core/domain/inventory.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus represents the lifecycle status of an inventory item.
type ItemStatus string

// Item status constants
const (
	ItemAvailable    ItemStatus = "available"
	ItemInUse        ItemStatus = "in_use"
	ItemMaintenance  ItemStatus = "maintenance"
	ItemLost         ItemStatus = "lost"
	ItemExpired      ItemStatus = "expired"
	ItemDiscontinued ItemStatus = "discontinued"
)

// InventoryItem is the authoritative record of physical stock for one item.
// Quantity is owned by the ledger: nothing outside the ledger service may
// assign it directly.
type InventoryItem struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Location    string           `json:"location,omitempty"`
	Quantity    int              `json:"quantity"`
	MinQuantity int              `json:"min_quantity"`
	MaxQuantity *int             `json:"max_quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Status      ItemStatus       `json:"status"`
	SerialNo    string           `json:"serial_no,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
}

// Validate performs domain validation on the inventory item.
func (i *InventoryItem) Validate() error {
	if i.Name == "" {
		return NewValidationError("name", "is required")
	}
	if i.Quantity < 0 {
		return NewValidationError("quantity", "cannot be negative")
	}
	if i.MinQuantity < 0 {
		return NewValidationError("min_quantity", "cannot be negative")
	}
	if i.MaxQuantity != nil && *i.MaxQuantity < i.MinQuantity {
		return NewValidationError("max_quantity", "must be >= min_quantity")
	}
	if i.UnitPrice != nil && i.UnitPrice.IsNegative() {
		return NewValidationError("unit_price", "cannot be negative")
	}
	if i.Status == "" {
		i.Status = ItemAvailable
	}
	return nil
}

// PrepareForStorage assigns identity and timestamps before persistence.
func (i *InventoryItem) PrepareForStorage() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}
