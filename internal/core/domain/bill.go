// internal/core/domain/bill.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus tracks the payment state of a bill.
type BillStatus string

// Bill status constants
const (
	BillDraft   BillStatus = "draft"
	BillIssued  BillStatus = "issued"
	BillPaid    BillStatus = "paid"
	BillPartial BillStatus = "partially_paid"
	BillVoid    BillStatus = "void"
)

// Bill commits a set of line items against inventory at creation time.
// Editing or deleting a bill must reverse exactly the stock delta it
// previously applied before applying any new delta.
type Bill struct {
	ID           uuid.UUID       `json:"id"`
	BillNumber   string          `json:"bill_number"`
	CustomerName string          `json:"customer_name,omitempty"`
	Status       BillStatus      `json:"status"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Notes        string          `json:"notes,omitempty"`
	Items        []BillItem      `json:"items,omitempty"`
	Payments     []Payment       `json:"payments,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BillItem is one committed line of a bill. UnitPrice snapshots the item's
// price at commit time so later price edits do not rewrite history.
type BillItem struct {
	ID        uuid.UUID       `json:"id"`
	BillID    uuid.UUID       `json:"bill_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Payment records money received against a bill. Payments are removed with
// the bill when it is deleted.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	BillID    uuid.UUID       `json:"bill_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// BillLine is the caller-supplied input for one line of a bill.
type BillLine struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// ValidateLines checks a set of bill lines for structural validity and
// rejects duplicate item references, which would make the stock diff
// ambiguous.
func ValidateLines(lines []BillLine) error {
	if len(lines) == 0 {
		return NewValidationError("items", "at least one line is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if l.ItemID == uuid.Nil {
			return NewValidationError("items.item_id", "is required")
		}
		if l.Quantity <= 0 {
			return NewValidationError("items.quantity", "must be positive")
		}
		if _, dup := seen[l.ItemID]; dup {
			return NewValidationError("items", "duplicate item in bill lines")
		}
		seen[l.ItemID] = struct{}{}
	}
	return nil
}

// DiffLines computes per-item net quantity change between a bill's committed
// lines and a replacement set. Positive values mean additional consumption
// that must be re-validated against current stock; negative values are
// restorations.
func DiffLines(old []BillItem, new []BillLine) map[uuid.UUID]int {
	diff := make(map[uuid.UUID]int, len(old)+len(new))
	for _, li := range old {
		diff[li.ItemID] -= li.Quantity
	}
	for _, l := range new {
		diff[l.ItemID] += l.Quantity
	}
	for id, d := range diff {
		if d == 0 {
			delete(diff, id)
		}
	}
	return diff
}

// Recalculate recomputes subtotal and total from line items. Tax is kept as
// already set on the bill.
func (b *Bill) Recalculate() {
	subtotal := decimal.Zero
	for _, li := range b.Items {
		subtotal = subtotal.Add(li.LineTotal)
	}
	b.Subtotal = subtotal
	b.Total = subtotal.Add(b.Tax)
}

// PrepareForStorage assigns identity and timestamps before persistence.
func (b *Bill) PrepareForStorage() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BillIssued
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	for i := range b.Items {
		if b.Items[i].ID == uuid.Nil {
			b.Items[i].ID = uuid.New()
		}
		b.Items[i].BillID = b.ID
	}
}
