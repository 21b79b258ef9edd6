// internal/adapters/memory/ledger.go
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

// ledgerRepo implements ports.LedgerRepository. The store mutex is held for
// the whole of every method, so each operation commits or fails as a unit
// even under concurrent callers.
type ledgerRepo struct {
	s *Store
}

func (r *ledgerRepo) ApplyTransaction(ctx context.Context, t *domain.Transaction) (*domain.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[t.ItemID]
	if !ok || item.DeletedAt != nil {
		return nil, fmt.Errorf("item %s: %w", t.ItemID, domain.ErrNotFound)
	}

	delta := t.Delta()
	if item.Quantity+delta < 0 {
		return nil, fmt.Errorf("item %s: %w", t.ItemID, domain.ErrInsufficientStock)
	}

	item.Quantity += delta
	item.UpdatedAt = time.Now()
	if effect := t.ItemStatusEffect(); effect != "" {
		item.Status = effect
	}

	t.PrepareForStorage()
	r.s.txs[t.ID] = cloneTransaction(t)

	return cloneItem(item), nil
}

func (r *ledgerRepo) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int, reason string) (*domain.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[itemID]
	if !ok || item.DeletedAt != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}

	r.s.overrides = append(r.s.overrides, stockOverride{
		ItemID:      itemID,
		OldQuantity: item.Quantity,
		NewQuantity: quantity,
		Reason:      reason,
	})
	item.Quantity = quantity
	item.UpdatedAt = time.Now()

	return cloneItem(item), nil
}

func (r *ledgerRepo) CreateBill(ctx context.Context, bill *domain.Bill, lines []domain.BillLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Validate every line before touching any quantity.
	for _, line := range lines {
		item, ok := r.s.items[line.ItemID]
		if !ok || item.DeletedAt != nil {
			return fmt.Errorf("item %s: %w", line.ItemID, domain.ErrNotFound)
		}
		if item.Quantity < line.Quantity {
			return fmt.Errorf("item %s: %w", line.ItemID, domain.ErrInsufficientStock)
		}
	}

	items := make([]domain.BillItem, 0, len(lines))
	now := time.Now()
	for _, line := range lines {
		item := r.s.items[line.ItemID]
		item.Quantity -= line.Quantity
		item.UpdatedAt = now

		price := decimal.Zero
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		items = append(items, domain.BillItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	bill.Items = items
	bill.Recalculate()
	bill.PrepareForStorage()
	r.s.bills[bill.ID] = cloneBill(bill)

	return nil
}

func (r *ledgerRepo) UpdateBill(ctx context.Context, billID uuid.UUID, lines []domain.BillLine) (*domain.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	bill, ok := r.s.bills[billID]
	if !ok {
		return nil, fmt.Errorf("bill %s: %w", billID, domain.ErrNotFound)
	}

	diff := domain.DiffLines(bill.Items, lines)

	// Validate net increases before applying anything.
	for itemID, d := range diff {
		item, ok := r.s.items[itemID]
		if !ok || item.DeletedAt != nil {
			return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
		}
		if d > 0 && item.Quantity < d {
			return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrInsufficientStock)
		}
	}

	now := time.Now()
	for itemID, d := range diff {
		item := r.s.items[itemID]
		item.Quantity -= d
		item.UpdatedAt = now
	}

	oldPrices := make(map[uuid.UUID]decimal.Decimal, len(bill.Items))
	for _, li := range bill.Items {
		oldPrices[li.ItemID] = li.UnitPrice
	}

	items := make([]domain.BillItem, 0, len(lines))
	for _, line := range lines {
		price, ok := oldPrices[line.ItemID]
		if !ok {
			if item := r.s.items[line.ItemID]; item.UnitPrice != nil {
				price = *item.UnitPrice
			}
		}
		items = append(items, domain.BillItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	bill.Items = items
	bill.Recalculate()
	bill.PrepareForStorage()

	return cloneBill(bill), nil
}

func (r *ledgerRepo) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	bill, ok := r.s.bills[billID]
	if !ok {
		return fmt.Errorf("bill %s: %w", billID, domain.ErrNotFound)
	}

	now := time.Now()
	for _, li := range bill.Items {
		if item, ok := r.s.items[li.ItemID]; ok {
			item.Quantity += li.Quantity
			item.UpdatedAt = now
		}
	}
	delete(r.s.bills, billID)

	return nil
}
