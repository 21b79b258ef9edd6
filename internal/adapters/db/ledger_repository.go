// internal/adapters/db/ledger_repository.go
package db

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// ledgerRepository implements ports.LedgerRepository. Every public method
// runs inside a single database transaction; item rows are locked FOR UPDATE
// in a canonical order and decrements are guarded by a quantity predicate so
// concurrent writers can never drive stock negative.
type ledgerRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *Database, logger *slog.Logger) ports.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "ledger")),
	}
}

// ApplyTransaction persists the transaction and its stock delta atomically
func (r *ledgerRepository) ApplyTransaction(ctx context.Context, t *domain.Transaction) (*domain.InventoryItem, error) {
	var item *domain.InventoryItem

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := lockItemRow(ctx, tx, t.ItemID); err != nil {
			return err
		}

		delta := t.Delta()
		if delta < 0 {
			tag, err := tx.Exec(ctx, `
				UPDATE inventory SET quantity = quantity + $2, updated_at = $3
				WHERE id = $1 AND quantity + $2 >= 0`,
				t.ItemID, delta, time.Now())
			if err != nil {
				return fmt.Errorf("failed to apply stock delta: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("item %s: %w", t.ItemID, domain.ErrInsufficientStock)
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE inventory SET quantity = quantity + $2, updated_at = $3
				WHERE id = $1`,
				t.ItemID, delta, time.Now()); err != nil {
				return fmt.Errorf("failed to apply stock delta: %w", err)
			}
		}

		if effect := t.ItemStatusEffect(); effect != "" {
			if _, err := tx.Exec(ctx,
				`UPDATE inventory SET status = $2 WHERE id = $1`,
				t.ItemID, effect); err != nil {
				return fmt.Errorf("failed to update item status: %w", err)
			}
		}

		t.PrepareForStorage()
		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (
				id, item_id, type, quantity, status, user_name,
				due_date, returned_at, notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			t.ID, t.ItemID, t.Type, t.Quantity, t.Status, t.UserName,
			t.DueDate, t.ReturnedAt, t.Notes, t.CreatedAt, t.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		var err error
		item, err = fetchItemTx(ctx, tx, t.ItemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "transaction applied",
		slog.String("transaction_id", t.ID.String()),
		slog.String("item_id", t.ItemID.String()),
		slog.Int("delta", t.Delta()),
		slog.Int("quantity", item.Quantity))

	return item, nil
}

// SetQuantity overrides an item's quantity and records the reason
func (r *ledgerRepository) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int, reason string) (*domain.InventoryItem, error) {
	var item *domain.InventoryItem

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		old, err := lockItemRow(ctx, tx, itemID)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.Exec(ctx, `
			UPDATE inventory SET quantity = $2, updated_at = $3
			WHERE id = $1`,
			itemID, quantity, now); err != nil {
			return fmt.Errorf("failed to set quantity: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_overrides (id, item_id, old_quantity, new_quantity, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), itemID, old.quantity, quantity, reason, now,
		); err != nil {
			return fmt.Errorf("failed to record stock override: %w", err)
		}

		item, err = fetchItemTx(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "stock quantity overridden",
		slog.String("item_id", itemID.String()),
		slog.Int("quantity", quantity),
		slog.String("reason", reason))

	return item, nil
}

// CreateBill decrements stock for every line and persists the bill atomically
func (r *ledgerRepository) CreateBill(ctx context.Context, bill *domain.Bill, lines []domain.BillLine) error {
	sorted := sortedLines(lines)

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		items := make([]domain.BillItem, 0, len(sorted))

		for _, line := range sorted {
			row, err := lockItemRow(ctx, tx, line.ItemID)
			if err != nil {
				return err
			}

			tag, err := tx.Exec(ctx, `
				UPDATE inventory SET quantity = quantity - $2, updated_at = $3
				WHERE id = $1 AND quantity >= $2`,
				line.ItemID, line.Quantity, time.Now())
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("item %s: %w", line.ItemID, domain.ErrInsufficientStock)
			}

			price := decimal.Zero
			if row.unitPrice.Valid {
				price = row.unitPrice.Decimal
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

		if _, err := tx.Exec(ctx, `
			INSERT INTO bills (
				id, bill_number, customer_name, status, subtotal, tax, total,
				notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			bill.ID, bill.BillNumber, bill.CustomerName, bill.Status,
			bill.Subtotal, bill.Tax, bill.Total, bill.Notes,
			bill.CreatedAt, bill.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}

		return insertBillItems(ctx, tx, bill.Items)
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "bill created",
		slog.String("bill_id", bill.ID.String()),
		slog.Int("lines", len(bill.Items)))

	return nil
}

// UpdateBill reconciles a bill against a replacement line set atomically
func (r *ledgerRepository) UpdateBill(ctx context.Context, billID uuid.UUID, lines []domain.BillLine) (*domain.Bill, error) {
	var bill *domain.Bill

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var err error
		bill, err = lockBillRow(ctx, tx, billID)
		if err != nil {
			return err
		}

		oldItems, err := fetchBillItemsTx(ctx, tx, billID)
		if err != nil {
			return err
		}

		oldPrices := make(map[uuid.UUID]decimal.Decimal, len(oldItems))
		for _, li := range oldItems {
			oldPrices[li.ItemID] = li.UnitPrice
		}

		diff := domain.DiffLines(oldItems, lines)
		currentPrices := make(map[uuid.UUID]decimal.Decimal, len(diff))

		for _, itemID := range sortedIDs(diff) {
			row, err := lockItemRow(ctx, tx, itemID)
			if err != nil {
				return err
			}
			if row.unitPrice.Valid {
				currentPrices[itemID] = row.unitPrice.Decimal
			}

			d := diff[itemID]
			if d > 0 {
				tag, err := tx.Exec(ctx, `
					UPDATE inventory SET quantity = quantity - $2, updated_at = $3
					WHERE id = $1 AND quantity >= $2`,
					itemID, d, time.Now())
				if err != nil {
					return fmt.Errorf("failed to decrement stock: %w", err)
				}
				if tag.RowsAffected() == 0 {
					return fmt.Errorf("item %s: %w", itemID, domain.ErrInsufficientStock)
				}
			} else {
				if _, err := tx.Exec(ctx, `
					UPDATE inventory SET quantity = quantity + $2, updated_at = $3
					WHERE id = $1`,
					itemID, -d, time.Now()); err != nil {
					return fmt.Errorf("failed to restore stock: %w", err)
				}
			}
		}

		// Rebuild line items, preserving the price snapshot of lines the
		// bill already carried.
		items := make([]domain.BillItem, 0, len(lines))
		for _, line := range lines {
			price, ok := oldPrices[line.ItemID]
			if !ok {
				price = currentPrices[line.ItemID]
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

		if _, err := tx.Exec(ctx,
			`DELETE FROM bill_items WHERE bill_id = $1`, billID); err != nil {
			return fmt.Errorf("failed to clear bill items: %w", err)
		}
		if err := insertBillItems(ctx, tx, bill.Items); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE bills SET subtotal = $2, tax = $3, total = $4, updated_at = $5
			WHERE id = $1`,
			billID, bill.Subtotal, bill.Tax, bill.Total, bill.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to update bill: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "bill updated",
		slog.String("bill_id", billID.String()),
		slog.Int("lines", len(bill.Items)))

	return bill, nil
}

// DeleteBill restores the stock a bill consumed and removes it atomically
func (r *ledgerRepository) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := lockBillRow(ctx, tx, billID); err != nil {
			return err
		}

		items, err := fetchBillItemsTx(ctx, tx, billID)
		if err != nil {
			return err
		}

		restore := make(map[uuid.UUID]int, len(items))
		for _, li := range items {
			restore[li.ItemID] += li.Quantity
		}

		for _, itemID := range sortedIDs(restore) {
			if _, err := tx.Exec(ctx, `
				UPDATE inventory SET quantity = quantity + $2, updated_at = $3
				WHERE id = $1`,
				itemID, restore[itemID], time.Now()); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}

		for _, stmt := range []string{
			`DELETE FROM payments WHERE bill_id = $1`,
			`DELETE FROM bill_items WHERE bill_id = $1`,
			`DELETE FROM bills WHERE id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, billID); err != nil {
				return fmt.Errorf("failed to delete bill: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "bill deleted",
		slog.String("bill_id", billID.String()))

	return nil
}

// Locking and scanning helpers

type lockedItem struct {
	quantity  int
	unitPrice decimal.NullDecimal
}

// lockItemRow acquires a row lock on the item for the rest of the enclosing
// transaction.
func lockItemRow(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) (*lockedItem, error) {
	row := &lockedItem{}
	err := tx.QueryRow(ctx, `
		SELECT quantity, unit_price FROM inventory
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`,
		itemID).Scan(&row.quantity, &row.unitPrice)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock item row: %w", err)
	}
	return row, nil
}

func lockBillRow(ctx context.Context, tx pgx.Tx, billID uuid.UUID) (*domain.Bill, error) {
	bill := &domain.Bill{}
	err := tx.QueryRow(ctx, `
		SELECT id, bill_number, customer_name, status, subtotal, tax, total,
		       notes, created_at, updated_at
		FROM bills WHERE id = $1
		FOR UPDATE`,
		billID).Scan(
		&bill.ID, &bill.BillNumber, &bill.CustomerName, &bill.Status,
		&bill.Subtotal, &bill.Tax, &bill.Total,
		&bill.Notes, &bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("bill %s: %w", billID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock bill row: %w", err)
	}
	return bill, nil
}

func fetchItemTx(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) (*domain.InventoryItem, error) {
	item, err := scanInventoryRow(tx.QueryRow(ctx, `SELECT `+inventoryColumns+`
		FROM inventory WHERE id = $1`, itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to read item back: %w", err)
	}
	return item, nil
}

func fetchBillItemsTx(ctx context.Context, tx pgx.Tx, billID uuid.UUID) ([]domain.BillItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, bill_id, item_id, quantity, unit_price, line_total
		FROM bill_items WHERE bill_id = $1`,
		billID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill items: %w", err)
	}
	defer rows.Close()

	var items []domain.BillItem
	for rows.Next() {
		var li domain.BillItem
		if err := rows.Scan(&li.ID, &li.BillID, &li.ItemID,
			&li.Quantity, &li.UnitPrice, &li.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func insertBillItems(ctx context.Context, tx pgx.Tx, items []domain.BillItem) error {
	batch := &pgx.Batch{}
	for _, li := range items {
		batch.Queue(`
			INSERT INTO bill_items (id, bill_id, item_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			li.ID, li.BillID, li.ItemID, li.Quantity, li.UnitPrice, li.LineTotal)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save bill item: %w", err)
		}
	}
	return nil
}

// sortedLines returns the lines ordered by item id so that concurrent bill
// writers acquire row locks in the same order.
func sortedLines(lines []domain.BillLine) []domain.BillLine {
	out := make([]domain.BillLine, len(lines))
	copy(out, lines)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ItemID[:], out[j].ItemID[:]) < 0
	})
	return out
}

func sortedIDs(m map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}
