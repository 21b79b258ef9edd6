// internal/adapters/db/bill_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// billRepository implements ports.BillRepository. It is read-only: bill
// mutations cascade into inventory and live on the ledger repository.
type billRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *Database, logger *slog.Logger) ports.BillRepository {
	return &billRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "bill")),
	}
}

// FindByID retrieves a bill with its line items and payments
func (r *billRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	bill := &domain.Bill{}
	err := r.db.QueryRow(ctx, `
		SELECT id, bill_number, customer_name, status, subtotal, tax, total,
		       notes, created_at, updated_at
		FROM bills WHERE id = $1`,
		id).Scan(
		&bill.ID, &bill.BillNumber, &bill.CustomerName, &bill.Status,
		&bill.Subtotal, &bill.Tax, &bill.Total,
		&bill.Notes, &bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}

	if bill.Items, err = r.findItems(ctx, id); err != nil {
		return nil, err
	}
	if bill.Payments, err = r.findPayments(ctx, id); err != nil {
		return nil, err
	}

	return bill, nil
}

// List retrieves bills with pagination, newest first
func (r *billRepository) List(ctx context.Context, limit, offset int) ([]*domain.Bill, int64, error) {
	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bills`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, bill_number, customer_name, status, subtotal, tax, total,
		       notes, created_at, updated_at
		FROM bills
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []*domain.Bill
	for rows.Next() {
		bill := &domain.Bill{}
		if err := rows.Scan(
			&bill.ID, &bill.BillNumber, &bill.CustomerName, &bill.Status,
			&bill.Subtotal, &bill.Tax, &bill.Total,
			&bill.Notes, &bill.CreatedAt, &bill.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	for _, bill := range bills {
		if bill.Items, err = r.findItems(ctx, bill.ID); err != nil {
			return nil, 0, err
		}
	}

	return bills, totalCount, nil
}

func (r *billRepository) findItems(ctx context.Context, billID uuid.UUID) ([]domain.BillItem, error) {
	rows, err := r.db.Query(ctx, `
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

func (r *billRepository) findPayments(ctx context.Context, billID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, bill_id, amount, method, created_at
		FROM payments WHERE bill_id = $1
		ORDER BY created_at ASC`,
		billID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.BillID, &p.Amount, &p.Method, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
