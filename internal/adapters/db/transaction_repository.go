// internal/adapters/db/transaction_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// transactionRepository implements ports.TransactionRepository
type transactionRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *Database, logger *slog.Logger) ports.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "transaction")),
	}
}

// FindByID retrieves a transaction by ID
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT id, item_id, type, quantity, status, user_name,
		       due_date, returned_at, notes, created_at, updated_at
		FROM transactions WHERE id = $1`

	t, err := scanTransactionRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	return t, nil
}

// List retrieves transactions with filtering and pagination
func (r *transactionRepository) List(ctx context.Context, params ports.TxListParams) ([]*domain.Transaction, int64, error) {
	filters := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.ItemID != uuid.Nil {
			qb = qb.Where(squirrel.Eq{"item_id": params.ItemID})
		}
		if params.Type != "" {
			qb = qb.Where(squirrel.Eq{"type": params.Type})
		}
		if params.Status != "" {
			qb = qb.Where(squirrel.Eq{"status": params.Status})
		}
		return qb
	}

	countSQL, countArgs, err := filters(
		squirrel.Select("COUNT(*)").From("transactions").PlaceholderFormat(squirrel.Dollar),
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	querySQL, queryArgs, err := filters(
		squirrel.Select(
			"id", "item_id", "type", "quantity", "status", "user_name",
			"due_date", "returned_at", "notes", "created_at", "updated_at",
		).From("transactions").PlaceholderFormat(squirrel.Dollar),
	).OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, querySQL, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return txs, totalCount, nil
}

// UpdateStatus transitions a transaction's status
func (r *transactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, returnedAt *time.Time) (*domain.Transaction, error) {
	query := `
		UPDATE transactions SET status = $2, returned_at = COALESCE($3, returned_at), updated_at = $4
		WHERE id = $1
		RETURNING id, item_id, type, quantity, status, user_name,
		          due_date, returned_at, notes, created_at, updated_at`

	t, err := scanTransactionRow(r.db.QueryRow(ctx, query, id, status, returnedAt, time.Now()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	r.logger.DebugContext(ctx, "transaction status updated",
		slog.String("transaction_id", id.String()),
		slog.String("status", string(status)))

	return t, nil
}

// MarkOverdue flags active checkouts past their due date
func (r *transactionRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE transactions SET status = $1, updated_at = $2
		WHERE status = $3 AND due_date IS NOT NULL AND due_date < $2`

	tag, err := r.db.Exec(ctx, query, domain.TxOverdue, now, domain.TxActive)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue transactions: %w", err)
	}

	if n := tag.RowsAffected(); n > 0 {
		r.logger.InfoContext(ctx, "transactions marked overdue", slog.Int64("count", n))
		return n, nil
	}
	return 0, nil
}

// scanTransactionRow scans one transaction row in column order.
func scanTransactionRow(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var userName, notes sql.NullString
	var dueDate, returnedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.ItemID, &t.Type, &t.Quantity, &t.Status, &userName,
		&dueDate, &returnedAt, &notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.UserName = userName.String
	t.Notes = notes.String
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if returnedAt.Valid {
		t.ReturnedAt = &returnedAt.Time
	}

	return t, nil
}
