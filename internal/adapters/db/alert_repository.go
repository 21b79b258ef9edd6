// internal/adapters/db/alert_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

const alertColumns = `
	id, item_id, current_quantity, min_quantity, level, status,
	acknowledged_by, acknowledged_at, resolved_at, created_at, updated_at`

// alertRepository implements ports.AlertRepository. A partial unique index
// on (item_id) WHERE status <> 'resolved' enforces the one-unresolved-alert
// invariant at the storage layer.
type alertRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *Database, logger *slog.Logger) ports.AlertRepository {
	return &alertRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "alert")),
	}
}

// Save creates a new alert
func (r *alertRepository) Save(ctx context.Context, alert *domain.LowStockAlert) error {
	query := `
		INSERT INTO low_stock_alerts (
			id, item_id, current_quantity, min_quantity, level, status,
			acknowledged_by, acknowledged_at, resolved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		alert.ID, alert.ItemID, alert.CurrentQuantity, alert.MinQuantity,
		alert.Level, alert.Status, alert.AcknowledgedBy, alert.AcknowledgedAt,
		alert.ResolvedAt, alert.CreatedAt, alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	r.logger.DebugContext(ctx, "alert saved",
		slog.String("alert_id", alert.ID.String()),
		slog.String("item_id", alert.ItemID.String()),
		slog.String("level", string(alert.Level)))

	return nil
}

// Update updates an existing alert
func (r *alertRepository) Update(ctx context.Context, alert *domain.LowStockAlert) error {
	query := `
		UPDATE low_stock_alerts SET
			current_quantity = $2, min_quantity = $3, level = $4, status = $5,
			acknowledged_by = $6, acknowledged_at = $7, resolved_at = $8, updated_at = $9
		WHERE id = $1`

	alert.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		alert.ID, alert.CurrentQuantity, alert.MinQuantity, alert.Level,
		alert.Status, alert.AcknowledgedBy, alert.AcknowledgedAt,
		alert.ResolvedAt, alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s: %w", alert.ID, domain.ErrNotFound)
	}

	return nil
}

// FindByID retrieves an alert by ID
func (r *alertRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.LowStockAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM low_stock_alerts WHERE id = $1`

	alert, err := scanAlertRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find alert: %w", err)
	}

	return alert, nil
}

// FindUnresolvedByItem returns the item's single unresolved alert, or nil
func (r *alertRepository) FindUnresolvedByItem(ctx context.Context, itemID uuid.UUID) (*domain.LowStockAlert, error) {
	query := `SELECT ` + alertColumns + `
		FROM low_stock_alerts
		WHERE item_id = $1 AND status <> $2`

	alert, err := scanAlertRow(r.db.QueryRow(ctx, query, itemID, domain.AlertResolved))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find unresolved alert: %w", err)
	}

	return alert, nil
}

// List retrieves alerts, optionally filtered by status, newest first
func (r *alertRepository) List(ctx context.Context, status domain.AlertStatus, limit, offset int) ([]*domain.LowStockAlert, int64, error) {
	countQuery := `SELECT COUNT(*) FROM low_stock_alerts`
	listQuery := `SELECT ` + alertColumns + ` FROM low_stock_alerts`
	args := []interface{}{}

	if status != "" {
		countQuery += ` WHERE status = $1`
		listQuery += ` WHERE status = $1`
		args = append(args, status)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	listQuery += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.LowStockAlert
	for rows.Next() {
		alert, err := scanAlertRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return alerts, totalCount, nil
}

// DeleteResolvedBefore purges resolved alerts older than the cutoff
func (r *alertRepository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM low_stock_alerts WHERE status = $1 AND resolved_at < $2`

	tag, err := r.db.Exec(ctx, query, domain.AlertResolved, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge resolved alerts: %w", err)
	}

	if n := tag.RowsAffected(); n > 0 {
		r.logger.InfoContext(ctx, "resolved alerts purged",
			slog.Int64("count", n),
			slog.Time("cutoff", cutoff))
		return n, nil
	}
	return 0, nil
}

// scanAlertRow scans one alert row in alertColumns order.
func scanAlertRow(row pgx.Row) (*domain.LowStockAlert, error) {
	alert := &domain.LowStockAlert{}
	var acknowledgedBy sql.NullString
	var acknowledgedAt, resolvedAt sql.NullTime

	err := row.Scan(
		&alert.ID, &alert.ItemID, &alert.CurrentQuantity, &alert.MinQuantity,
		&alert.Level, &alert.Status, &acknowledgedBy, &acknowledgedAt,
		&resolvedAt, &alert.CreatedAt, &alert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.AcknowledgedBy = acknowledgedBy.String
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}

	return alert, nil
}
