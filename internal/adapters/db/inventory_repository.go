// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

const inventoryColumns = `
	id, name, description, category, location, quantity, min_quantity,
	max_quantity, unit_price, status, serial_no, notes,
	created_at, updated_at`

// inventoryRepository implements ports.InventoryRepository
type inventoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *Database, logger *slog.Logger) ports.InventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

// Save creates a new inventory item
func (r *inventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory (
			id, name, description, category, location, quantity, min_quantity,
			max_quantity, unit_price, status, serial_no, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		item.ID, item.Name, item.Description, item.Category, item.Location,
		item.Quantity, item.MinQuantity, item.MaxQuantity, item.UnitPrice,
		item.Status, item.SerialNo, item.Notes,
		item.CreatedAt, item.UpdatedAt,
	).Scan(&item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save inventory item: %w", err)
	}

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	return nil
}

// Update updates an existing inventory item's catalog fields. Quantity is
// deliberately absent from the SET list: it belongs to the ledger.
func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory SET
			name = $2, description = $3, category = $4, location = $5,
			min_quantity = $6, max_quantity = $7, unit_price = $8,
			status = $9, serial_no = $10, notes = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING quantity, updated_at`

	item.UpdatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		item.ID, item.Name, item.Description, item.Category, item.Location,
		item.MinQuantity, item.MaxQuantity, item.UnitPrice,
		item.Status, item.SerialNo, item.Notes, item.UpdatedAt,
	).Scan(&item.Quantity, &item.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("inventory item %s: %w", item.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to update inventory item: %w", err)
	}

	r.logger.DebugContext(ctx, "inventory item updated",
		slog.String("item_id", item.ID.String()))

	return nil
}

// FindByID retrieves an inventory item by ID
func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE id = $1 AND deleted_at IS NULL`

	item, err := scanInventoryRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}

	return item, nil
}

// FindAll retrieves inventory items with filtering and pagination
func (r *inventoryRepository) FindAll(ctx context.Context, params ports.ListParams) ([]*domain.InventoryItem, int64, error) {
	filters := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		qb = qb.Where("deleted_at IS NULL")
		if params.Search != "" {
			pattern := "%" + params.Search + "%"
			qb = qb.Where(squirrel.Or{
				squirrel.ILike{"name": pattern},
				squirrel.ILike{"description": pattern},
				squirrel.ILike{"serial_no": pattern},
			})
		}
		if params.Category != "" {
			qb = qb.Where(squirrel.Eq{"category": params.Category})
		}
		if params.Status != "" {
			qb = qb.Where(squirrel.Eq{"status": params.Status})
		}
		if params.BelowMin {
			qb = qb.Where("quantity <= min_quantity")
		}
		return qb
	}

	// Count total items before pagination
	countSQL, countArgs, err := filters(
		squirrel.Select("COUNT(*)").From("inventory").PlaceholderFormat(squirrel.Dollar),
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory items: %w", err)
	}

	qb := filters(
		squirrel.Select(
			"id", "name", "description", "category", "location",
			"quantity", "min_quantity", "max_quantity", "unit_price",
			"status", "serial_no", "notes", "created_at", "updated_at",
		).From("inventory").PlaceholderFormat(squirrel.Dollar),
	)

	// Apply sorting
	orderBy := "created_at DESC"
	if params.SortBy != "" {
		direction := "ASC"
		if strings.EqualFold(params.SortOrder, "desc") {
			direction = "DESC"
		}
		switch params.SortBy {
		case "name", "category", "quantity", "min_quantity", "updated_at", "created_at":
			orderBy = params.SortBy + " " + direction
		}
	}
	qb = qb.OrderBy(orderBy)

	// Apply pagination
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64(params.Offset()))

	querySQL, queryArgs, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, querySQL, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	var items []*domain.InventoryItem
	for rows.Next() {
		item, err := scanInventoryRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, totalCount, nil
}

// SoftDelete marks an item as deleted
func (r *inventoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE inventory SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	now := time.Now()
	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to soft delete inventory item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "inventory item soft deleted",
		slog.String("item_id", id.String()))

	return nil
}

// Exists checks if an inventory item exists
func (r *inventoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// ListBelowMinimum returns items at or below their minimum threshold
func (r *inventoryRepository) ListBelowMinimum(ctx context.Context) ([]*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE quantity <= min_quantity AND deleted_at IS NULL
		ORDER BY quantity ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock items: %w", err)
	}
	defer rows.Close()

	var items []*domain.InventoryItem
	for rows.Next() {
		item, err := scanInventoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// scanInventoryRow scans one inventory row in inventoryColumns order.
func scanInventoryRow(row pgx.Row) (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{}
	var description, category, location, serialNo, notes sql.NullString
	var maxQuantity sql.NullInt64
	var unitPrice decimal.NullDecimal

	err := row.Scan(
		&item.ID, &item.Name, &description, &category, &location,
		&item.Quantity, &item.MinQuantity, &maxQuantity, &unitPrice,
		&item.Status, &serialNo, &notes,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.Category = category.String
	item.Location = location.String
	item.SerialNo = serialNo.String
	item.Notes = notes.String
	if maxQuantity.Valid {
		v := int(maxQuantity.Int64)
		item.MaxQuantity = &v
	}
	if unitPrice.Valid {
		item.UnitPrice = &unitPrice.Decimal
	}

	return item, nil
}
