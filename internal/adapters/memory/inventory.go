// internal/adapters/memory/inventory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

type inventoryRepo struct {
	s *Store
}

func (r *inventoryRepo) Save(ctx context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.items[item.ID]; exists {
		return fmt.Errorf("item %s: %w", item.ID, domain.ErrConflict)
	}
	r.s.items[item.ID] = cloneItem(item)
	return nil
}

func (r *inventoryRepo) Update(ctx context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.items[item.ID]
	if !ok || cur.DeletedAt != nil {
		return fmt.Errorf("item %s: %w", item.ID, domain.ErrNotFound)
	}

	// Quantity stays under ledger control.
	next := cloneItem(item)
	next.Quantity = cur.Quantity
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now()
	r.s.items[item.ID] = next
	item.Quantity = cur.Quantity
	item.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *inventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[id]
	if !ok || item.DeletedAt != nil {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return cloneItem(item), nil
}

func (r *inventoryRepo) FindAll(ctx context.Context, params ports.ListParams) ([]*domain.InventoryItem, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.InventoryItem
	for _, item := range r.s.items {
		if item.DeletedAt != nil {
			continue
		}
		if params.Category != "" && item.Category != params.Category {
			continue
		}
		if params.Status != "" && string(item.Status) != params.Status {
			continue
		}
		if params.BelowMin && item.Quantity > item.MinQuantity {
			continue
		}
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			if !strings.Contains(strings.ToLower(item.Name), needle) &&
				!strings.Contains(strings.ToLower(item.Description), needle) &&
				!strings.Contains(strings.ToLower(item.SerialNo), needle) {
				continue
			}
		}
		matched = append(matched, cloneItem(item))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := params.Offset()
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *inventoryRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[id]
	if !ok || item.DeletedAt != nil {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	now := time.Now()
	item.DeletedAt = &now
	item.UpdatedAt = now
	return nil
}

func (r *inventoryRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[id]
	return ok && item.DeletedAt == nil, nil
}

func (r *inventoryRepo) ListBelowMinimum(ctx context.Context) ([]*domain.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.InventoryItem
	for _, item := range r.s.items {
		if item.DeletedAt == nil && item.Quantity <= item.MinQuantity {
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Quantity < out[j].Quantity
	})
	return out, nil
}
