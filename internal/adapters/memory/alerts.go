// internal/adapters/memory/alerts.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

type alertRepo struct {
	s *Store
}

func (r *alertRepo) Save(ctx context.Context, alert *domain.LowStockAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Enforce at most one unresolved alert per item, like the partial
	// unique index in the postgres schema.
	for _, a := range r.s.alerts {
		if a.ItemID == alert.ItemID && a.Status != domain.AlertResolved {
			return fmt.Errorf("item %s already has an unresolved alert: %w",
				alert.ItemID, domain.ErrConflict)
		}
	}

	r.s.alerts[alert.ID] = cloneAlert(alert)
	return nil
}

func (r *alertRepo) Update(ctx context.Context, alert *domain.LowStockAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.alerts[alert.ID]; !ok {
		return fmt.Errorf("alert %s: %w", alert.ID, domain.ErrNotFound)
	}
	alert.UpdatedAt = time.Now()
	r.s.alerts[alert.ID] = cloneAlert(alert)
	return nil
}

func (r *alertRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.LowStockAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	return cloneAlert(a), nil
}

func (r *alertRepo) FindUnresolvedByItem(ctx context.Context, itemID uuid.UUID) (*domain.LowStockAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.alerts {
		if a.ItemID == itemID && a.Status != domain.AlertResolved {
			return cloneAlert(a), nil
		}
	}
	return nil, nil
}

func (r *alertRepo) List(ctx context.Context, status domain.AlertStatus, limit, offset int) ([]*domain.LowStockAlert, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.LowStockAlert
	for _, a := range r.s.alerts {
		if status != "" && a.Status != status {
			continue
		}
		matched = append(matched, cloneAlert(a))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *alertRepo) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, a := range r.s.alerts {
		if a.Status == domain.AlertResolved && a.ResolvedAt != nil && a.ResolvedAt.Before(cutoff) {
			delete(r.s.alerts, id)
			n++
		}
	}
	return n, nil
}
