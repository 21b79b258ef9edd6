// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	redis_a "github.com/jaiswal09/medstock-be/internal/adapters/redis_adapter"
	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// InventoryService manages the item catalog. Reads go through the cache;
// every write publishes a change event, and cache invalidation happens in
// the synchronization layer that consumes those events.
type InventoryService struct {
	inventory ports.InventoryRepository
	alerts    ports.AlertService
	cache     ports.CacheRepository
	bus       ports.EventBus
	cacheTTL  time.Duration
	logger    *slog.Logger
}

var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service
func NewInventoryService(
	inventory ports.InventoryRepository,
	alerts ports.AlertService,
	cache ports.CacheRepository,
	bus ports.EventBus,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		inventory: inventory,
		alerts:    alerts,
		cache:     cache,
		bus:       bus,
		cacheTTL:  cacheTTL,
		logger:    logger.With(slog.String("service", "inventory")),
	}
}

// Create validates and persists a new inventory item
func (s *InventoryService) Create(ctx context.Context, item *domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item.PrepareForStorage()

	if err := s.inventory.Save(ctx, item); err != nil {
		return fmt.Errorf("save item: %w", err)
	}

	// A new item may already start at or below its minimum.
	if err := s.alerts.Evaluate(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "alert evaluation failed",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
	}
	s.bus.Publish(domain.NewInventoryCreated(item))

	s.logger.InfoContext(ctx, "inventory item created",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	return nil
}

// Update validates and persists catalog changes to an item. The repository
// refuses quantity writes, so the returned item carries the ledger-owned
// quantity regardless of what the caller sent.
func (s *InventoryService) Update(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	if item.ID == uuid.Nil {
		return nil, domain.NewValidationError("id", "is required")
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.inventory.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	// A changed minimum can move the item across an alert threshold even
	// though the quantity did not move.
	if err := s.alerts.Evaluate(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "alert evaluation failed",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
	}
	s.bus.Publish(domain.NewInventoryUpdated(item))

	return item, nil
}

// Get retrieves an item, reading through the cache
func (s *InventoryService) Get(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	key := redis_a.BuildKey(redis_a.PrefixInventory, "item", id.String())

	var item domain.InventoryItem
	err := s.cache.GetOrSet(ctx, key, &item, func() (interface{}, error) {
		fetched, err := s.inventory.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return fetched, nil
	}, s.cacheTTL)
	if err != nil {
		// Cache failures other than the wrapped fetch error should not
		// break reads; fall through to the repository.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return s.inventory.FindByID(ctx, id)
	}

	return &item, nil
}

// List retrieves items with filtering and pagination. Only unfiltered first
// pages are worth caching; filtered queries go straight to the repository.
func (s *InventoryService) List(ctx context.Context, params ports.ListParams) ([]*domain.InventoryItem, int64, error) {
	return s.inventory.FindAll(ctx, params)
}

// Delete soft-deletes an item and resolves its unresolved alert, if any
func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.inventory.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	// The item is gone; its alert has nothing left to warn about.
	gone := &domain.InventoryItem{ID: id, Quantity: 1, MinQuantity: 0}
	if err := s.alerts.Evaluate(ctx, gone); err != nil {
		s.logger.WarnContext(ctx, "alert evaluation failed",
			slog.String("item_id", id.String()),
			slog.String("error", err.Error()))
	}
	s.bus.Publish(domain.NewInventoryDeleted(id))

	s.logger.InfoContext(ctx, "inventory item deleted",
		slog.String("item_id", id.String()))

	return nil
}
