// internal/core/services/alerts.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// AlertService derives low-stock alerts from committed quantities and
// manages their operator-facing lifecycle. Derivation is idempotent: it
// compares the target state against what exists and only writes the
// difference, so re-evaluating an unchanged item is a no-op.
type AlertService struct {
	alerts    ports.AlertRepository
	inventory ports.InventoryRepository
	bus       ports.EventBus
	logger    *slog.Logger
}

var _ ports.AlertService = (*AlertService)(nil)

type evalOutcome int

const (
	evalNoop evalOutcome = iota
	evalCreated
	evalUpdated
	evalResolved
)

// NewAlertService creates a new alert service
func NewAlertService(
	alerts ports.AlertRepository,
	inventory ports.InventoryRepository,
	bus ports.EventBus,
	logger *slog.Logger,
) *AlertService {
	return &AlertService{
		alerts:    alerts,
		inventory: inventory,
		bus:       bus,
		logger:    logger.With(slog.String("service", "alerts")),
	}
}

// Evaluate re-derives the alert state for one item from its committed
// quantity.
func (s *AlertService) Evaluate(ctx context.Context, item *domain.InventoryItem) error {
	_, err := s.evaluate(ctx, item)
	return err
}

func (s *AlertService) evaluate(ctx context.Context, item *domain.InventoryItem) (evalOutcome, error) {
	level := domain.AlertLevelFor(item.Quantity, item.MinQuantity)

	existing, err := s.alerts.FindUnresolvedByItem(ctx, item.ID)
	if err != nil {
		return evalNoop, fmt.Errorf("find unresolved alert: %w", err)
	}

	if level == domain.AlertNone {
		if existing == nil {
			return evalNoop, nil
		}
		// Restocking above the minimum resolves the alert whether it was
		// active or already acknowledged.
		now := time.Now()
		existing.Status = domain.AlertResolved
		existing.ResolvedAt = &now
		existing.CurrentQuantity = item.Quantity
		if err := s.alerts.Update(ctx, existing); err != nil {
			return evalNoop, fmt.Errorf("resolve alert: %w", err)
		}
		s.bus.Publish(domain.NewAlertResolved(existing))

		s.logger.InfoContext(ctx, "alert resolved by restock",
			slog.String("alert_id", existing.ID.String()),
			slog.String("item_id", item.ID.String()),
			slog.Int("quantity", item.Quantity))
		return evalResolved, nil
	}

	if existing == nil {
		alert := &domain.LowStockAlert{
			ItemID:          item.ID,
			CurrentQuantity: item.Quantity,
			MinQuantity:     item.MinQuantity,
			Level:           level,
			Status:          domain.AlertActive,
		}
		alert.PrepareForStorage()
		if err := s.alerts.Save(ctx, alert); err != nil {
			return evalNoop, fmt.Errorf("create alert: %w", err)
		}
		s.bus.Publish(domain.NewAlertCreated(alert))

		s.logger.InfoContext(ctx, "alert created",
			slog.String("alert_id", alert.ID.String()),
			slog.String("item_id", item.ID.String()),
			slog.String("level", string(level)),
			slog.Int("quantity", item.Quantity))
		return evalCreated, nil
	}

	if existing.Level == level &&
		existing.CurrentQuantity == item.Quantity &&
		existing.MinQuantity == item.MinQuantity {
		return evalNoop, nil
	}

	// Level or quantity moved but the item is still at or below minimum:
	// update in place, preserving an acknowledgement.
	existing.Level = level
	existing.CurrentQuantity = item.Quantity
	existing.MinQuantity = item.MinQuantity
	if err := s.alerts.Update(ctx, existing); err != nil {
		return evalNoop, fmt.Errorf("update alert: %w", err)
	}
	s.bus.Publish(domain.NewAlertUpdated(existing))

	return evalUpdated, nil
}

// Get retrieves an alert by id
func (s *AlertService) Get(ctx context.Context, id uuid.UUID) (*domain.LowStockAlert, error) {
	return s.alerts.FindByID(ctx, id)
}

// List retrieves alerts, optionally filtered by status
func (s *AlertService) List(ctx context.Context, status domain.AlertStatus, limit, offset int) ([]*domain.LowStockAlert, int64, error) {
	return s.alerts.List(ctx, status, limit, offset)
}

// Acknowledge marks an active alert as seen by an operator
func (s *AlertService) Acknowledge(ctx context.Context, id uuid.UUID, by string) (*domain.LowStockAlert, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only an active alert can be acknowledged; anything else reads as
	// "no acknowledgeable alert with this id".
	if alert.Status != domain.AlertActive {
		return nil, fmt.Errorf("alert %s is %s: %w", id, alert.Status, domain.ErrNotFound)
	}

	now := time.Now()
	alert.Status = domain.AlertAcknowledged
	alert.AcknowledgedBy = by
	alert.AcknowledgedAt = &now
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}
	s.bus.Publish(domain.NewAlertUpdated(alert))

	s.logger.InfoContext(ctx, "alert acknowledged",
		slog.String("alert_id", id.String()),
		slog.String("by", by))

	return alert, nil
}

// Resolve marks an alert resolved. Resolving twice is a no-op.
func (s *AlertService) Resolve(ctx context.Context, id uuid.UUID) (*domain.LowStockAlert, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Resolved() {
		return alert, nil
	}

	now := time.Now()
	alert.Status = domain.AlertResolved
	alert.ResolvedAt = &now
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	s.bus.Publish(domain.NewAlertResolved(alert))

	return alert, nil
}

// BulkAcknowledge acknowledges every listed alert that is still active and
// returns the ids actually transitioned. Missing, resolved and already
// acknowledged ids are skipped, so retrying the same batch is harmless.
func (s *AlertService) BulkAcknowledge(ctx context.Context, ids []uuid.UUID, by string) ([]uuid.UUID, error) {
	acknowledged := make([]uuid.UUID, 0, len(ids))
	now := time.Now()

	for _, id := range ids {
		alert, err := s.alerts.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if alert.Status != domain.AlertActive {
			continue
		}

		alert.Status = domain.AlertAcknowledged
		alert.AcknowledgedBy = by
		alert.AcknowledgedAt = &now
		if err := s.alerts.Update(ctx, alert); err != nil {
			return nil, fmt.Errorf("acknowledge alert %s: %w", id, err)
		}
		acknowledged = append(acknowledged, id)
	}

	if len(acknowledged) > 0 {
		s.bus.Publish(domain.NewAlertsAcknowledged(acknowledged))
	}

	s.logger.InfoContext(ctx, "alerts bulk acknowledged",
		slog.Int("requested", len(ids)),
		slog.Int("acknowledged", len(acknowledged)),
		slog.String("by", by))

	return acknowledged, nil
}

// AutoCheck sweeps every item at or below its minimum and every unresolved
// alert, reconciling both directions: missing alerts get created, stale ones
// get updated or resolved.
func (s *AlertService) AutoCheck(ctx context.Context) (created, updated int, err error) {
	low, err := s.inventory.ListBelowMinimum(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list low stock items: %w", err)
	}

	evaluated := make(map[uuid.UUID]struct{}, len(low))
	for _, item := range low {
		evaluated[item.ID] = struct{}{}
		outcome, err := s.evaluate(ctx, item)
		if err != nil {
			s.logger.WarnContext(ctx, "auto-check evaluation failed",
				slog.String("item_id", item.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		switch outcome {
		case evalCreated:
			created++
		case evalUpdated, evalResolved:
			updated++
		}
	}

	// Unresolved alerts whose items are no longer below minimum will not
	// appear in the low-stock sweep; reconcile them separately.
	for _, status := range []domain.AlertStatus{domain.AlertActive, domain.AlertAcknowledged} {
		alerts, _, err := s.alerts.List(ctx, status, 1000, 0)
		if err != nil {
			return created, updated, fmt.Errorf("list %s alerts: %w", status, err)
		}
		for _, alert := range alerts {
			if _, done := evaluated[alert.ItemID]; done {
				continue
			}
			evaluated[alert.ItemID] = struct{}{}

			item, err := s.inventory.FindByID(ctx, alert.ItemID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Item was deleted out from under its alert.
					if _, rerr := s.Resolve(ctx, alert.ID); rerr != nil {
						s.logger.WarnContext(ctx, "failed to resolve orphaned alert",
							slog.String("alert_id", alert.ID.String()),
							slog.String("error", rerr.Error()))
					} else {
						updated++
					}
					continue
				}
				return created, updated, err
			}

			outcome, err := s.evaluate(ctx, item)
			if err != nil {
				s.logger.WarnContext(ctx, "auto-check evaluation failed",
					slog.String("item_id", item.ID.String()),
					slog.String("error", err.Error()))
				continue
			}
			if outcome == evalUpdated || outcome == evalResolved {
				updated++
			}
		}
	}

	s.bus.Publish(domain.NewAlertsAutoChecked(created, updated))

	s.logger.InfoContext(ctx, "alert auto-check completed",
		slog.Int("created", created),
		slog.Int("updated", updated))

	return created, updated, nil
}

// PurgeResolved removes alerts resolved before the retention cutoff
func (s *AlertService) PurgeResolved(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.alerts.DeleteResolvedBefore(ctx, cutoff)
}
