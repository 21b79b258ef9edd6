// internal/core/services/ledger.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
	"github.com/jaiswal09/medstock-be/internal/pkg/syncutil"
)

// LedgerService owns every stock mutation. It serializes writers per item
// through a keyed mutex, delegates the atomic commit to the ledger
// repository, then re-derives alerts and publishes a change event for each
// successful mutation.
type LedgerService struct {
	ledger    ports.LedgerRepository
	inventory ports.InventoryRepository
	bills     ports.BillRepository
	txs       ports.TransactionRepository
	alerts    ports.AlertService
	bus       ports.EventBus
	locks     *syncutil.KeyedMutex
	logger    *slog.Logger
}

var _ ports.LedgerService = (*LedgerService)(nil)

// NewLedgerService creates a new ledger service
func NewLedgerService(
	ledger ports.LedgerRepository,
	inventory ports.InventoryRepository,
	bills ports.BillRepository,
	txs ports.TransactionRepository,
	alerts ports.AlertService,
	bus ports.EventBus,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		ledger:    ledger,
		inventory: inventory,
		bills:     bills,
		txs:       txs,
		alerts:    alerts,
		bus:       bus,
		locks:     syncutil.NewKeyedMutex(),
		logger:    logger.With(slog.String("service", "ledger")),
	}
}

// ApplyTransaction validates and commits a stock movement
func (s *LedgerService) ApplyTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, *domain.InventoryItem, error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}

	s.locks.Lock(t.ItemID)
	defer s.locks.Unlock(t.ItemID)

	item, err := s.ledger.ApplyTransaction(ctx, t)
	if err != nil {
		return nil, nil, fmt.Errorf("apply transaction: %w", err)
	}

	s.evaluateAlert(ctx, item)
	s.bus.Publish(domain.NewTransactionCreated(t, item))

	s.logger.InfoContext(ctx, "transaction committed",
		slog.String("transaction_id", t.ID.String()),
		slog.String("item_id", t.ItemID.String()),
		slog.String("type", string(t.Type)),
		slog.Int("quantity", t.Quantity))

	return t, item, nil
}

// SetQuantity overrides an item's quantity to an explicit value
func (s *LedgerService) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int, reason string) (*domain.InventoryItem, error) {
	if itemID == uuid.Nil {
		return nil, domain.NewValidationError("item_id", "is required")
	}
	if quantity < 0 {
		return nil, domain.NewValidationError("quantity", "cannot be negative")
	}

	s.locks.Lock(itemID)
	defer s.locks.Unlock(itemID)

	item, err := s.ledger.SetQuantity(ctx, itemID, quantity, reason)
	if err != nil {
		return nil, fmt.Errorf("set quantity: %w", err)
	}

	s.evaluateAlert(ctx, item)
	s.bus.Publish(domain.NewInventoryUpdated(item))

	return item, nil
}

// CreateBill decrements stock for every requested line and persists the bill
func (s *LedgerService) CreateBill(ctx context.Context, bill *domain.Bill, lines []domain.BillLine) (*domain.Bill, error) {
	if err := domain.ValidateLines(lines); err != nil {
		return nil, err
	}
	if bill.BillNumber == "" {
		return nil, domain.NewValidationError("bill_number", "is required")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	unlock := s.locks.LockAll(ids)
	defer unlock()

	if err := s.ledger.CreateBill(ctx, bill, lines); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	s.evaluateItems(ctx, ids)
	s.bus.Publish(domain.NewBillCreated(bill))

	s.logger.InfoContext(ctx, "bill committed",
		slog.String("bill_id", bill.ID.String()),
		slog.String("bill_number", bill.BillNumber),
		slog.Int("lines", len(bill.Items)))

	return bill, nil
}

// UpdateBill replaces a bill's line set, reconciling stock by the per-item
// difference between old and new lines
func (s *LedgerService) UpdateBill(ctx context.Context, billID uuid.UUID, lines []domain.BillLine) (*domain.Bill, error) {
	if err := domain.ValidateLines(lines); err != nil {
		return nil, err
	}

	existing, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	// Lock the union of old and new item ids so both the restorations and
	// the re-applied decrements happen under the same lock set.
	ids := make([]uuid.UUID, 0, len(existing.Items)+len(lines))
	for _, li := range existing.Items {
		ids = append(ids, li.ItemID)
	}
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	unlock := s.locks.LockAll(ids)
	defer unlock()

	bill, err := s.ledger.UpdateBill(ctx, billID, lines)
	if err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}

	s.evaluateItems(ctx, ids)
	s.bus.Publish(domain.NewBillUpdated(bill))

	s.logger.InfoContext(ctx, "bill reconciled",
		slog.String("bill_id", billID.String()),
		slog.Int("lines", len(bill.Items)))

	return bill, nil
}

// DeleteBill removes a bill and restores the stock its lines consumed
func (s *LedgerService) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	existing, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(existing.Items))
	for _, li := range existing.Items {
		ids = append(ids, li.ItemID)
	}
	unlock := s.locks.LockAll(ids)
	defer unlock()

	if err := s.ledger.DeleteBill(ctx, billID); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}

	s.evaluateItems(ctx, ids)
	s.bus.Publish(domain.NewBillDeleted(billID))

	s.logger.InfoContext(ctx, "bill deleted",
		slog.String("bill_id", billID.String()))

	return nil
}

// GetBill retrieves a bill by id
func (s *LedgerService) GetBill(ctx context.Context, billID uuid.UUID) (*domain.Bill, error) {
	return s.bills.FindByID(ctx, billID)
}

// ListBills retrieves bills with pagination
func (s *LedgerService) ListBills(ctx context.Context, limit, offset int) ([]*domain.Bill, int64, error) {
	return s.bills.List(ctx, limit, offset)
}

// GetTransaction retrieves a transaction by id
func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.txs.FindByID(ctx, id)
}

// ListTransactions retrieves transactions with filtering and pagination
func (s *LedgerService) ListTransactions(ctx context.Context, params ports.TxListParams) ([]*domain.Transaction, int64, error) {
	return s.txs.List(ctx, params)
}

// CompleteTransaction checks an active checkout back in and marks the
// original transaction completed.
func (s *LedgerService) CompleteTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, *domain.InventoryItem, error) {
	t, err := s.txs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if t.Type != domain.TxCheckout {
		return nil, nil, fmt.Errorf("only checkouts can be completed: %w", domain.ErrConflict)
	}
	if t.Status != domain.TxActive && t.Status != domain.TxOverdue {
		return nil, nil, fmt.Errorf("transaction is %s: %w", t.Status, domain.ErrConflict)
	}

	s.locks.Lock(t.ItemID)
	defer s.locks.Unlock(t.ItemID)

	checkin := &domain.Transaction{
		ItemID:   t.ItemID,
		Type:     domain.TxCheckin,
		Quantity: t.Quantity,
		UserName: t.UserName,
		Notes:    fmt.Sprintf("return of checkout %s", t.ID),
	}
	item, err := s.ledger.ApplyTransaction(ctx, checkin)
	if err != nil {
		return nil, nil, fmt.Errorf("check in stock: %w", err)
	}

	now := time.Now()
	updated, err := s.txs.UpdateStatus(ctx, id, domain.TxCompleted, &now)
	if err != nil {
		return nil, nil, fmt.Errorf("complete transaction: %w", err)
	}

	s.evaluateAlert(ctx, item)
	s.bus.Publish(domain.NewTransactionUpdated(updated, item))

	return updated, item, nil
}

// evaluateAlert re-derives one item's alert. The mutation is already
// committed, so a derivation failure is logged and left for the periodic
// auto-check to reconcile.
func (s *LedgerService) evaluateAlert(ctx context.Context, item *domain.InventoryItem) {
	if err := s.alerts.Evaluate(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "alert evaluation failed",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
	}
}

func (s *LedgerService) evaluateItems(ctx context.Context, ids []uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		item, err := s.inventory.FindByID(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to load item for alert evaluation",
				slog.String("item_id", id.String()),
				slog.String("error", err.Error()))
			continue
		}
		s.evaluateAlert(ctx, item)
	}
}
