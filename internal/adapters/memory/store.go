// internal/adapters/memory/store.go

// Package memory provides in-memory implementations of the persistence
// ports. A single store-wide mutex makes every repository operation atomic,
// which mirrors the transactional guarantees of the postgres adapter closely
// enough for service-level and concurrency tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// Store holds all entity tables behind one mutex.
type Store struct {
	mu        sync.RWMutex
	items     map[uuid.UUID]*domain.InventoryItem
	txs       map[uuid.UUID]*domain.Transaction
	bills     map[uuid.UUID]*domain.Bill
	alerts    map[uuid.UUID]*domain.LowStockAlert
	overrides []stockOverride
}

type stockOverride struct {
	ItemID      uuid.UUID
	OldQuantity int
	NewQuantity int
	Reason      string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:  make(map[uuid.UUID]*domain.InventoryItem),
		txs:    make(map[uuid.UUID]*domain.Transaction),
		bills:  make(map[uuid.UUID]*domain.Bill),
		alerts: make(map[uuid.UUID]*domain.LowStockAlert),
	}
}

// Inventory returns the inventory repository view of the store.
func (s *Store) Inventory() ports.InventoryRepository { return &inventoryRepo{s} }

// Ledger returns the ledger repository view of the store.
func (s *Store) Ledger() ports.LedgerRepository { return &ledgerRepo{s} }

// Transactions returns the transaction repository view of the store.
func (s *Store) Transactions() ports.TransactionRepository { return &transactionRepo{s} }

// Bills returns the bill repository view of the store.
func (s *Store) Bills() ports.BillRepository { return &billRepo{s} }

// Alerts returns the alert repository view of the store.
func (s *Store) Alerts() ports.AlertRepository { return &alertRepo{s} }

// Clone helpers. Everything handed out or taken in is copied so callers can
// never mutate store state through a shared pointer.

func cloneItem(i *domain.InventoryItem) *domain.InventoryItem {
	c := *i
	if i.MaxQuantity != nil {
		v := *i.MaxQuantity
		c.MaxQuantity = &v
	}
	if i.UnitPrice != nil {
		v := *i.UnitPrice
		c.UnitPrice = &v
	}
	if i.DeletedAt != nil {
		v := *i.DeletedAt
		c.DeletedAt = &v
	}
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.ReturnedAt != nil {
		v := *t.ReturnedAt
		c.ReturnedAt = &v
	}
	return &c
}

func cloneBill(b *domain.Bill) *domain.Bill {
	c := *b
	c.Items = append([]domain.BillItem(nil), b.Items...)
	c.Payments = append([]domain.Payment(nil), b.Payments...)
	return &c
}

func cloneAlert(a *domain.LowStockAlert) *domain.LowStockAlert {
	c := *a
	if a.AcknowledgedAt != nil {
		v := *a.AcknowledgedAt
		c.AcknowledgedAt = &v
	}
	if a.ResolvedAt != nil {
		v := *a.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}
