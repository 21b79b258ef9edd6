// internal/core/domain/events.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a change-event variant on the wire.
type EventType string

// Event type constants, one per committed mutation kind.
const (
	EventInventoryCreated   EventType = "inventory_created"
	EventInventoryUpdated   EventType = "inventory_updated"
	EventInventoryDeleted   EventType = "inventory_deleted"
	EventTransactionCreated EventType = "transaction_created"
	EventTransactionUpdated EventType = "transaction_updated"
	EventBillCreated        EventType = "bill_created"
	EventBillUpdated        EventType = "bill_updated"
	EventBillDeleted        EventType = "bill_deleted"
	EventAlertCreated       EventType = "alert_created"
	EventAlertUpdated       EventType = "alert_updated"
	EventAlertResolved      EventType = "alert_resolved"
	EventAlertsAcknowledged EventType = "alerts_bulk_acknowledged"
	EventAlertsAutoChecked  EventType = "alerts_auto_checked"
)

// Event is a closed union of change-event variants. Events are ephemeral:
// they describe a committed mutation and are never persisted. The unexported
// method keeps the union closed so consumers can switch exhaustively over
// the concrete types.
type Event interface {
	Type() EventType
	At() time.Time
	payload() any
	isEvent()
}

// Envelope is the wire representation of an event sent to observers.
type Envelope struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// WireEnvelope builds the JSON envelope for an event.
func WireEnvelope(e Event) Envelope {
	return Envelope{Type: e.Type(), Data: e.payload(), Timestamp: e.At()}
}

type eventMeta struct {
	Timestamp time.Time `json:"timestamp"`
}

func (m eventMeta) At() time.Time { return m.Timestamp }
func (eventMeta) isEvent()        {}

func newMeta() eventMeta { return eventMeta{Timestamp: time.Now()} }

// InventoryChanged reports a created or updated inventory item.
type InventoryChanged struct {
	eventMeta
	Item    *InventoryItem
	Created bool
}

// NewInventoryCreated builds the event for a freshly created item.
func NewInventoryCreated(item *InventoryItem) InventoryChanged {
	return InventoryChanged{eventMeta: newMeta(), Item: item, Created: true}
}

// NewInventoryUpdated builds the event for an updated item.
func NewInventoryUpdated(item *InventoryItem) InventoryChanged {
	return InventoryChanged{eventMeta: newMeta(), Item: item}
}

func (e InventoryChanged) Type() EventType {
	if e.Created {
		return EventInventoryCreated
	}
	return EventInventoryUpdated
}
func (e InventoryChanged) payload() any { return e.Item }

// InventoryDeleted reports a removed inventory item.
type InventoryDeleted struct {
	eventMeta
	ItemID uuid.UUID
}

// NewInventoryDeleted builds the event for a deleted item.
func NewInventoryDeleted(id uuid.UUID) InventoryDeleted {
	return InventoryDeleted{eventMeta: newMeta(), ItemID: id}
}

func (e InventoryDeleted) Type() EventType { return EventInventoryDeleted }
func (e InventoryDeleted) payload() any {
	return map[string]any{"id": e.ItemID}
}

// TransactionChanged reports a created or updated transaction together with
// the item state it left behind.
type TransactionChanged struct {
	eventMeta
	Transaction *Transaction
	Item        *InventoryItem
	Created     bool
}

// NewTransactionCreated builds the event for a committed transaction.
func NewTransactionCreated(tx *Transaction, item *InventoryItem) TransactionChanged {
	return TransactionChanged{eventMeta: newMeta(), Transaction: tx, Item: item, Created: true}
}

// NewTransactionUpdated builds the event for a status transition.
func NewTransactionUpdated(tx *Transaction, item *InventoryItem) TransactionChanged {
	return TransactionChanged{eventMeta: newMeta(), Transaction: tx, Item: item}
}

func (e TransactionChanged) Type() EventType {
	if e.Created {
		return EventTransactionCreated
	}
	return EventTransactionUpdated
}
func (e TransactionChanged) payload() any {
	return map[string]any{"transaction": e.Transaction, "item": e.Item}
}

// BillChanged reports a created or updated bill.
type BillChanged struct {
	eventMeta
	Bill    *Bill
	Created bool
}

// NewBillCreated builds the event for a committed bill.
func NewBillCreated(b *Bill) BillChanged {
	return BillChanged{eventMeta: newMeta(), Bill: b, Created: true}
}

// NewBillUpdated builds the event for a reconciled bill edit.
func NewBillUpdated(b *Bill) BillChanged {
	return BillChanged{eventMeta: newMeta(), Bill: b}
}

func (e BillChanged) Type() EventType {
	if e.Created {
		return EventBillCreated
	}
	return EventBillUpdated
}
func (e BillChanged) payload() any { return e.Bill }

// BillDeleted reports a removed bill whose stock has been restored.
type BillDeleted struct {
	eventMeta
	BillID uuid.UUID
}

// NewBillDeleted builds the event for a deleted bill.
func NewBillDeleted(id uuid.UUID) BillDeleted {
	return BillDeleted{eventMeta: newMeta(), BillID: id}
}

func (e BillDeleted) Type() EventType { return EventBillDeleted }
func (e BillDeleted) payload() any {
	return map[string]any{"id": e.BillID}
}

// AlertChanged reports a created, updated or resolved low-stock alert.
type AlertChanged struct {
	eventMeta
	Alert *LowStockAlert
	Kind  EventType
}

// NewAlertCreated builds the event for a new alert.
func NewAlertCreated(a *LowStockAlert) AlertChanged {
	return AlertChanged{eventMeta: newMeta(), Alert: a, Kind: EventAlertCreated}
}

// NewAlertUpdated builds the event for a level/status change.
func NewAlertUpdated(a *LowStockAlert) AlertChanged {
	return AlertChanged{eventMeta: newMeta(), Alert: a, Kind: EventAlertUpdated}
}

// NewAlertResolved builds the event for a resolved alert.
func NewAlertResolved(a *LowStockAlert) AlertChanged {
	return AlertChanged{eventMeta: newMeta(), Alert: a, Kind: EventAlertResolved}
}

func (e AlertChanged) Type() EventType { return e.Kind }
func (e AlertChanged) payload() any    { return e.Alert }

// AlertsAcknowledged summarizes a bulk acknowledge operation.
type AlertsAcknowledged struct {
	eventMeta
	IDs   []uuid.UUID
	Count int
}

// NewAlertsAcknowledged builds the bulk-acknowledge summary event.
func NewAlertsAcknowledged(ids []uuid.UUID) AlertsAcknowledged {
	return AlertsAcknowledged{eventMeta: newMeta(), IDs: ids, Count: len(ids)}
}

func (e AlertsAcknowledged) Type() EventType { return EventAlertsAcknowledged }
func (e AlertsAcknowledged) payload() any {
	return map[string]any{"ids": e.IDs, "count": e.Count}
}

// AlertsAutoChecked summarizes a periodic low-stock scan.
type AlertsAutoChecked struct {
	eventMeta
	Created int
	Updated int
}

// NewAlertsAutoChecked builds the auto-check summary event.
func NewAlertsAutoChecked(created, updated int) AlertsAutoChecked {
	return AlertsAutoChecked{eventMeta: newMeta(), Created: created, Updated: updated}
}

func (e AlertsAutoChecked) Type() EventType { return EventAlertsAutoChecked }
func (e AlertsAutoChecked) payload() any {
	return map[string]any{"created": e.Created, "updated": e.Updated}
}
