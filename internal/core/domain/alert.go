// internal/core/domain/alert.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertLevel is the severity tier of a low-stock condition.
type AlertLevel string

// Alert level constants. AlertNone is the derived "no alert should exist"
// level and is never persisted.
const (
	AlertNone       AlertLevel = ""
	AlertLow        AlertLevel = "low"
	AlertCritical   AlertLevel = "critical"
	AlertOutOfStock AlertLevel = "out_of_stock"
)

// AlertStatus is the operator-facing lifecycle of an alert.
type AlertStatus string

// Alert status constants
const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// LowStockAlert flags an item whose quantity has fallen to or below its
// minimum. At most one alert per item may be unresolved at any time.
type LowStockAlert struct {
	ID              uuid.UUID   `json:"id"`
	ItemID          uuid.UUID   `json:"item_id"`
	CurrentQuantity int         `json:"current_quantity"`
	MinQuantity     int         `json:"min_quantity"`
	Level           AlertLevel  `json:"level"`
	Status          AlertStatus `json:"status"`
	AcknowledgedBy  string      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// AlertLevelFor derives the target alert level from a quantity and its
// minimum threshold:
//
//	q == 0            -> out_of_stock
//	0 < q <= m/2      -> critical
//	m/2 < q <= m      -> low
//	q > m             -> none
//
// The half-threshold comparison is done in integers (2*q <= m) so a minimum
// of 20 puts quantity 10 at critical and quantity 11 at low.
func AlertLevelFor(quantity, minQuantity int) AlertLevel {
	switch {
	case quantity <= 0:
		return AlertOutOfStock
	case 2*quantity <= minQuantity:
		return AlertCritical
	case quantity <= minQuantity:
		return AlertLow
	default:
		return AlertNone
	}
}

// Resolved reports whether the alert has been resolved.
func (a *LowStockAlert) Resolved() bool {
	return a.Status == AlertResolved
}

// PrepareForStorage assigns identity and timestamps before persistence.
func (a *LowStockAlert) PrepareForStorage() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AlertActive
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
}
