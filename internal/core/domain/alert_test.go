// internal/core/domain/alert_test.go
package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

func TestAlertLevelFor(t *testing.T) {
	tests := []struct {
		name        string
		quantity    int
		minQuantity int
		expected    domain.AlertLevel
	}{
		{"zero_quantity_is_out_of_stock", 0, 10, domain.AlertOutOfStock},
		{"negative_quantity_is_out_of_stock", -1, 10, domain.AlertOutOfStock},
		{"zero_quantity_zero_minimum_is_out_of_stock", 0, 0, domain.AlertOutOfStock},
		{"half_of_minimum_is_critical", 10, 20, domain.AlertCritical},
		{"below_half_is_critical", 3, 20, domain.AlertCritical},
		{"one_unit_with_minimum_two_is_critical", 1, 2, domain.AlertCritical},
		{"just_above_half_is_low", 11, 20, domain.AlertLow},
		{"at_minimum_is_low", 20, 20, domain.AlertLow},
		{"odd_minimum_midpoint_rounds_to_low", 3, 5, domain.AlertLow},
		{"above_minimum_is_none", 21, 20, domain.AlertNone},
		{"positive_quantity_zero_minimum_is_none", 1, 0, domain.AlertNone},
		{"well_stocked_is_none", 100, 10, domain.AlertNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.AlertLevelFor(tt.quantity, tt.minQuantity))
		})
	}
}

func TestLowStockAlert_Resolved(t *testing.T) {
	alert := &domain.LowStockAlert{Status: domain.AlertActive}
	assert.False(t, alert.Resolved())

	alert.Status = domain.AlertAcknowledged
	assert.False(t, alert.Resolved())

	alert.Status = domain.AlertResolved
	assert.True(t, alert.Resolved())
}

func TestLowStockAlert_PrepareForStorage(t *testing.T) {
	alert := &domain.LowStockAlert{}
	alert.PrepareForStorage()

	assert.NotEqual(t, alert.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, domain.AlertActive, alert.Status)
	assert.False(t, alert.CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now(), alert.UpdatedAt, time.Second)
}
