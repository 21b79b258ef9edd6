// internal/core/domain/transaction_test.go
package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

func TestTransaction_Validate(t *testing.T) {
	valid := func() *domain.Transaction {
		return &domain.Transaction{
			ItemID:   uuid.New(),
			Type:     domain.TxCheckout,
			Quantity: 2,
		}
	}

	tests := []struct {
		name          string
		mutate        func(*domain.Transaction)
		errorContains string
	}{
		{"valid_checkout", func(tx *domain.Transaction) {}, ""},
		{"missing_item_id", func(tx *domain.Transaction) { tx.ItemID = uuid.Nil }, "item_id"},
		{"unknown_type", func(tx *domain.Transaction) { tx.Type = "borrow" }, "type"},
		{"zero_quantity", func(tx *domain.Transaction) { tx.Quantity = 0 }, "quantity"},
		{"negative_quantity", func(tx *domain.Transaction) { tx.Quantity = -3 }, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid()
			tt.mutate(tx)
			err := tx.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestTransaction_Delta(t *testing.T) {
	tests := []struct {
		txType   domain.TransactionType
		quantity int
		expected int
	}{
		{domain.TxCheckout, 5, -5},
		{domain.TxCheckin, 5, 5},
		{domain.TxLost, 2, -2},
		{domain.TxDamaged, 1, -1},
		{domain.TxMaintenance, 3, -3},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			tx := &domain.Transaction{Type: tt.txType, Quantity: tt.quantity}
			assert.Equal(t, tt.expected, tx.Delta())
		})
	}
}

func TestTransaction_InitialStatus(t *testing.T) {
	assert.Equal(t, domain.TxActive, (&domain.Transaction{Type: domain.TxCheckout}).InitialStatus())
	assert.Equal(t, domain.TxCompleted, (&domain.Transaction{Type: domain.TxCheckin}).InitialStatus())
	assert.Equal(t, domain.TxStatusLost, (&domain.Transaction{Type: domain.TxLost}).InitialStatus())
	assert.Equal(t, domain.TxStatusDamaged, (&domain.Transaction{Type: domain.TxDamaged}).InitialStatus())
	assert.Equal(t, domain.TxActive, (&domain.Transaction{Type: domain.TxMaintenance}).InitialStatus())
}

func TestTransaction_ItemStatusEffect(t *testing.T) {
	assert.Equal(t, domain.ItemLost, (&domain.Transaction{Type: domain.TxLost}).ItemStatusEffect())
	assert.Equal(t, domain.ItemMaintenance, (&domain.Transaction{Type: domain.TxDamaged}).ItemStatusEffect())
	assert.Equal(t, domain.ItemMaintenance, (&domain.Transaction{Type: domain.TxMaintenance}).ItemStatusEffect())
	assert.Equal(t, domain.ItemStatus(""), (&domain.Transaction{Type: domain.TxCheckout}).ItemStatusEffect())
	assert.Equal(t, domain.ItemStatus(""), (&domain.Transaction{Type: domain.TxCheckin}).ItemStatusEffect())
}
