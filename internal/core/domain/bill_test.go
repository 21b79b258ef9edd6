// internal/core/domain/bill_test.go
package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

func TestValidateLines(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()

	tests := []struct {
		name          string
		lines         []domain.BillLine
		errorContains string
	}{
		{
			name:          "empty_lines_rejected",
			lines:         nil,
			errorContains: "at least one line",
		},
		{
			name: "valid_lines",
			lines: []domain.BillLine{
				{ItemID: itemA, Quantity: 2},
				{ItemID: itemB, Quantity: 1},
			},
		},
		{
			name:          "nil_item_id_rejected",
			lines:         []domain.BillLine{{ItemID: uuid.Nil, Quantity: 1}},
			errorContains: "item_id",
		},
		{
			name:          "zero_quantity_rejected",
			lines:         []domain.BillLine{{ItemID: itemA, Quantity: 0}},
			errorContains: "quantity",
		},
		{
			name: "duplicate_item_rejected",
			lines: []domain.BillLine{
				{ItemID: itemA, Quantity: 1},
				{ItemID: itemA, Quantity: 2},
			},
			errorContains: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateLines(tt.lines)
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

func TestDiffLines(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()
	itemC := uuid.New()

	old := []domain.BillItem{
		{ItemID: itemA, Quantity: 3},
		{ItemID: itemB, Quantity: 2},
	}
	replacement := []domain.BillLine{
		{ItemID: itemA, Quantity: 5}, // consumes 2 more
		{ItemID: itemC, Quantity: 1}, // new line
	}

	diff := domain.DiffLines(old, replacement)

	assert.Equal(t, 2, diff[itemA])
	assert.Equal(t, -2, diff[itemB])
	assert.Equal(t, 1, diff[itemC])
	assert.Len(t, diff, 3)
}

func TestDiffLines_UnchangedLineOmitted(t *testing.T) {
	itemA := uuid.New()

	old := []domain.BillItem{{ItemID: itemA, Quantity: 4}}
	replacement := []domain.BillLine{{ItemID: itemA, Quantity: 4}}

	diff := domain.DiffLines(old, replacement)
	assert.Empty(t, diff)
}

func TestBill_Recalculate(t *testing.T) {
	bill := &domain.Bill{
		Tax: decimal.NewFromFloat(5.00),
		Items: []domain.BillItem{
			{LineTotal: decimal.NewFromFloat(10.00)},
			{LineTotal: decimal.NewFromFloat(7.50)},
		},
	}

	bill.Recalculate()

	assert.True(t, bill.Subtotal.Equal(decimal.NewFromFloat(17.50)),
		"expected 17.50, got %s", bill.Subtotal)
	assert.True(t, bill.Total.Equal(decimal.NewFromFloat(22.50)),
		"expected 22.50, got %s", bill.Total)
}

func TestBill_PrepareForStorage(t *testing.T) {
	bill := &domain.Bill{
		BillNumber: "B-001",
		Items: []domain.BillItem{
			{ItemID: uuid.New(), Quantity: 1},
		},
	}

	bill.PrepareForStorage()

	assert.NotEqual(t, uuid.Nil, bill.ID)
	assert.Equal(t, domain.BillIssued, bill.Status)
	require.Len(t, bill.Items, 1)
	assert.NotEqual(t, uuid.Nil, bill.Items[0].ID)
	assert.Equal(t, bill.ID, bill.Items[0].BillID)
}
