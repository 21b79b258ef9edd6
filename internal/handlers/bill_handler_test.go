// internal/handlers/bill_handler_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/handlers"
	"github.com/jaiswal09/medstock-be/test/helpers"
	"github.com/jaiswal09/medstock-be/test/mocks"
)

func TestBillHandler_CreateBill(t *testing.T) {
	itemID := uuid.New()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockLedgerService)
		expectedStatus int
	}{
		{
			name: "successfully_creates_bill",
			body: fmt.Sprintf(`{"bill_number":"B-100","customer_name":"Ward 3","tax":"2.50","items":[{"item_id":%q,"quantity":4}]}`, itemID),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					CreateBill(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ interface{}, bill *domain.Bill, lines []domain.BillLine) (*domain.Bill, error) {
						assert.Equal(t, "B-100", bill.BillNumber)
						assert.Equal(t, "Ward 3", bill.CustomerName)
						require.Len(t, lines, 1)
						assert.Equal(t, itemID, lines[0].ItemID)
						assert.Equal(t, 4, lines[0].Quantity)
						bill.ID = uuid.New()
						bill.Status = domain.BillIssued
						return bill, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "insufficient_stock_conflicts",
			body: fmt.Sprintf(`{"bill_number":"B-101","items":[{"item_id":%q,"quantity":99}]}`, itemID),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					CreateBill(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("create bill: %w", domain.ErrInsufficientStock))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "empty_lines_rejected",
			body: `{"bill_number":"B-102","items":[]}`,
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					CreateBill(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, domain.NewValidationError("items", "must contain at least one line"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_json",
			body:           `{"bill_number":`,
			setupMocks:     func(m *mocks.MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLedger := mocks.NewMockLedgerService(ctrl)
			handler := handlers.NewBillHandler(mockLedger, helpers.TestLogger())

			tt.setupMocks(mockLedger)

			req := httptest.NewRequest("POST", "/api/v1/bills",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateBill(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestBillHandler_UpdateBill(t *testing.T) {
	billID := uuid.New()
	itemID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	handler := handlers.NewBillHandler(mockLedger, helpers.TestLogger())

	mockLedger.EXPECT().
		UpdateBill(gomock.Any(), billID, []domain.BillLine{{ItemID: itemID, Quantity: 5}}).
		Return(&domain.Bill{ID: billID, Status: domain.BillIssued}, nil)

	body := fmt.Sprintf(`{"items":[{"item_id":%q,"quantity":5}]}`, itemID)
	req := httptest.NewRequest("PUT", "/api/v1/bills/"+billID.String(),
		bytes.NewBufferString(body))
	req.SetPathValue("id", billID.String())
	w := httptest.NewRecorder()

	handler.UpdateBill(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBillHandler_DeleteBill(t *testing.T) {
	tests := []struct {
		name           string
		billID         string
		setupMocks     func(*mocks.MockLedgerService)
		expectedStatus int
	}{
		{
			name:   "successfully_deletes_bill",
			billID: uuid.NewString(),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().DeleteBill(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "bill_not_found",
			billID: uuid.NewString(),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					DeleteBill(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("bill: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_uuid_format",
			billID:         "nope",
			setupMocks:     func(m *mocks.MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLedger := mocks.NewMockLedgerService(ctrl)
			handler := handlers.NewBillHandler(mockLedger, helpers.TestLogger())

			tt.setupMocks(mockLedger)

			req := httptest.NewRequest("DELETE", "/api/v1/bills/"+tt.billID, nil)
			req.SetPathValue("id", tt.billID)
			w := httptest.NewRecorder()

			handler.DeleteBill(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestBillHandler_GetBill(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	handler := handlers.NewBillHandler(mockLedger, helpers.TestLogger())

	billID := uuid.New()
	mockLedger.EXPECT().
		GetBill(gomock.Any(), billID).
		Return(&domain.Bill{ID: billID, BillNumber: "B-7"}, nil)

	req := httptest.NewRequest("GET", "/api/v1/bills/"+billID.String(), nil)
	req.SetPathValue("id", billID.String())
	w := httptest.NewRecorder()

	handler.GetBill(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.Bill
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, billID, response.ID)
	assert.Equal(t, "B-7", response.BillNumber)
}
