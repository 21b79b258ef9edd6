// internal/handlers/transaction_handler_test.go
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
	"github.com/jaiswal09/medstock-be/internal/core/ports"
	"github.com/jaiswal09/medstock-be/internal/handlers"
	"github.com/jaiswal09/medstock-be/test/helpers"
	"github.com/jaiswal09/medstock-be/test/mocks"
)

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	testItem := helpers.CreateTestItem()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockLedgerService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "successfully_creates_checkout",
			body: fmt.Sprintf(`{"item_id":%q,"type":"checkout","quantity":3,"user_name":"nurse.k"}`,
				testItem.ID),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ApplyTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ interface{}, tx *domain.Transaction) (*domain.Transaction, *domain.InventoryItem, error) {
						assert.Equal(t, testItem.ID, tx.ItemID)
						assert.Equal(t, domain.TxCheckout, tx.Type)
						assert.Equal(t, 3, tx.Quantity)
						tx.ID = uuid.New()
						tx.Status = domain.TxActive
						return tx, testItem, nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response struct {
					Transaction domain.Transaction   `json:"transaction"`
					Item        domain.InventoryItem `json:"item"`
				}
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, domain.TxActive, response.Transaction.Status)
				assert.Equal(t, testItem.ID, response.Item.ID)
			},
		},
		{
			name: "insufficient_stock_conflicts",
			body: fmt.Sprintf(`{"item_id":%q,"type":"checkout","quantity":999}`, testItem.ID),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ApplyTransaction(gomock.Any(), gomock.Any()).
					Return(nil, nil, fmt.Errorf("apply transaction: %w", domain.ErrInsufficientStock))
			},
			expectedStatus: http.StatusConflict,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "insufficient stock", response["error"])
			},
		},
		{
			name: "validation_error",
			body: `{"type":"borrow","quantity":1}`,
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ApplyTransaction(gomock.Any(), gomock.Any()).
					Return(nil, nil, domain.NewValidationError("type", "is invalid"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_json",
			body:           `{"item_id":`,
			setupMocks:     func(m *mocks.MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLedger := mocks.NewMockLedgerService(ctrl)
			handler := handlers.NewTransactionHandler(mockLedger, helpers.TestLogger())

			tt.setupMocks(mockLedger)

			req := httptest.NewRequest("POST", "/api/v1/transactions",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateTransaction(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	handler := handlers.NewTransactionHandler(mockLedger, helpers.TestLogger())

	itemID := uuid.New()
	mockLedger.EXPECT().
		ListTransactions(gomock.Any(), ports.TxListParams{
			ItemID:   itemID,
			Type:     domain.TxCheckout,
			Status:   domain.TxActive,
			Page:     1,
			PageSize: 50,
		}).
		Return([]*domain.Transaction{{ID: uuid.New(), ItemID: itemID}}, int64(1), nil)

	req := httptest.NewRequest("GET",
		"/api/v1/transactions?item_id="+itemID.String()+"&type=checkout&status=active", nil)
	w := httptest.NewRecorder()

	handler.ListTransactions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTransactionHandler_CompleteTransaction(t *testing.T) {
	testItem := helpers.CreateTestItem()

	tests := []struct {
		name           string
		txID           string
		setupMocks     func(*mocks.MockLedgerService)
		expectedStatus int
	}{
		{
			name: "successfully_completes_checkout",
			txID: uuid.NewString(),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					CompleteTransaction(gomock.Any(), gomock.Any()).
					Return(&domain.Transaction{Status: domain.TxCompleted}, testItem, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "completing_twice_conflicts",
			txID: uuid.NewString(),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					CompleteTransaction(gomock.Any(), gomock.Any()).
					Return(nil, nil, fmt.Errorf("transaction is completed: %w", domain.ErrConflict))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid_uuid_format",
			txID:           "nope",
			setupMocks:     func(m *mocks.MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLedger := mocks.NewMockLedgerService(ctrl)
			handler := handlers.NewTransactionHandler(mockLedger, helpers.TestLogger())

			tt.setupMocks(mockLedger)

			req := httptest.NewRequest("POST",
				"/api/v1/transactions/"+tt.txID+"/complete", nil)
			req.SetPathValue("id", tt.txID)
			w := httptest.NewRecorder()

			handler.CompleteTransaction(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
