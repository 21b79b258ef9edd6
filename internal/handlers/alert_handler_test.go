// internal/handlers/alert_handler_test.go
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

func TestAlertHandler_AcknowledgeAlert(t *testing.T) {
	alertID := uuid.New()
	acked := helpers.CreateTestAlert(uuid.New(), func(a *domain.LowStockAlert) {
		a.ID = alertID
		a.Status = domain.AlertAcknowledged
	})

	tests := []struct {
		name           string
		alertID        string
		body           string
		setupMocks     func(*mocks.MockAlertService)
		expectedStatus int
	}{
		{
			name:    "acknowledges_with_operator_name",
			alertID: alertID.String(),
			body:    `{"acknowledged_by":"nurse.k"}`,
			setupMocks: func(m *mocks.MockAlertService) {
				m.EXPECT().
					Acknowledge(gomock.Any(), alertID, "nurse.k").
					Return(acked, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "missing_body_acknowledges_anonymously",
			alertID: alertID.String(),
			body:    "",
			setupMocks: func(m *mocks.MockAlertService) {
				m.EXPECT().
					Acknowledge(gomock.Any(), alertID, "").
					Return(acked, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "resolved_alert_not_found",
			alertID: alertID.String(),
			body:    `{}`,
			setupMocks: func(m *mocks.MockAlertService) {
				m.EXPECT().
					Acknowledge(gomock.Any(), alertID, "").
					Return(nil, fmt.Errorf("alert is resolved: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_uuid_format",
			alertID:        "nope",
			body:           `{}`,
			setupMocks:     func(m *mocks.MockAlertService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockAlertService(ctrl)
			handler := handlers.NewAlertHandler(mockService, helpers.TestLogger())

			tt.setupMocks(mockService)

			req := httptest.NewRequest("POST",
				"/api/v1/alerts/"+tt.alertID+"/acknowledge",
				bytes.NewBufferString(tt.body))
			req.SetPathValue("id", tt.alertID)
			w := httptest.NewRecorder()

			handler.AcknowledgeAlert(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAlertHandler_BulkAcknowledge(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockAlertService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "acknowledges_batch",
			body: fmt.Sprintf(`{"ids":[%q,%q],"acknowledged_by":"ops"}`, id1, id2),
			setupMocks: func(m *mocks.MockAlertService) {
				m.EXPECT().
					BulkAcknowledge(gomock.Any(), []uuid.UUID{id1, id2}, "ops").
					Return([]uuid.UUID{id1}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response struct {
					Acknowledged []uuid.UUID `json:"acknowledged"`
					Count        int         `json:"count"`
				}
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, []uuid.UUID{id1}, response.Acknowledged)
				assert.Equal(t, 1, response.Count)
			},
		},
		{
			name:           "empty_ids_rejected",
			body:           `{"ids":[],"acknowledged_by":"ops"}`,
			setupMocks:     func(m *mocks.MockAlertService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_json",
			body:           `{"ids":`,
			setupMocks:     func(m *mocks.MockAlertService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockAlertService(ctrl)
			handler := handlers.NewAlertHandler(mockService, helpers.TestLogger())

			tt.setupMocks(mockService)

			req := httptest.NewRequest("POST", "/api/v1/alerts/bulk-acknowledge",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.BulkAcknowledge(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestAlertHandler_ListAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockAlertService(ctrl)
	handler := handlers.NewAlertHandler(mockService, helpers.TestLogger())

	alerts := []*domain.LowStockAlert{helpers.CreateTestAlert(uuid.New())}
	mockService.EXPECT().
		List(gomock.Any(), domain.AlertActive, 20, 20).
		Return(alerts, int64(41), nil)

	req := httptest.NewRequest("GET",
		"/api/v1/alerts?status=active&page=2&page_size=20", nil)
	w := httptest.NewRecorder()

	handler.ListAlerts(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data       []*domain.LowStockAlert `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
			Page  int   `json:"page"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Data, 1)
	assert.Equal(t, int64(41), response.Pagination.Total)
	assert.Equal(t, 2, response.Pagination.Page)
}

func TestAlertHandler_ResolveAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockAlertService(ctrl)
	handler := handlers.NewAlertHandler(mockService, helpers.TestLogger())

	alertID := uuid.New()
	resolved := helpers.CreateTestAlert(uuid.New(), func(a *domain.LowStockAlert) {
		a.ID = alertID
		a.Status = domain.AlertResolved
	})
	mockService.EXPECT().Resolve(gomock.Any(), alertID).Return(resolved, nil)

	req := httptest.NewRequest("POST", "/api/v1/alerts/"+alertID.String()+"/resolve", nil)
	req.SetPathValue("id", alertID.String())
	w := httptest.NewRecorder()

	handler.ResolveAlert(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.LowStockAlert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, domain.AlertResolved, response.Status)
}

func TestAlertHandler_RunCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockAlertService(ctrl)
	handler := handlers.NewAlertHandler(mockService, helpers.TestLogger())

	mockService.EXPECT().AutoCheck(gomock.Any()).Return(3, 2, nil)

	req := httptest.NewRequest("POST", "/api/v1/alerts/check", nil)
	w := httptest.NewRecorder()

	handler.RunCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 3, response["created"])
	assert.Equal(t, 2, response["updated"])
}
