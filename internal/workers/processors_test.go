// internal/workers/processors_test.go
package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jaiswal09/medstock-be/internal/adapters/memory"
	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
	"github.com/jaiswal09/medstock-be/internal/workers"
	"github.com/jaiswal09/medstock-be/test/helpers"
	"github.com/jaiswal09/medstock-be/test/mocks"
)

func TestAlertCheckProcessor_CheckAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAlerts := mocks.NewMockAlertService(ctrl)
	mockAlerts.EXPECT().AutoCheck(gomock.Any()).Return(2, 1, nil)

	processor := workers.NewAlertCheckProcessor(mockAlerts, helpers.TestLogger())

	task := asynq.NewTask(workers.TypeAlertCheck, nil)
	err := processor.CheckAlerts(context.Background(), task)
	assert.NoError(t, err)
}

func TestAlertCheckProcessor_CheckAlerts_PropagatesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAlerts := mocks.NewMockAlertService(ctrl)
	mockAlerts.EXPECT().AutoCheck(gomock.Any()).Return(0, 0, errors.New("db down"))

	processor := workers.NewAlertCheckProcessor(mockAlerts, helpers.TestLogger())

	task := asynq.NewTask(workers.TypeAlertCheck, nil)
	err := processor.CheckAlerts(context.Background(), task)
	assert.Error(t, err)
}

func TestOverdueProcessor_MarkOverdue(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	item := helpers.CreateTestItem()
	require.NoError(t, store.Inventory().Save(ctx, item))

	// Two checkouts: one past due, one still within its window.
	pastDue := time.Now().Add(-48 * time.Hour)
	futureDue := time.Now().Add(48 * time.Hour)

	_, err := store.Ledger().ApplyTransaction(ctx, &domain.Transaction{
		ItemID:   item.ID,
		Type:     domain.TxCheckout,
		Quantity: 1,
		DueDate:  &pastDue,
	})
	require.NoError(t, err)

	_, err = store.Ledger().ApplyTransaction(ctx, &domain.Transaction{
		ItemID:   item.ID,
		Type:     domain.TxCheckout,
		Quantity: 1,
		DueDate:  &futureDue,
	})
	require.NoError(t, err)

	processor := workers.NewOverdueProcessor(store.Transactions(), helpers.TestLogger())

	task := asynq.NewTask(workers.TypeMarkOverdue, nil)
	require.NoError(t, processor.MarkOverdue(ctx, task))

	overdue, total, err := store.Transactions().List(ctx, ports.TxListParams{
		Status: domain.TxOverdue,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, overdue, 1)
	assert.Equal(t, pastDue.Unix(), overdue[0].DueDate.Unix())

	// Running again finds nothing new.
	require.NoError(t, processor.MarkOverdue(ctx, task))
	_, total, err = store.Transactions().List(ctx, ports.TxListParams{
		Status: domain.TxOverdue,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
