// internal/workers/overdue_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// OverdueProcessor transitions past-due checkouts to overdue
type OverdueProcessor struct {
	transactions ports.TransactionRepository
	logger       *slog.Logger
}

// NewOverdueProcessor creates a new overdue processor
func NewOverdueProcessor(transactions ports.TransactionRepository, logger *slog.Logger) *OverdueProcessor {
	return &OverdueProcessor{
		transactions: transactions,
		logger:       logger.With(slog.String("processor", "overdue")),
	}
}

// MarkOverdue flags every active checkout whose due date has passed.
func (p *OverdueProcessor) MarkOverdue(ctx context.Context, t *asynq.Task) error {
	marked, err := p.transactions.MarkOverdue(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark overdue transactions: %w", err)
	}

	if marked > 0 {
		p.logger.InfoContext(ctx, "transactions marked overdue",
			slog.Int64("count", marked))
	}

	return nil
}
