// internal/workers/alert_check_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// Task type constants for Asynq
const (
	TypeAlertCheck      = "alerts:check"
	TypeMarkOverdue     = "transactions:mark_overdue"
	TypeCleanupResolved = "cleanup:resolved_alerts"
	TypeCleanupOldData  = "cleanup:old_data"
)

// AlertCheckProcessor runs the periodic alert reconciliation sweep
type AlertCheckProcessor struct {
	alerts ports.AlertService
	logger *slog.Logger
}

// NewAlertCheckProcessor creates a new alert check processor
func NewAlertCheckProcessor(alerts ports.AlertService, logger *slog.Logger) *AlertCheckProcessor {
	return &AlertCheckProcessor{
		alerts: alerts,
		logger: logger.With(slog.String("processor", "alert_check")),
	}
}

// CheckAlerts re-derives alert state for every item at or below its minimum
// and resolves alerts whose items recovered while the evaluator was down.
func (p *AlertCheckProcessor) CheckAlerts(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "running alert auto-check")

	created, updated, err := p.alerts.AutoCheck(ctx)
	if err != nil {
		return fmt.Errorf("alert auto-check failed: %w", err)
	}

	p.logger.InfoContext(ctx, "alert auto-check complete",
		slog.Int("created", created),
		slog.Int("updated", updated))

	return nil
}
