// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/jaiswal09/medstock-be/internal/adapters/db"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
	"github.com/jaiswal09/medstock-be/internal/pkg/config"
)

// CleanupProcessor handles retention cleanup tasks
type CleanupProcessor struct {
	db     *db.Database
	alerts ports.AlertService
	config *config.Config
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(database *db.Database, alerts ports.AlertService, cfg *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:     database,
		alerts: alerts,
		config: cfg,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupResolvedAlerts purges alerts resolved before the retention cutoff.
func (p *CleanupProcessor) CleanupResolvedAlerts(ctx context.Context, t *asynq.Task) error {
	purged, err := p.alerts.PurgeResolved(ctx, p.config.Asynq.AlertRetention)
	if err != nil {
		return fmt.Errorf("failed to purge resolved alerts: %w", err)
	}

	p.logger.InfoContext(ctx, "resolved alerts purged",
		slog.Int64("count", purged),
		slog.Duration("retention", p.config.Asynq.AlertRetention))

	return nil
}

// CleanupOldData removes stale audit rows from the database.
func (p *CleanupProcessor) CleanupOldData(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up old data")

	query := `DELETE FROM stock_overrides WHERE created_at < NOW() - INTERVAL '90 days'`

	result, err := p.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to cleanup stock overrides: %w", err)
	}

	p.logger.InfoContext(ctx, "old data cleaned up",
		slog.Int64("rows_deleted", result.RowsAffected()))

	return nil
}
