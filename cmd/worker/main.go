// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jaiswal09/medstock-be/internal/adapters/db"
	"github.com/jaiswal09/medstock-be/internal/core/services"
	"github.com/jaiswal09/medstock-be/internal/events"
	"github.com/jaiswal09/medstock-be/internal/pkg/config"
	"github.com/jaiswal09/medstock-be/internal/pkg/logger"
	"github.com/jaiswal09/medstock-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()
	database, err := initDatabase(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	// Repositories and services. The worker publishes to its own bus; with no
	// stream subscribers attached the events are simply dropped.
	bus := events.NewBus(cfg.Broadcast.BufferSize, slogger.Logger)
	if err := bus.Start(ctx); err != nil {
		slogger.Error("failed to start event bus", slog.String("error", err.Error()))
		os.Exit(1)
	}

	inventoryRepo := db.NewInventoryRepository(database, slogger.Logger)
	transactionRepo := db.NewTransactionRepository(database, slogger.Logger)
	alertRepo := db.NewAlertRepository(database, slogger.Logger)
	alertService := services.NewAlertService(alertRepo, inventoryRepo, bus, slogger.Logger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     cfg.Asynq.Concurrency,
			Queues:          cfg.Asynq.Queues,
			StrictPriority:  cfg.Asynq.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
			Logger:          newAsynqLogger(slogger.Logger),
		},
	)

	// Task handlers
	mux := asynq.NewServeMux()

	alertProcessor := workers.NewAlertCheckProcessor(alertService, slogger.Logger)
	mux.HandleFunc(workers.TypeAlertCheck, alertProcessor.CheckAlerts)

	overdueProcessor := workers.NewOverdueProcessor(transactionRepo, slogger.Logger)
	mux.HandleFunc(workers.TypeMarkOverdue, overdueProcessor.MarkOverdue)

	cleanupProcessor := workers.NewCleanupProcessor(database, alertService, cfg, slogger.Logger)
	mux.HandleFunc(workers.TypeCleanupResolved, cleanupProcessor.CleanupResolvedAlerts)
	mux.HandleFunc(workers.TypeCleanupOldData, cleanupProcessor.CleanupOldData)

	// Periodic task scheduler
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: newAsynqLogger(slogger.Logger),
	})
	registerSchedules(scheduler, cfg, slogger.Logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			slogger.Error("failed to run scheduler", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	if err := bus.Stop(context.Background()); err != nil {
		slogger.Error("failed to stop event bus", slog.String("error", err.Error()))
	}
	slogger.Info("worker shutdown complete")
}

func registerSchedules(scheduler *asynq.Scheduler, cfg *config.Config, logger *slog.Logger) {
	schedules := []struct {
		spec string
		task *asynq.Task
	}{
		{everySpec(cfg.Asynq.AlertCheckEvery), asynq.NewTask(workers.TypeAlertCheck, nil)},
		{everySpec(cfg.Asynq.OverdueEvery), asynq.NewTask(workers.TypeMarkOverdue, nil)},
		{everySpec(cfg.Asynq.CleanupEvery), asynq.NewTask(workers.TypeCleanupResolved, nil)},
		{everySpec(cfg.Asynq.CleanupEvery), asynq.NewTask(workers.TypeCleanupOldData, nil)},
	}

	for _, s := range schedules {
		entryID, err := scheduler.Register(s.spec, s.task)
		if err != nil {
			logger.Error("failed to register schedule",
				slog.String("task", s.task.Type()),
				slog.String("error", err.Error()))
			continue
		}
		logger.Info("schedule registered",
			slog.String("task", s.task.Type()),
			slog.String("spec", s.spec),
			slog.String("entry_id", entryID))
	}
}

func everySpec(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
