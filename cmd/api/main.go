// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jaiswal09/medstock-be/internal/adapters/db"
	redis_a "github.com/jaiswal09/medstock-be/internal/adapters/redis_adapter"
	"github.com/jaiswal09/medstock-be/internal/adapters/ws"
	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/services"
	"github.com/jaiswal09/medstock-be/internal/events"
	"github.com/jaiswal09/medstock-be/internal/handlers"
	"github.com/jaiswal09/medstock-be/internal/handlers/middleware"
	"github.com/jaiswal09/medstock-be/internal/pkg/config"
	"github.com/jaiswal09/medstock-be/internal/pkg/logger"
	"github.com/jaiswal09/medstock-be/internal/realtime"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting medstock inventory system",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if cfg.App.Environment != "production" {
		if err := runMigrations(ctx, cfg, slogger.Logger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			// Keep going in development; the schema may already be current.
		}
	}

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		// Stop the HTTP server first so no new subscribers arrive, then the
		// bus so every websocket write loop sees its channel close.
		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}
		if err := deps.bus.Stop(shutdownCtx); err != nil {
			slogger.Error("failed to stop event bus", slog.String("error", err.Error()))
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database           *db.Database
	redisClient        *redis.Client
	asynqInspector     *asynq.Inspector
	bus                *events.Bus
	invalidatorCancel  func()
	inventoryHandler   *handlers.InventoryHandler
	transactionHandler *handlers.TransactionHandler
	billHandler        *handlers.BillHandler
	alertHandler       *handlers.AlertHandler
	healthHandler      *handlers.HealthHandler
	hub                *ws.Hub
}

func (d *dependencies) cleanup() {
	if d.invalidatorCancel != nil {
		d.invalidatorCancel()
	}
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	deps.asynqInspector = asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	})

	// Event bus
	bus := events.NewBus(cfg.Broadcast.BufferSize, logger)
	if err := bus.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start event bus: %w", err)
	}
	deps.bus = bus

	// Repositories
	inventoryRepo := db.NewInventoryRepository(database, logger)
	ledgerRepo := db.NewLedgerRepository(database, logger)
	transactionRepo := db.NewTransactionRepository(database, logger)
	billRepo := db.NewBillRepository(database, logger)
	alertRepo := db.NewAlertRepository(database, logger)

	// Services
	alertService := services.NewAlertService(alertRepo, inventoryRepo, bus, logger)
	inventoryService := services.NewInventoryService(inventoryRepo, alertService, cache, bus, cfg.Redis.TTL, logger)
	ledgerService := services.NewLedgerService(ledgerRepo, inventoryRepo, billRepo, transactionRepo, alertService, bus, logger)

	// In-process cache invalidation: every published change event wipes the
	// cache groups it makes stale.
	invalidator := realtime.NewInvalidator(cache, logger)
	eventCh, cancel := bus.Subscribe()
	deps.invalidatorCancel = cancel
	go func() {
		for event := range eventCh {
			invalidator.Handle(ctx, domain.WireEnvelope(event))
		}
	}()

	// Handlers
	deps.inventoryHandler = handlers.NewInventoryHandler(inventoryService, ledgerService, logger)
	deps.transactionHandler = handlers.NewTransactionHandler(ledgerService, logger)
	deps.billHandler = handlers.NewBillHandler(ledgerService, logger)
	deps.alertHandler = handlers.NewAlertHandler(alertService, logger)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, logger)
	deps.hub = ws.NewHub(bus, cfg.Broadcast, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, slogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()

	var handler http.Handler = mux

	// Apply middleware in reverse order (innermost first)
	if cfg.App.Environment != "test" {
		handler = middleware.RequestID(handler)
		handler = middleware.Logger(slogger)(handler)
		handler = middleware.Recovery(slogger.Logger)(handler)
	}

	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}

	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}

	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	registerRoutes(mux, deps, cfg)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	// Health and readiness endpoints
	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)

	// Inventory endpoints
	mux.HandleFunc("GET "+apiV1+"/inventory/{id}", deps.inventoryHandler.GetItem)
	mux.HandleFunc("GET "+apiV1+"/inventory", deps.inventoryHandler.ListItems)
	mux.HandleFunc("POST "+apiV1+"/inventory", deps.inventoryHandler.CreateItem)
	mux.HandleFunc("PUT "+apiV1+"/inventory/{id}", deps.inventoryHandler.UpdateItem)
	mux.HandleFunc("DELETE "+apiV1+"/inventory/{id}", deps.inventoryHandler.DeleteItem)
	mux.HandleFunc("PATCH "+apiV1+"/inventory/{id}/quantity", deps.inventoryHandler.SetQuantity)

	// Transaction endpoints
	mux.HandleFunc("POST "+apiV1+"/transactions", deps.transactionHandler.CreateTransaction)
	mux.HandleFunc("GET "+apiV1+"/transactions", deps.transactionHandler.ListTransactions)
	mux.HandleFunc("GET "+apiV1+"/transactions/{id}", deps.transactionHandler.GetTransaction)
	mux.HandleFunc("POST "+apiV1+"/transactions/{id}/complete", deps.transactionHandler.CompleteTransaction)

	// Bill endpoints
	mux.HandleFunc("POST "+apiV1+"/bills", deps.billHandler.CreateBill)
	mux.HandleFunc("GET "+apiV1+"/bills", deps.billHandler.ListBills)
	mux.HandleFunc("GET "+apiV1+"/bills/{id}", deps.billHandler.GetBill)
	mux.HandleFunc("PUT "+apiV1+"/bills/{id}", deps.billHandler.UpdateBill)
	mux.HandleFunc("DELETE "+apiV1+"/bills/{id}", deps.billHandler.DeleteBill)

	// Alert endpoints
	mux.HandleFunc("GET "+apiV1+"/alerts", deps.alertHandler.ListAlerts)
	mux.HandleFunc("GET "+apiV1+"/alerts/{id}", deps.alertHandler.GetAlert)
	mux.HandleFunc("PATCH "+apiV1+"/alerts/{id}/acknowledge", deps.alertHandler.AcknowledgeAlert)
	mux.HandleFunc("PATCH "+apiV1+"/alerts/{id}/resolve", deps.alertHandler.ResolveAlert)
	mux.HandleFunc("PATCH "+apiV1+"/alerts/bulk/acknowledge", deps.alertHandler.BulkAcknowledge)
	mux.HandleFunc("POST "+apiV1+"/alerts/check/auto", deps.alertHandler.RunCheck)

	// Change stream
	mux.Handle("GET "+apiV1+"/stream", deps.hub)

	// pprof endpoints (development only)
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
