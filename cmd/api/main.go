package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/internal/adapters/storage"
	"clinic_marketing_backend/internal/aiconfig"
	"clinic_marketing_backend/internal/analytics"
	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/exports"
	"clinic_marketing_backend/internal/followups"
	apphttp "clinic_marketing_backend/internal/http"
	"clinic_marketing_backend/internal/http/router"
	"clinic_marketing_backend/internal/leads"
	"clinic_marketing_backend/internal/notification"
	"clinic_marketing_backend/internal/reports"
	"clinic_marketing_backend/internal/scheduler"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/db"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

const shutdownTimeout = 10 * time.Second

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Shared validator instance for dependency injection
	val := validator.New()

	// The agent config doubles as the scorer's live weights source
	aiconfigModule := aiconfig.NewModule(pool, val, eventBus, cfg, log)

	if err := withRetry(ctx, log, "database provisioning", 5, 2*time.Second, func() error {
		res, err := aiconfig.Provision(ctx, func(ctx context.Context) ([]int64, error) {
			return db.RunMigrations(ctx, cfg)
		}, aiconfigModule.Service())
		if err == nil && len(res.Applied) > 0 {
			log.Info("database migrations applied", "versions", res.Applied)
		}
		return err
	}); err != nil {
		log.Error("failed to provision database", "error", err)
		panic("failed to provision database: " + err.Error())
	}
	log.Info("database migrations complete")

	alertQueue, closeQueue := initAlertQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	sender := email.NewSender(cfg)
	if !cfg.IsSMTPEnabled() {
		log.Warn("SMTP_HOST or ADMIN_REPORT_EMAIL not configured; admin mail disabled")
	}

	// Analytics snapshots (MinIO); exports answer 503 without it
	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, minioSvc, "analytics-exports", cfg.GetMinioBucketAnalyticsExports())
		storageSvc = minioSvc
		log.Info("storage service initialized", "analyticsExportsBucket", cfg.GetMinioBucketAnalyticsExports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; analytics exports disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, cfg, log)
	if alertQueue != nil {
		notificationModule.SetAlertQueue(alertQueue)
	}
	notificationModule.RegisterHandlers(eventBus)

	leadsModule := leads.NewModule(pool, aiconfigModule.Service(), eventBus, val, cfg, log)
	analyticsModule := analytics.NewModule(pool, val, cfg, log)
	followupsModule := followups.NewModule(pool, eventBus, val, cfg, log)
	exportsModule := exports.NewModule(pool, analyticsModule.Service(), storageSvc, cfg.GetMinioBucketAnalyticsExports(), log)
	reportsModule := reports.NewModule(analyticsModule.Service(), sender, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			leadsModule,
			aiconfigModule,
			analyticsModule,
			followupsModule,
			exportsModule,
			reportsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initAlertQueue(cfg config.SchedulerConfig, log *logger.Logger) (notification.AlertQueue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; hot lead alerts are sent inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
