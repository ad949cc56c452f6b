package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"clinic_marketing_backend/internal/adapters/storage"
	"clinic_marketing_backend/internal/analytics"
	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/exports"
	"clinic_marketing_backend/internal/followups"
	"clinic_marketing_backend/internal/notification"
	"clinic_marketing_backend/internal/reports"
	"clinic_marketing_backend/internal/scheduler"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/db"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "reportTimezone", cfg.GetReportLocation().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	sender := email.NewSender(cfg)
	val := validator.New()

	// Worker-side wiring (no HTTP handlers required).
	notificationModule := notification.New(sender, cfg, log)
	analyticsModule := analytics.NewModule(pool, val, cfg, log)
	followupsModule := followups.NewModule(pool, eventBus, val, cfg, log)
	reportsModule := reports.NewModule(analyticsModule.Service(), sender, val, cfg, log)

	worker, err := scheduler.NewWorker(cfg, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}
	worker.SetRollupRunner(analyticsModule.Service())
	worker.SetFollowUpPlanner(followupsModule.Service())
	worker.SetReportSender(reportsModule.Service())
	worker.SetAlertDeliverer(notificationModule)

	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		exportsModule := exports.NewModule(pool, analyticsModule.Service(), storageSvc, cfg.GetMinioBucketAnalyticsExports(), log)
		worker.SetSnapshotExporter(exportsModule.Snapshotter())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; analytics export task disabled")
	}

	periodic, err := scheduler.NewPeriodic(cfg, cfg.GetReportLocation(), log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		if gctx.Err() == nil {
			return errors.New("worker exited")
		}
		return nil
	})
	g.Go(func() error {
		return periodic.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
