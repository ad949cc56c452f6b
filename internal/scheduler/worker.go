package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	analyticstransport "clinic_marketing_backend/internal/analytics/transport"
	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/internal/exports"
	followupservice "clinic_marketing_backend/internal/followups/service"
	"clinic_marketing_backend/internal/reports"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
)

// RollupRunner rebuilds marketing_analytics rows.
type RollupRunner interface {
	Rollup(ctx context.Context, date string) (analyticstransport.DailyStatResponse, error)
	RollupRecent(ctx context.Context) error
}

// FollowUpPlanner records the follow-ups that are due.
type FollowUpPlanner interface {
	Plan(ctx context.Context) (followupservice.PlanResult, error)
}

// ReportSender builds and mails the admin report.
type ReportSender interface {
	Send(ctx context.Context, kind reports.Kind) (reports.Result, error)
}

// SnapshotExporter uploads the analytics snapshot.
type SnapshotExporter interface {
	Export(ctx context.Context) (exports.ExportResult, error)
}

// AlertDeliverer mails queued hot lead alerts.
type AlertDeliverer interface {
	DeliverHotLeadAlert(ctx context.Context, alert email.HotLeadAlert) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	rollup   RollupRunner
	planner  FollowUpPlanner
	reports  ReportSender
	exporter SnapshotExporter
	alerts   AlertDeliverer
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		log:    log,
	}

	mux.HandleFunc(TaskAnalyticsRollup, w.handleRollup)
	mux.HandleFunc(TaskFollowUpsPlan, w.handleFollowUpsPlan)
	mux.HandleFunc(TaskReportSend, w.handleReport)
	mux.HandleFunc(TaskExportAnalytics, w.handleExport)
	mux.HandleFunc(TaskHotLeadAlert, w.handleHotLeadAlert)

	return w, nil
}

func (w *Worker) SetRollupRunner(r RollupRunner)         { w.rollup = r }
func (w *Worker) SetFollowUpPlanner(p FollowUpPlanner)   { w.planner = p }
func (w *Worker) SetReportSender(s ReportSender)         { w.reports = s }
func (w *Worker) SetSnapshotExporter(e SnapshotExporter) { w.exporter = e }
func (w *Worker) SetAlertDeliverer(d AlertDeliverer)     { w.alerts = d }

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleRollup(ctx context.Context, task *asynq.Task) error {
	if w.rollup == nil {
		return nil
	}

	payload, err := ParseRollupPayload(task)
	if err != nil {
		return skipRetry(err)
	}

	if payload.Date == "" {
		return finalize(w.rollup.RollupRecent(ctx))
	}
	stat, err := w.rollup.Rollup(ctx, payload.Date)
	if err != nil {
		return finalize(err)
	}
	w.log.Info("analytics rollup complete", "date", stat.Date, "totalLeads", stat.TotalLeads)
	return nil
}

func (w *Worker) handleFollowUpsPlan(ctx context.Context, _ *asynq.Task) error {
	if w.planner == nil {
		return nil
	}
	_, err := w.planner.Plan(ctx)
	return finalize(err)
}

func (w *Worker) handleReport(ctx context.Context, task *asynq.Task) error {
	if w.reports == nil {
		return nil
	}

	payload, err := ParseReportPayload(task)
	if err != nil {
		return skipRetry(err)
	}
	kind, err := reports.ParseKind(payload.Kind)
	if err != nil {
		return skipRetry(err)
	}

	_, err = w.reports.Send(ctx, kind)
	return finalize(err)
}

func (w *Worker) handleExport(ctx context.Context, _ *asynq.Task) error {
	if w.exporter == nil {
		return nil
	}

	_, err := w.exporter.Export(ctx)
	return finalize(err)
}

func (w *Worker) handleHotLeadAlert(ctx context.Context, task *asynq.Task) error {
	if w.alerts == nil {
		return nil
	}

	payload, err := ParseHotLeadAlertPayload(task)
	if err != nil {
		return skipRetry(err)
	}
	return w.alerts.DeliverHotLeadAlert(ctx, payload.Alert())
}

// finalize stops asynq from retrying errors that cannot succeed later.
func finalize(err error) error {
	if err == nil {
		return nil
	}
	switch apperr.GetKind(err) {
	case apperr.KindValidation, apperr.KindBadRequest, apperr.KindNotFound:
		return skipRetry(err)
	}
	return err
}

func skipRetry(err error) error {
	return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
}
