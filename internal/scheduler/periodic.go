package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"clinic_marketing_backend/internal/reports"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
)

// periodicUniqueTTL keeps a slow worker from piling up copies of one entry.
const periodicUniqueTTL = 30 * time.Minute

// PeriodicEntry is one cron-driven task.
type PeriodicEntry struct {
	Name string
	Cron string
	Task *asynq.Task
}

// Periodic enqueues the recurring jobs on their cron schedules.
type Periodic struct {
	scheduler *asynq.Scheduler
	queue     string
	entries   []PeriodicEntry
	log       *logger.Logger
}

// PeriodicEntries lists the recurring jobs. Entries with an empty cron are
// disabled.
func PeriodicEntries(cfg config.SchedulerConfig) ([]PeriodicEntry, error) {
	rollup, err := NewRollupTask(RollupPayload{})
	if err != nil {
		return nil, err
	}
	entries := []PeriodicEntry{
		{Name: "analytics rollup", Cron: cfg.GetRollupCron(), Task: rollup},
		{Name: "follow-up plan", Cron: cfg.GetFollowUpCron(), Task: NewFollowUpsPlanTask()},
		{Name: "analytics export", Cron: cfg.GetExportCron(), Task: NewExportAnalyticsTask()},
	}

	reportCrons := map[reports.Kind]string{
		reports.KindDaily:   cfg.GetDailyReportCron(),
		reports.KindWeekly:  cfg.GetWeeklyReportCron(),
		reports.KindMonthly: cfg.GetMonthlyReportCron(),
	}
	for _, kind := range reports.AllKinds() {
		task, err := NewReportTask(ReportPayload{Kind: string(kind)})
		if err != nil {
			return nil, err
		}
		entries = append(entries, PeriodicEntry{Name: string(kind) + " report", Cron: reportCrons[kind], Task: task})
	}

	active := make([]PeriodicEntry, 0, len(entries))
	for _, e := range entries {
		e.Cron = strings.TrimSpace(e.Cron)
		if e.Cron != "" {
			active = append(active, e)
		}
	}
	return active, nil
}

// NewPeriodic builds the cron scheduler. Cron specs are read in loc.
func NewPeriodic(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	entries, err := PeriodicEntries(cfg)
	if err != nil {
		return nil, err
	}

	if loc == nil {
		loc = time.UTC
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: loc,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				log.Warn("periodic enqueue failed", "error", err)
			}
		},
	})

	return &Periodic{
		scheduler: scheduler,
		queue:     queueName(cfg),
		entries:   entries,
		log:       log,
	}, nil
}

// Run registers every entry and blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	for _, e := range p.entries {
		id, err := p.scheduler.Register(e.Cron, e.Task, asynq.Queue(p.queue), asynq.Unique(periodicUniqueTTL))
		if err != nil {
			return fmt.Errorf("register %s (%q): %w", e.Name, e.Cron, err)
		}
		p.log.Info("periodic task registered", "name", e.Name, "cron", e.Cron, "task", e.Task.Type(), "entryId", id)
	}

	if err := p.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
