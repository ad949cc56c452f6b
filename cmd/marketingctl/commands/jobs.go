package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"clinic_marketing_backend/internal/analytics"
	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/followups"
	"clinic_marketing_backend/internal/reports"
	"clinic_marketing_backend/internal/scheduler"
	"clinic_marketing_backend/platform/validator"
)

var (
	rollupDate  string
	rollupQueue bool
	reportType  string
	reportQueue bool
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Rebuild marketing_analytics rows (today and yesterday, or --date)",
	RunE:  runRollup,
}

var planCmd = &cobra.Command{
	Use:   "plan-follow-ups",
	Short: "Record every follow-up that is due now",
	RunE:  runPlanFollowUps,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build or send the admin report",
}

var reportPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the report as JSON without sending it",
	RunE:  runReportPreview,
}

var reportSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Mail the report to the admin now, or queue it with --queue",
	RunE:  runReportSend,
}

func init() {
	rollupCmd.Flags().StringVar(&rollupDate, "date", "", "UTC day to rebuild (YYYY-MM-DD)")
	rollupCmd.Flags().BoolVar(&rollupQueue, "queue", false, "enqueue on the scheduler instead of running inline")
	reportCmd.PersistentFlags().StringVarP(&reportType, "type", "t", "daily", "report type: daily, weekly or monthly")
	reportSendCmd.Flags().BoolVar(&reportQueue, "queue", false, "enqueue on the scheduler instead of sending inline")

	reportCmd.AddCommand(reportPreviewCmd, reportSendCmd)
	rootCmd.AddCommand(rollupCmd, planCmd, reportCmd)
}

func runRollup(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if rollupQueue {
		client, err := scheduler.NewClient(e.cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		if err := client.EnqueueRollup(ctx, rollupDate); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "rollup queued")
		return nil
	}

	pool, err := e.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := analytics.NewModule(pool, validator.New(), e.cfg, e.log).Service()
	if rollupDate == "" {
		if err := svc.RollupRecent(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "rolled up today and yesterday")
		return nil
	}
	stat, err := svc.Rollup(ctx, rollupDate)
	if err != nil {
		return err
	}
	return printJSON(cmd, stat)
}

func runPlanFollowUps(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pool, err := e.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(e.log)
	defer bus.Wait()

	result, err := followups.NewModule(pool, bus, validator.New(), e.cfg, e.log).Service().Plan(ctx)
	if err != nil {
		return err
	}
	for t, ids := range result.Scheduled {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", t, len(ids))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", result.Total)
	return nil
}

func runReportPreview(cmd *cobra.Command, args []string) error {
	kind, err := reports.ParseKind(reportType)
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pool, err := e.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := reports.New(analytics.NewModule(pool, validator.New(), e.cfg, e.log).Service(), email.NoopSender{}, e.cfg, e.log)
	report, err := svc.Build(ctx, kind)
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}

func runReportSend(cmd *cobra.Command, args []string) error {
	kind, err := reports.ParseKind(reportType)
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if reportQueue {
		client, err := scheduler.NewClient(e.cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		if err := client.EnqueueReport(ctx, string(kind)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s report queued\n", kind)
		return nil
	}

	pool, err := e.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := reports.New(analytics.NewModule(pool, validator.New(), e.cfg, e.log).Service(), email.NewSender(e.cfg), e.cfg, e.log)
	result, err := svc.Send(ctx, kind)
	if err != nil {
		return err
	}
	if !result.Sent {
		fmt.Fprintln(cmd.OutOrStdout(), "smtp not configured; report built but not sent")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s report for %s sent\n", kind, result.Report.Period())
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
