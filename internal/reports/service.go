// Package reports builds the periodic marketing report and mails it to the
// clinic admin.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"clinic_marketing_backend/internal/analytics/transport"
	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
)

// Kind selects the report window.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// AllKinds lists the supported report kinds.
func AllKinds() []Kind {
	return []Kind{KindDaily, KindWeekly, KindMonthly}
}

// ParseKind accepts a kind name; empty means daily.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindDaily:
		return KindDaily, nil
	case KindWeekly:
		return KindWeekly, nil
	case KindMonthly:
		return KindMonthly, nil
	}
	return "", apperr.Validation("invalid report type").
		WithDetails(map[string]interface{}{"type": raw, "allowed": AllKinds()}).
		WithOp("reports.parse_kind")
}

// Days is the number of full days the report covers, ending yesterday.
func (k Kind) Days() int {
	switch k {
	case KindWeekly:
		return 7
	case KindMonthly:
		return 30
	default:
		return 1
	}
}

func (k Kind) topSurgeries() int {
	if k == KindMonthly {
		return 10
	}
	return 5
}

const hotLeadsInReport = 10

// AnalyticsReader is the analytics surface a report reads.
type AnalyticsReader interface {
	DailyStats(ctx context.Context, days int) ([]transport.DailyStatResponse, error)
	ConversionFunnel(ctx context.Context) (transport.FunnelResponse, error)
	TopSurgeries(ctx context.Context, limit int) ([]transport.ItemCountResponse, error)
	RecentHotLeads(ctx context.Context, limit int) ([]transport.HotLeadResponse, error)
	EngagementMetrics(ctx context.Context) (transport.EngagementResponse, error)
}

// Result is what one Send call produced.
type Result struct {
	Report email.Report
	Sent   bool
}

// Service builds and mails reports.
type Service struct {
	analytics  AnalyticsReader
	sender     email.Sender
	adminEmail string
	enabled    bool
	log        *logger.Logger
}

// New creates a report service.
func New(analytics AnalyticsReader, sender email.Sender, cfg config.SMTPConfig, log *logger.Logger) *Service {
	return &Service{
		analytics:  analytics,
		sender:     sender,
		adminEmail: strings.TrimSpace(cfg.GetAdminReportEmail()),
		enabled:    cfg.IsSMTPEnabled(),
		log:        log,
	}
}

// Build assembles the report for kind without sending it.
func (s *Service) Build(ctx context.Context, kind Kind) (email.Report, error) {
	report, _, err := s.build(ctx, kind)
	return report, err
}

func (s *Service) build(ctx context.Context, kind Kind) (email.Report, []transport.DailyStatResponse, error) {
	var (
		daily      []transport.DailyStatResponse
		funnel     transport.FunnelResponse
		surgeries  []transport.ItemCountResponse
		hot        []transport.HotLeadResponse
		engagement transport.EngagementResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		// one extra day: the first row is today, which is still open
		daily, err = s.analytics.DailyStats(gctx, kind.Days()+1)
		return err
	})
	g.Go(func() error {
		var err error
		funnel, err = s.analytics.ConversionFunnel(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		surgeries, err = s.analytics.TopSurgeries(gctx, kind.topSurgeries())
		return err
	})
	g.Go(func() error {
		var err error
		hot, err = s.analytics.RecentHotLeads(gctx, hotLeadsInReport)
		return err
	})
	g.Go(func() error {
		var err error
		engagement, err = s.analytics.EngagementMetrics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return email.Report{}, nil, err
	}

	report := email.Report{
		Kind:          string(kind),
		AvgMessages:   engagement.AvgMessagesPerLead,
		AvgScore:      engagement.AvgScore,
		HighlyEngaged: engagement.MultiMessageLeads,
		Funnel:        funnelLines(funnel),
	}

	days := closedDays(daily)
	if len(days) > 0 {
		report.To = days[0].Date
		report.From = days[len(days)-1].Date
	}
	for _, d := range days {
		report.TotalLeads += d.TotalLeads
		report.HotLeads += d.HotLeads
		report.BookingIntents += d.BookingIntents
		report.FollowUpsSent += d.FollowUpsSent
		report.FollowUpResponses += d.FollowUpResponses
	}

	for _, item := range surgeries {
		report.TopSurgeries = append(report.TopSurgeries, email.RankedItem{Name: item.Name, Count: item.Count})
	}
	for _, h := range hot {
		report.RecentHotLeads = append(report.RecentHotLeads, email.LeadLine{
			UserID:    h.UserID,
			Platform:  h.Platform,
			Score:     h.LeadScore,
			Interests: strings.Join(append(append([]string{}, h.Surgeries...), h.Symptoms...), ", "),
		})
	}
	return report, days, nil
}

// Send builds the report and mails it to the admin with the per-day rows
// attached as CSV. With SMTP disabled the report is built and logged only.
func (s *Service) Send(ctx context.Context, kind Kind) (Result, error) {
	report, days, err := s.build(ctx, kind)
	if err != nil {
		return Result{}, err
	}

	if !s.enabled {
		s.log.Info("smtp disabled, report not sent",
			"kind", kind, "period", report.Period(), "totalLeads", report.TotalLeads, "hotLeads", report.HotLeads)
		return Result{Report: report}, nil
	}

	attachment, err := dailyCSV(kind, days)
	if err != nil {
		return Result{}, err
	}
	if err := s.sender.SendReport(ctx, s.adminEmail, report, attachment); err != nil {
		s.log.Error("failed to send report", "kind", kind, "error", err)
		return Result{}, apperr.Wrap(apperr.KindUnavailable, "report delivery failed", err).WithOp("reports.send")
	}
	s.log.Info("report sent", "kind", kind, "period", report.Period())
	return Result{Report: report, Sent: true}, nil
}

func dailyCSV(kind Kind, days []transport.DailyStatResponse) (email.Attachment, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"date", "total_leads", "hot_leads", "booking_intents", "follow_ups_sent", "follow_up_responses"})
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		_ = writer.Write([]string{
			d.Date,
			strconv.Itoa(d.TotalLeads),
			strconv.Itoa(d.HotLeads),
			strconv.Itoa(d.BookingIntents),
			strconv.Itoa(d.FollowUpsSent),
			strconv.Itoa(d.FollowUpResponses),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return email.Attachment{}, apperr.Wrap(apperr.KindInternal, "build report attachment", err)
	}

	name := string(kind) + "-report"
	if len(days) > 0 {
		name += "-" + days[0].Date
	}
	return email.Attachment{Content: buf.Bytes(), FileName: name + ".csv", MIMEType: "text/csv"}, nil
}

// closedDays drops today from a newest-first daily series.
func closedDays(daily []transport.DailyStatResponse) []transport.DailyStatResponse {
	if len(daily) <= 1 {
		return nil
	}
	return daily[1:]
}

func funnelLines(f transport.FunnelResponse) []email.FunnelLine {
	total := 0.0
	if f.Funnel.TotalLeads > 0 {
		total = 100
	}
	return []email.FunnelLine{
		{Label: "Total leads", Count: f.Funnel.TotalLeads, Rate: total},
		{Label: "Engaged", Count: f.Funnel.EngagedLeads, Rate: f.ConversionRates.Engagement},
		{Label: "Hot", Count: f.Funnel.HotLeads, Rate: f.ConversionRates.Hot},
		{Label: "Booking intent", Count: f.Funnel.BookingIntents, Rate: f.ConversionRates.BookingIntent},
		{Label: "Converted", Count: f.Funnel.Converted, Rate: f.ConversionRates.Conversion},
	}
}
