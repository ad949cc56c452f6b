// Package service computes dashboard aggregations over leads, events and
// follow-ups, and maintains the daily rollup table.
package service

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"clinic_marketing_backend/internal/analytics/repository"
	"clinic_marketing_backend/internal/analytics/transport"
	"clinic_marketing_backend/internal/leads/domain"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
)

// engagedMessages is the message count at which a lead counts as engaged.
const engagedMessages = 3

const dayLayout = "2006-01-02"

// Service provides analytics queries.
type Service struct {
	repo    repository.Repository
	timeout time.Duration
	log     *logger.Logger
	now     func() time.Time
}

// New creates a new analytics service.
func New(repo repository.Repository, cfg config.StoreConfig, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		timeout: cfg.GetStoreTimeout(),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LeadStats counts leads by status plus those first seen today (UTC).
func (s *Service) LeadStats(ctx context.Context) (transport.LeadStatsResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	st, err := s.repo.LeadStats(ctx, dayRange(s.today()))
	if err != nil {
		return transport.LeadStatsResponse{}, err
	}
	return transport.LeadStatsResponse{
		Total: st.Total, Hot: st.Hot, Warm: st.Warm, Cold: st.Cold,
		New: st.New, Converted: st.Converted, Today: st.Today,
	}, nil
}

// ConversionFunnel counts leads per stage with each stage's share of the total.
func (s *Service) ConversionFunnel(ctx context.Context) (transport.FunnelResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := s.repo.Funnel(ctx, engagedMessages)
	if err != nil {
		return transport.FunnelResponse{}, err
	}
	return toFunnelResponse(f), nil
}

// TopSurgeries ranks surgeries by the number of interested leads.
func (s *Service) TopSurgeries(ctx context.Context, limit int) ([]transport.ItemCountResponse, error) {
	return s.topItems(ctx, repository.ColumnSurgeries, limit)
}

// TopSymptoms ranks symptoms by the number of leads reporting them.
func (s *Service) TopSymptoms(ctx context.Context, limit int) ([]transport.ItemCountResponse, error) {
	return s.topItems(ctx, repository.ColumnSymptoms, limit)
}

// DailyStats returns exactly days rows, most recent first. Days without a
// rollup row are zero.
func (s *Service) DailyStats(ctx context.Context, days int) ([]transport.DailyStatResponse, error) {
	days = dailyDays.normalize(days)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	today := s.today()
	from := today.AddDate(0, 0, -(days - 1))
	rows, err := s.repo.DailyRows(ctx, from, today)
	if err != nil {
		return nil, err
	}
	return zeroFill(rows, today, days), nil
}

// RecentHotLeads lists hot leads, most recently active first.
func (s *Service) RecentHotLeads(ctx context.Context, limit int) ([]transport.HotLeadResponse, error) {
	limit = hotLeadsLimit.normalize(limit)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	leads, err := s.repo.HotLeads(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.HotLeadResponse, 0, len(leads))
	for _, h := range leads {
		out = append(out, transport.HotLeadResponse{
			UserID:          h.UserID,
			Platform:        h.Platform,
			LeadScore:       h.Score,
			TotalMessages:   h.TotalMessages,
			Symptoms:        nonNil(h.Symptoms),
			Surgeries:       nonNil(h.Surgeries),
			Doctors:         nonNil(h.Doctors),
			BookingIntent:   h.BookingIntent,
			LastInteraction: h.LastInteraction,
		})
	}
	return out, nil
}

// ScoreDistribution buckets leads with the same thresholds that drive status.
func (s *Service) ScoreDistribution(ctx context.Context) ([]transport.ScoreBucketResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.repo.ScoreDistribution(ctx, repository.Thresholds{
		Hot:  domain.HotThreshold,
		Warm: domain.WarmThreshold,
		Cold: domain.ColdThreshold,
	})
	if err != nil {
		return nil, err
	}
	return []transport.ScoreBucketResponse{
		{Status: string(domain.StatusHot), Min: domain.HotThreshold, Max: 100, Count: b.Hot},
		{Status: string(domain.StatusWarm), Min: domain.WarmThreshold, Max: domain.HotThreshold - 1, Count: b.Warm},
		{Status: string(domain.StatusCold), Min: domain.ColdThreshold, Max: domain.WarmThreshold - 1, Count: b.Cold},
		{Status: string(domain.StatusNew), Min: 0, Max: domain.ColdThreshold - 1, Count: b.New},
	}, nil
}

// EngagementMetrics summarizes conversation depth across all leads.
func (s *Service) EngagementMetrics(ctx context.Context) (transport.EngagementResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := s.repo.Engagement(ctx, engagedMessages)
	if err != nil {
		return transport.EngagementResponse{}, err
	}
	return transport.EngagementResponse{
		AvgMessagesPerLead: round2(e.AvgMessages),
		AvgScore:           round2(e.AvgScore),
		ReturnVisitors:     e.ReturnVisitors,
		MultiMessageLeads:  e.MultiMessage,
		LeadsWithSymptoms:  e.WithSymptoms,
		PriceInquiries:     e.WithPriceInquiry,
	}, nil
}

// EventCounts tallies conversion events by type over the trailing window.
func (s *Service) EventCounts(ctx context.Context, days int) (transport.EventCountsResponse, error) {
	days = eventWindowDays.normalize(days)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	since := s.today().AddDate(0, 0, -(days - 1))
	counts, err := s.repo.EventCounts(ctx, since)
	if err != nil {
		return transport.EventCountsResponse{}, err
	}
	out := transport.EventCountsResponse{Days: days, Counts: make([]transport.EventCountResponse, 0, len(counts))}
	for _, c := range counts {
		out.Counts = append(out.Counts, transport.EventCountResponse{EventType: c.EventType, Count: c.Count})
	}
	return out, nil
}

// RecentConversionEvents lists the latest funnel milestones.
func (s *Service) RecentConversionEvents(ctx context.Context, limit int) ([]transport.ConversionEventResponse, error) {
	limit = recentEventsLimit.normalize(limit)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	evs, err := s.repo.RecentEvents(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ConversionEventResponse, 0, len(evs))
	for _, ev := range evs {
		out = append(out, transport.ConversionEventResponse{
			ID: ev.ID, UserID: ev.UserID, EventType: ev.EventType, Data: ev.Data, CreatedAt: ev.CreatedAt,
		})
	}
	return out, nil
}

// FollowUpEffectiveness reports sent and answered follow-ups per type.
func (s *Service) FollowUpEffectiveness(ctx context.Context) ([]transport.FollowUpStatResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stats, err := s.repo.FollowUpStats(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.FollowUpStatResponse, 0, len(stats))
	for _, st := range stats {
		out = append(out, transport.FollowUpStatResponse{
			FollowUpType: st.FollowUpType,
			Sent:         st.Sent,
			Responded:    st.Responded,
			ResponseRate: rate(st.Responded, st.Sent),
		})
	}
	return out, nil
}

// Dashboard fetches the overview panels concurrently.
func (s *Service) Dashboard(ctx context.Context) (transport.DashboardResponse, error) {
	var resp transport.DashboardResponse
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		st, err := s.LeadStats(gctx)
		resp.Stats = st
		return err
	})
	g.Go(func() error {
		f, err := s.ConversionFunnel(gctx)
		resp.Funnel = f
		return err
	})
	g.Go(func() error {
		top, err := s.TopSurgeries(gctx, topItemsLimit.def)
		resp.TopSurgeries = top
		return err
	})
	g.Go(func() error {
		daily, err := s.DailyStats(gctx, dailyDays.def)
		resp.DailyStats = daily
		return err
	})
	g.Go(func() error {
		hot, err := s.RecentHotLeads(gctx, hotLeadsLimit.def)
		resp.HotLeads = hot
		return err
	})

	if err := g.Wait(); err != nil {
		return transport.DashboardResponse{}, err
	}
	resp.GeneratedAt = s.now()
	return resp, nil
}

// Rollup recomputes the daily analytics row for date (YYYY-MM-DD, UTC).
// An empty date means today. Running it again for the same day is harmless.
func (s *Service) Rollup(ctx context.Context, date string) (transport.DailyStatResponse, error) {
	day := s.today()
	if date != "" {
		parsed, err := time.ParseInLocation(dayLayout, date, time.UTC)
		if err != nil {
			return transport.DailyStatResponse{}, apperr.Validation("date must be YYYY-MM-DD").WithOp("analytics.rollup")
		}
		if parsed.After(day) {
			return transport.DailyStatResponse{}, apperr.Validation("date is in the future").WithOp("analytics.rollup")
		}
		day = parsed
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	row, err := s.repo.UpsertDaily(ctx, dayRange(day))
	if err != nil {
		return transport.DailyStatResponse{}, err
	}
	s.log.Info("daily analytics rolled up", "date", day.Format(dayLayout),
		"total_leads", row.TotalLeads, "hot_leads", row.HotLeads)
	return toDailyStat(day, row), nil
}

// RollupRecent recomputes today and yesterday; late events land in the right day.
func (s *Service) RollupRecent(ctx context.Context) error {
	today := s.today()
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		if _, err := s.Rollup(ctx, day.Format(dayLayout)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) topItems(ctx context.Context, column repository.TagColumn, limit int) ([]transport.ItemCountResponse, error) {
	limit = topItemsLimit.normalize(limit)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.TopItems(ctx, column, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ItemCountResponse, 0, len(items))
	for _, it := range items {
		out = append(out, transport.ItemCountResponse{Name: it.Item, Count: it.Count})
	}
	return out, nil
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func dayRange(day time.Time) repository.Range {
	return repository.Range{From: day, To: day.AddDate(0, 0, 1)}
}

func toFunnelResponse(f repository.FunnelCounts) transport.FunnelResponse {
	return transport.FunnelResponse{
		Funnel: transport.FunnelStages{
			TotalLeads:     f.Total,
			EngagedLeads:   f.Engaged,
			HotLeads:       f.Hot,
			BookingIntents: f.BookingIntents,
			Converted:      f.Converted,
		},
		ConversionRates: transport.FunnelRates{
			Engagement:    rate(f.Engaged, f.Total),
			Hot:           rate(f.Hot, f.Total),
			BookingIntent: rate(f.BookingIntents, f.Total),
			Conversion:    rate(f.Converted, f.Total),
		},
	}
}

func zeroFill(rows []repository.DailyAnalytics, today time.Time, days int) []transport.DailyStatResponse {
	byDate := make(map[string]repository.DailyAnalytics, len(rows))
	for _, r := range rows {
		byDate[r.Date.UTC().Format(dayLayout)] = r
	}

	out := make([]transport.DailyStatResponse, 0, days)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -i)
		out = append(out, toDailyStat(day, byDate[day.Format(dayLayout)]))
	}
	return out
}

func toDailyStat(day time.Time, r repository.DailyAnalytics) transport.DailyStatResponse {
	return transport.DailyStatResponse{
		Date:              day.Format(dayLayout),
		TotalLeads:        r.TotalLeads,
		HotLeads:          r.HotLeads,
		BookingIntents:    r.BookingIntents,
		FollowUpsSent:     r.FollowUpsSent,
		FollowUpResponses: r.FollowUpResponses,
	}
}

// rate is part as a percentage of total, two decimals; 0 when total is 0.
func rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
