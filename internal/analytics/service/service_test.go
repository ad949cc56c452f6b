package service

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"clinic_marketing_backend/internal/analytics/repository"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/logger"
)

type storeConfig struct{}

func (storeConfig) GetStoreTimeout() time.Duration { return time.Second }

type fakeRepo struct {
	mu        sync.Mutex
	stats     repository.LeadStats
	funnel    repository.FunnelCounts
	items     []repository.ItemCount
	daily     []repository.DailyAnalytics
	hot       []repository.HotLead
	buckets   repository.ScoreBuckets
	followUps []repository.FollowUpStat
	// leadTags holds each lead's tag set per column; TopItems ranks it like the SQL does.
	leadTags  map[repository.TagColumn][][]string
	err       error

	gotLimit  int
	gotColumn repository.TagColumn
	gotFrom   time.Time
	gotTo     time.Time
	upserted  []repository.Range
}

func (f *fakeRepo) LeadStats(context.Context, repository.Range) (repository.LeadStats, error) {
	return f.stats, f.err
}

func (f *fakeRepo) Funnel(context.Context, int) (repository.FunnelCounts, error) {
	return f.funnel, f.err
}

func (f *fakeRepo) TopItems(_ context.Context, column repository.TagColumn, limit int) ([]repository.ItemCount, error) {
	f.mu.Lock()
	f.gotColumn, f.gotLimit = column, limit
	f.mu.Unlock()
	if f.leadTags == nil || f.err != nil {
		return f.items, f.err
	}
	return rankTags(f.leadTags[column], limit), nil
}

func rankTags(leads [][]string, limit int) []repository.ItemCount {
	counts := map[string]int{}
	for _, tags := range leads {
		for _, tag := range tags {
			counts[tag]++
		}
	}
	items := make([]repository.ItemCount, 0, len(counts))
	for item, n := range counts {
		items = append(items, repository.ItemCount{Item: item, Count: n})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Item < items[j].Item
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (f *fakeRepo) DailyRows(_ context.Context, from, to time.Time) ([]repository.DailyAnalytics, error) {
	f.mu.Lock()
	f.gotFrom, f.gotTo = from, to
	f.mu.Unlock()
	return f.daily, f.err
}

func (f *fakeRepo) HotLeads(_ context.Context, limit int) ([]repository.HotLead, error) {
	f.mu.Lock()
	f.gotLimit = limit
	f.mu.Unlock()
	return f.hot, f.err
}

func (f *fakeRepo) ScoreDistribution(context.Context, repository.Thresholds) (repository.ScoreBuckets, error) {
	return f.buckets, f.err
}

func (f *fakeRepo) Engagement(context.Context, int) (repository.Engagement, error) {
	return repository.Engagement{AvgMessages: 2.3333333, AvgScore: 41.666}, f.err
}

func (f *fakeRepo) EventCounts(context.Context, time.Time) ([]repository.EventCount, error) {
	return nil, f.err
}

func (f *fakeRepo) RecentEvents(context.Context, int) ([]repository.ConversionEvent, error) {
	return nil, f.err
}

func (f *fakeRepo) FollowUpStats(context.Context) ([]repository.FollowUpStat, error) {
	return f.followUps, f.err
}

func (f *fakeRepo) UpsertDaily(_ context.Context, day repository.Range) (repository.DailyAnalytics, error) {
	f.mu.Lock()
	f.upserted = append(f.upserted, day)
	f.mu.Unlock()
	return repository.DailyAnalytics{Date: day.From, TotalLeads: 4}, f.err
}

var fixedNow = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func newService(repo *fakeRepo) *Service {
	svc := New(repo, storeConfig{}, logger.NewWithWriter("production", io.Discard))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestFunnelEmptyStoreHasZeroRates(t *testing.T) {
	svc := newService(&fakeRepo{})
	resp, err := svc.ConversionFunnel(context.Background())
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	r := resp.ConversionRates
	if r.Engagement != 0 || r.Hot != 0 || r.BookingIntent != 0 || r.Conversion != 0 {
		t.Fatalf("expected zero rates, got %+v", r)
	}
}

func TestFunnelRatesRoundedToTwoDecimals(t *testing.T) {
	svc := newService(&fakeRepo{funnel: repository.FunnelCounts{Total: 3, Engaged: 2, Hot: 1, BookingIntents: 1, Converted: 0}})
	resp, _ := svc.ConversionFunnel(context.Background())
	if resp.ConversionRates.Engagement != 66.67 || resp.ConversionRates.Hot != 33.33 {
		t.Fatalf("unexpected rates %+v", resp.ConversionRates)
	}
	if resp.Funnel.BookingIntents != 1 {
		t.Fatalf("expected booking intents passed through")
	}
}

func TestDailyStatsZeroFillsWindow(t *testing.T) {
	repo := &fakeRepo{daily: []repository.DailyAnalytics{
		{Date: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), TotalLeads: 5},
		{Date: time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), TotalLeads: 2, HotLeads: 1},
	}}
	svc := newService(repo)

	rows, err := svc.DailyStats(context.Background(), 7)
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[0].Date != "2026-10-14" || rows[6].Date != "2026-10-08" {
		t.Fatalf("unexpected window %s..%s", rows[0].Date, rows[6].Date)
	}
	if rows[0].TotalLeads != 5 || rows[3].TotalLeads != 2 || rows[1].TotalLeads != 0 {
		t.Fatalf("unexpected fill %+v", rows)
	}
	if !repo.gotFrom.Equal(time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected query start %s", repo.gotFrom)
	}
}

func TestDailyStatsDaysBounds(t *testing.T) {
	svc := newService(&fakeRepo{})
	rows, _ := svc.DailyStats(context.Background(), 0)
	if len(rows) != 7 {
		t.Fatalf("expected default of 7 rows, got %d", len(rows))
	}
	rows, _ = svc.DailyStats(context.Background(), 1000)
	if len(rows) != 365 {
		t.Fatalf("expected clamp to 365 rows, got %d", len(rows))
	}
}

func TestTopSurgeriesRanksLeadInterests(t *testing.T) {
	cases := []struct {
		name  string
		leads [][]string
		limit int
		want  []string
	}{
		{
			name:  "counts per lead",
			leads: [][]string{{"A"}, {"A"}, {"B"}, {"C"}, {"A"}, {"B"}},
			limit: 10,
			want:  []string{"A:3", "B:2", "C:1"},
		},
		{
			name:  "ties by name",
			leads: [][]string{{"lasik", "cataract"}, {"yag"}, {"cataract", "yag", "lasik"}},
			limit: 10,
			want:  []string{"cataract:2", "lasik:2", "yag:2"},
		},
		{
			name:  "limit keeps the leaders",
			leads: [][]string{{"A", "B"}, {"B", "C"}, {"B", "D"}, {"A"}},
			limit: 2,
			want:  []string{"B:3", "A:2"},
		},
		{
			name:  "no interests",
			leads: [][]string{{}, {}},
			limit: 5,
			want:  []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{leadTags: map[repository.TagColumn][][]string{repository.ColumnSurgeries: tc.leads}}
			top, err := newService(repo).TopSurgeries(context.Background(), tc.limit)
			if err != nil {
				t.Fatalf("top surgeries: %v", err)
			}
			got := make([]string, 0, len(top))
			for _, it := range top {
				got = append(got, it.Name+":"+strconv.Itoa(it.Count))
			}
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTopSurgeriesLimitNormalized(t *testing.T) {
	repo := &fakeRepo{items: []repository.ItemCount{{Item: "a", Count: 3}, {Item: "b", Count: 2}, {Item: "c", Count: 1}}}
	svc := newService(repo)

	top, err := svc.TopSurgeries(context.Background(), 0)
	if err != nil {
		t.Fatalf("top surgeries: %v", err)
	}
	if repo.gotLimit != 5 || repo.gotColumn != repository.ColumnSurgeries {
		t.Fatalf("expected default limit on surgeries, got %d %s", repo.gotLimit, repo.gotColumn)
	}
	if len(top) != 3 || top[0].Name != "a" || top[0].Count != 3 {
		t.Fatalf("unexpected result %+v", top)
	}

	_, _ = svc.TopSymptoms(context.Background(), 500)
	if repo.gotLimit != 50 || repo.gotColumn != repository.ColumnSymptoms {
		t.Fatalf("expected clamp to 50 on symptoms, got %d %s", repo.gotLimit, repo.gotColumn)
	}
}

func TestScoreDistributionBands(t *testing.T) {
	svc := newService(&fakeRepo{buckets: repository.ScoreBuckets{Hot: 1, Warm: 2, Cold: 3, New: 4}})
	buckets, err := svc.ScoreDistribution(context.Background())
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(buckets) != 4 || buckets[0].Status != "hot" || buckets[0].Min != 80 || buckets[3].Max != 19 {
		t.Fatalf("unexpected buckets %+v", buckets)
	}
}

func TestFollowUpEffectivenessRate(t *testing.T) {
	svc := newService(&fakeRepo{followUps: []repository.FollowUpStat{{FollowUpType: "24h", Sent: 8, Responded: 3}, {FollowUpType: "48h"}}})
	stats, _ := svc.FollowUpEffectiveness(context.Background())
	if stats[0].ResponseRate != 37.5 || stats[1].ResponseRate != 0 {
		t.Fatalf("unexpected rates %+v", stats)
	}
}

func TestDashboardPropagatesStoreError(t *testing.T) {
	svc := newService(&fakeRepo{err: apperr.Unavailable("store timed out")})
	if _, err := svc.Dashboard(context.Background()); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestDashboardCombinesPanels(t *testing.T) {
	svc := newService(&fakeRepo{stats: repository.LeadStats{Total: 9}, hot: []repository.HotLead{{UserID: "u1"}}})
	resp, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if resp.Stats.Total != 9 || len(resp.DailyStats) != 7 || len(resp.HotLeads) != 1 {
		t.Fatalf("unexpected dashboard %+v", resp)
	}
	if resp.HotLeads[0].Symptoms == nil {
		t.Fatalf("expected empty slices, not null")
	}
}

func TestRollupValidatesDate(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	if _, err := svc.Rollup(context.Background(), "14/10/2026"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Rollup(context.Background(), "2026-10-15"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected future date rejected, got %v", err)
	}

	row, err := svc.Rollup(context.Background(), "")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if row.Date != "2026-10-14" || row.TotalLeads != 4 {
		t.Fatalf("unexpected row %+v", row)
	}
	if got := repo.upserted[0]; !got.To.Equal(got.From.Add(24 * time.Hour)) {
		t.Fatalf("expected a one-day range, got %+v", got)
	}
}

func TestRollupRecentCoversYesterday(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	if err := svc.RollupRecent(context.Background()); err != nil {
		t.Fatalf("rollup recent: %v", err)
	}
	if len(repo.upserted) != 2 || repo.upserted[0].From.Day() != 13 || repo.upserted[1].From.Day() != 14 {
		t.Fatalf("unexpected rollup days %+v", repo.upserted)
	}
}

func TestEngagementRounded(t *testing.T) {
	svc := newService(&fakeRepo{})
	e, _ := svc.EngagementMetrics(context.Background())
	if e.AvgMessagesPerLead != 2.33 || e.AvgScore != 41.67 {
		t.Fatalf("unexpected rounding %+v", e)
	}
}
