// Package repository runs the read-only aggregation queries and the daily rollup.
package repository

import (
	"context"
	"time"
)

// Repository is the data access contract for analytics.
type Repository interface {
	LeadStats(ctx context.Context, today Range) (LeadStats, error)
	Funnel(ctx context.Context, engagedMessages int) (FunnelCounts, error)
	TopItems(ctx context.Context, column TagColumn, limit int) ([]ItemCount, error)
	DailyRows(ctx context.Context, from, to time.Time) ([]DailyAnalytics, error)
	HotLeads(ctx context.Context, limit int) ([]HotLead, error)
	ScoreDistribution(ctx context.Context, t Thresholds) (ScoreBuckets, error)
	Engagement(ctx context.Context, engagedMessages int) (Engagement, error)
	EventCounts(ctx context.Context, since time.Time) ([]EventCount, error)
	RecentEvents(ctx context.Context, limit int) ([]ConversionEvent, error)
	FollowUpStats(ctx context.Context) ([]FollowUpStat, error)
	// UpsertDaily recomputes one day's row from the source tables.
	UpsertDaily(ctx context.Context, day Range) (DailyAnalytics, error)
}

// TagColumn is a set-valued lead column that can be ranked.
type TagColumn string

const (
	ColumnSurgeries TagColumn = "surgeries_interested"
	ColumnSymptoms  TagColumn = "symptoms"
	ColumnDoctors   TagColumn = "doctors_inquired"
)

func (c TagColumn) valid() bool {
	return c == ColumnSurgeries || c == ColumnSymptoms || c == ColumnDoctors
}
