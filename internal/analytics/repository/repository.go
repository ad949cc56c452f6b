package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"clinic_marketing_backend/platform/db"
)

// dateLayout renders DATE parameters so the session time zone cannot shift them.
const dateLayout = "2006-01-02"

const (
	leadStatsQuery = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE lead_status = 'hot'),
			COUNT(*) FILTER (WHERE lead_status = 'warm'),
			COUNT(*) FILTER (WHERE lead_status = 'cold'),
			COUNT(*) FILTER (WHERE lead_status = 'new'),
			COUNT(*) FILTER (WHERE lead_status = 'converted'),
			COUNT(*) FILTER (WHERE first_contact >= $1 AND first_contact < $2)
		FROM marketing_leads`

	funnelQuery = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE total_messages >= $1),
			COUNT(*) FILTER (WHERE lead_status = 'hot'),
			COUNT(*) FILTER (WHERE booking_intent_detected),
			COUNT(*) FILTER (WHERE lead_status = 'converted')
		FROM marketing_leads`

	// %s is a TagColumn, never user input.
	topItemsQuery = `
		SELECT item, COUNT(*) AS cnt
		FROM marketing_leads, unnest(%s) AS item
		GROUP BY item
		ORDER BY cnt DESC, item ASC
		LIMIT $1`

	dailyRowsQuery = `
		SELECT date, total_leads, hot_leads, booking_intents, follow_ups_sent, follow_up_responses
		FROM marketing_analytics
		WHERE date >= $1::date AND date <= $2::date
		ORDER BY date DESC`

	hotLeadsQuery = `
		SELECT user_id, platform, lead_score, total_messages, symptoms, surgeries_interested,
			doctors_inquired, booking_intent_detected, last_interaction
		FROM marketing_leads
		WHERE lead_status = 'hot'
		ORDER BY last_interaction DESC, user_id ASC
		LIMIT $1`

	scoreDistributionQuery = `
		SELECT
			COUNT(*) FILTER (WHERE lead_score >= $1),
			COUNT(*) FILTER (WHERE lead_score >= $2 AND lead_score < $1),
			COUNT(*) FILTER (WHERE lead_score >= $3 AND lead_score < $2),
			COUNT(*) FILTER (WHERE lead_score < $3)
		FROM marketing_leads`

	engagementQuery = `
		SELECT
			COALESCE(AVG(total_messages), 0)::float8,
			COALESCE(AVG(lead_score), 0)::float8,
			COUNT(*) FILTER (WHERE (first_contact AT TIME ZONE 'UTC')::date <> (last_interaction AT TIME ZONE 'UTC')::date),
			COUNT(*) FILTER (WHERE total_messages >= $1),
			COUNT(*) FILTER (WHERE cardinality(symptoms) > 0),
			COUNT(*) FILTER (WHERE price_inquiry_detected)
		FROM marketing_leads`

	eventCountsQuery = `
		SELECT event_type, COUNT(*) AS cnt
		FROM conversion_events
		WHERE created_at >= $1
		GROUP BY event_type
		ORDER BY cnt DESC, event_type ASC`

	recentEventsQuery = `
		SELECT id::text, user_id, event_type, event_data, created_at
		FROM conversion_events
		ORDER BY created_at DESC, id
		LIMIT $1`

	followUpStatsQuery = `
		SELECT follow_up_type, COUNT(*), COUNT(*) FILTER (WHERE response_received)
		FROM follow_ups
		GROUP BY follow_up_type
		ORDER BY follow_up_type`

	upsertDailyQuery = `
		INSERT INTO marketing_analytics (date, total_leads, hot_leads, booking_intents, follow_ups_sent, follow_up_responses, updated_at)
		SELECT
			$3::date,
			(SELECT COUNT(*) FROM marketing_leads WHERE first_contact >= $1 AND first_contact < $2),
			(SELECT COUNT(DISTINCT user_id) FROM conversion_events
				WHERE event_type = 'became_hot' AND created_at >= $1 AND created_at < $2),
			(SELECT COUNT(DISTINCT user_id) FROM conversion_events
				WHERE event_type = 'booking_intent' AND created_at >= $1 AND created_at < $2),
			(SELECT COUNT(*) FROM follow_ups WHERE sent_at >= $1 AND sent_at < $2),
			(SELECT COUNT(*) FROM follow_ups WHERE response_received AND responded_at >= $1 AND responded_at < $2),
			NOW()
		ON CONFLICT (date) DO UPDATE SET
			total_leads = EXCLUDED.total_leads,
			hot_leads = EXCLUDED.hot_leads,
			booking_intents = EXCLUDED.booking_intents,
			follow_ups_sent = EXCLUDED.follow_ups_sent,
			follow_up_responses = EXCLUDED.follow_up_responses,
			updated_at = EXCLUDED.updated_at
		RETURNING date, total_leads, hot_leads, booking_intents, follow_ups_sent, follow_up_responses`
)

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new analytics repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) LeadStats(ctx context.Context, today Range) (LeadStats, error) {
	var s LeadStats
	if err := r.pool.QueryRow(ctx, leadStatsQuery, today.From, today.To).Scan(
		&s.Total, &s.Hot, &s.Warm, &s.Cold, &s.New, &s.Converted, &s.Today,
	); err != nil {
		return LeadStats{}, db.MapError("analytics.lead_stats", err)
	}
	return s, nil
}

func (r *Repo) Funnel(ctx context.Context, engagedMessages int) (FunnelCounts, error) {
	var f FunnelCounts
	if err := r.pool.QueryRow(ctx, funnelQuery, engagedMessages).Scan(
		&f.Total, &f.Engaged, &f.Hot, &f.BookingIntents, &f.Converted,
	); err != nil {
		return FunnelCounts{}, db.MapError("analytics.funnel", err)
	}
	return f, nil
}

func (r *Repo) TopItems(ctx context.Context, column TagColumn, limit int) ([]ItemCount, error) {
	if !column.valid() {
		return nil, fmt.Errorf("unsupported tag column %q", column)
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(topItemsQuery, column), limit)
	if err != nil {
		return nil, db.MapError("analytics.top_items", err)
	}
	defer rows.Close()

	items := make([]ItemCount, 0)
	for rows.Next() {
		var ic ItemCount
		if err := rows.Scan(&ic.Item, &ic.Count); err != nil {
			return nil, db.MapError("analytics.top_items", err)
		}
		items = append(items, ic)
	}
	if rows.Err() != nil {
		return nil, db.MapError("analytics.top_items", rows.Err())
	}
	return items, nil
}

func (r *Repo) DailyRows(ctx context.Context, from, to time.Time) ([]DailyAnalytics, error) {
	rows, err := r.pool.Query(ctx, dailyRowsQuery, from.UTC().Format(dateLayout), to.UTC().Format(dateLayout))
	if err != nil {
		return nil, db.MapError("analytics.daily", err)
	}
	defer rows.Close()

	items := make([]DailyAnalytics, 0)
	for rows.Next() {
		var d DailyAnalytics
		if err := rows.Scan(&d.Date, &d.TotalLeads, &d.HotLeads, &d.BookingIntents, &d.FollowUpsSent, &d.FollowUpResponses); err != nil {
			return nil, db.MapError("analytics.daily", err)
		}
		items = append(items, d)
	}
	if rows.Err() != nil {
		return nil, db.MapError("analytics.daily", rows.Err())
	}
	return items, nil
}

func (r *Repo) HotLeads(ctx context.Context, limit int) ([]HotLead, error) {
	rows, err := r.pool.Query(ctx, hotLeadsQuery, limit)
	if err != nil {
		return nil, db.MapError("analytics.hot_leads", err)
	}
	defer rows.Close()

	items := make([]HotLead, 0)
	for rows.Next() {
		var h HotLead
		if err := rows.Scan(&h.UserID, &h.Platform, &h.Score, &h.TotalMessages, &h.Symptoms, &h.Surgeries,
			&h.Doctors, &h.BookingIntent, &h.LastInteraction); err != nil {
			return nil, db.MapError("analytics.hot_leads", err)
		}
		items = append(items, h)
	}
	if rows.Err() != nil {
		return nil, db.MapError("analytics.hot_leads", rows.Err())
	}
	return items, nil
}

func (r *Repo) ScoreDistribution(ctx context.Context, t Thresholds) (ScoreBuckets, error) {
	var b ScoreBuckets
	if err := r.pool.QueryRow(ctx, scoreDistributionQuery, t.Hot, t.Warm, t.Cold).Scan(&b.Hot, &b.Warm, &b.Cold, &b.New); err != nil {
		return ScoreBuckets{}, db.MapError("analytics.score_distribution", err)
	}
	return b, nil
}

func (r *Repo) Engagement(ctx context.Context, engagedMessages int) (Engagement, error) {
	var e Engagement
	if err := r.pool.QueryRow(ctx, engagementQuery, engagedMessages).Scan(
		&e.AvgMessages, &e.AvgScore, &e.ReturnVisitors, &e.MultiMessage, &e.WithSymptoms, &e.WithPriceInquiry,
	); err != nil {
		return Engagement{}, db.MapError("analytics.engagement", err)
	}
	return e, nil
}

func (r *Repo) EventCounts(ctx context.Context, since time.Time) ([]EventCount, error) {
	rows, err := r.pool.Query(ctx, eventCountsQuery, since)
	if err != nil {
		return nil, db.MapError("analytics.event_counts", err)
	}
	defer rows.Close()

	items := make([]EventCount, 0)
	for rows.Next() {
		var ec EventCount
		if err := rows.Scan(&ec.EventType, &ec.Count); err != nil {
			return nil, db.MapError("analytics.event_counts", err)
		}
		items = append(items, ec)
	}
	if rows.Err() != nil {
		return nil, db.MapError("analytics.event_counts", rows.Err())
	}
	return items, nil
}

func (r *Repo) RecentEvents(ctx context.Context, limit int) ([]ConversionEvent, error) {
	rows, err := r.pool.Query(ctx, recentEventsQuery, limit)
	if err != nil {
		return nil, db.MapError("analytics.recent_events", err)
	}
	defer rows.Close()

	items := make([]ConversionEvent, 0)
	for rows.Next() {
		var ev ConversionEvent
		var data []byte
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.EventType, &data, &ev.CreatedAt); err != nil {
			return nil, db.MapError("analytics.recent_events", err)
		}
		ev.Data = map[string]interface{}{}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &ev.Data); err != nil {
				return nil, db.MapError("analytics.recent_events", fmt.Errorf("decode event data: %w", err))
			}
		}
		items = append(items, ev)
	}
	if rows.Err() != nil {
		return nil, db.MapError("analytics.recent_events", rows.Err())
	}
	return items, nil
}

func (r *Repo) FollowUpStats(ctx context.Context) ([]FollowUpStat, error) {
	rows, err := r.pool.Query(ctx, followUpStatsQuery)
	if err != nil {
		return nil, db.MapError("analytics.follow_up_stats", err)
	}
	defer rows.Close()

	items := make([]FollowUpStat, 0)
	for rows.Next() {
		var fs FollowUpStat
		if err := rows.Scan(&fs.FollowUpType, &fs.Sent, &fs.Responded); err != nil {
			return nil, db.MapError("analytics.follow_up_stats", err)
		}
		items = append(items, fs)
	}
	if rows.Err() != nil {
		return nil, db.MapError("analytics.follow_up_stats", rows.Err())
	}
	return items, nil
}

func (r *Repo) UpsertDaily(ctx context.Context, day Range) (DailyAnalytics, error) {
	var d DailyAnalytics
	if err := r.pool.QueryRow(ctx, upsertDailyQuery, day.From, day.To, day.From.UTC().Format(dateLayout)).Scan(
		&d.Date, &d.TotalLeads, &d.HotLeads, &d.BookingIntents, &d.FollowUpsSent, &d.FollowUpResponses,
	); err != nil {
		return DailyAnalytics{}, db.MapError("analytics.rollup", err)
	}
	return d, nil
}
