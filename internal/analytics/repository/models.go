package repository

import "time"

// LeadStats are lead counts by status.
type LeadStats struct {
	Total     int
	Hot       int
	Warm      int
	Cold      int
	New       int
	Converted int
	Today     int
}

// FunnelCounts are lead counts at each funnel stage.
type FunnelCounts struct {
	Total          int
	Engaged        int
	Hot            int
	BookingIntents int
	Converted      int
}

// ItemCount is one tag with the number of leads carrying it.
type ItemCount struct {
	Item  string
	Count int
}

// DailyAnalytics is one row of the daily rollup table.
type DailyAnalytics struct {
	Date              time.Time
	TotalLeads        int
	HotLeads          int
	BookingIntents    int
	FollowUpsSent     int
	FollowUpResponses int
}

// HotLead is the dashboard summary of a hot lead.
type HotLead struct {
	UserID          string
	Platform        string
	Score           int
	TotalMessages   int
	Symptoms        []string
	Surgeries       []string
	Doctors         []string
	BookingIntent   bool
	LastInteraction time.Time
}

// ScoreBuckets counts leads per threshold band.
type ScoreBuckets struct {
	Hot  int
	Warm int
	Cold int
	New  int
}

// Engagement summarizes conversation depth.
type Engagement struct {
	AvgMessages      float64
	AvgScore         float64
	ReturnVisitors   int
	MultiMessage     int
	WithSymptoms     int
	WithPriceInquiry int
}

// EventCount is the number of conversion events of one type.
type EventCount struct {
	EventType string
	Count     int
}

// ConversionEvent is one stored funnel milestone.
type ConversionEvent struct {
	ID        string
	UserID    string
	EventType string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// FollowUpStat is the response tally for one follow-up type.
type FollowUpStat struct {
	FollowUpType string
	Sent         int
	Responded    int
}

// Thresholds are the score band lower bounds used for bucketing.
type Thresholds struct {
	Hot  int
	Warm int
	Cold int
}

// Range is a half-open time interval [From, To).
type Range struct {
	From time.Time
	To   time.Time
}
