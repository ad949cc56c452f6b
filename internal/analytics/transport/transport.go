package transport

import "time"

type LimitRequest struct {
	Limit int `form:"limit"`
}

type DaysRequest struct {
	Days int `form:"days"`
}

type RollupRequest struct {
	// Date is YYYY-MM-DD; empty means today.
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type LeadStatsResponse struct {
	Total     int `json:"total"`
	Hot       int `json:"hot"`
	Warm      int `json:"warm"`
	Cold      int `json:"cold"`
	New       int `json:"new"`
	Converted int `json:"converted"`
	Today     int `json:"today"`
}

type FunnelStages struct {
	TotalLeads     int `json:"totalLeads"`
	EngagedLeads   int `json:"engagedLeads"`
	HotLeads       int `json:"hotLeads"`
	BookingIntents int `json:"bookingIntents"`
	Converted      int `json:"converted"`
}

type FunnelRates struct {
	Engagement    float64 `json:"engagement"`
	Hot           float64 `json:"hot"`
	BookingIntent float64 `json:"bookingIntent"`
	Conversion    float64 `json:"conversion"`
}

type FunnelResponse struct {
	Funnel          FunnelStages `json:"funnel"`
	ConversionRates FunnelRates  `json:"conversionRates"`
}

type ItemCountResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type DailyStatResponse struct {
	Date              string `json:"date"`
	TotalLeads        int    `json:"totalLeads"`
	HotLeads          int    `json:"hotLeads"`
	BookingIntents    int    `json:"bookingIntents"`
	FollowUpsSent     int    `json:"followUpsSent"`
	FollowUpResponses int    `json:"followUpResponses"`
}

type HotLeadResponse struct {
	UserID          string    `json:"userId"`
	Platform        string    `json:"platform"`
	LeadScore       int       `json:"leadScore"`
	TotalMessages   int       `json:"totalMessages"`
	Symptoms        []string  `json:"symptoms"`
	Surgeries       []string  `json:"surgeries"`
	Doctors         []string  `json:"doctors"`
	BookingIntent   bool      `json:"bookingIntent"`
	LastInteraction time.Time `json:"lastInteraction"`
}

type ScoreBucketResponse struct {
	Status string `json:"status"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Count  int    `json:"count"`
}

type EngagementResponse struct {
	AvgMessagesPerLead float64 `json:"avgMessagesPerLead"`
	AvgScore           float64 `json:"avgScore"`
	ReturnVisitors     int     `json:"returnVisitors"`
	MultiMessageLeads  int     `json:"multiMessageLeads"`
	LeadsWithSymptoms  int     `json:"leadsWithSymptoms"`
	PriceInquiries     int     `json:"priceInquiries"`
}

type EventCountResponse struct {
	EventType string `json:"eventType"`
	Count     int    `json:"count"`
}

type EventCountsResponse struct {
	Days   int                  `json:"days"`
	Counts []EventCountResponse `json:"counts"`
}

type ConversionEventResponse struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	EventType string                 `json:"eventType"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"createdAt"`
}

type FollowUpStatResponse struct {
	FollowUpType string  `json:"followUpType"`
	Sent         int     `json:"sent"`
	Responded    int     `json:"responded"`
	ResponseRate float64 `json:"responseRate"`
}

type DashboardResponse struct {
	Stats        LeadStatsResponse   `json:"stats"`
	Funnel       FunnelResponse      `json:"funnel"`
	TopSurgeries []ItemCountResponse `json:"topSurgeries"`
	DailyStats   []DailyStatResponse `json:"dailyStats"`
	HotLeads     []HotLeadResponse   `json:"hotLeads"`
	GeneratedAt  time.Time           `json:"generatedAt"`
}
