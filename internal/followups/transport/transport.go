package transport

import (
	"time"

	"github.com/google/uuid"

	"clinic_marketing_backend/internal/followups/domain"
	"clinic_marketing_backend/internal/followups/service"
)

type DueRequest struct {
	Type  string `form:"type" validate:"omitempty,oneof=24h 48h 1week"`
	Limit int    `form:"limit" validate:"omitempty,min=1"`
}

type RecentRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1"`
}

type ScheduleRequest struct {
	UserID string `json:"userId" validate:"required,max=255"`
	Type   string `json:"type" validate:"required,oneof=24h 48h 1week"`
}

// ResponseRequest narrows the answered follow-up to one step when Type is set.
type ResponseRequest struct {
	Type string `json:"type" validate:"omitempty,oneof=24h 48h 1week"`
}

type DueResponse struct {
	UserID          string    `json:"userId"`
	Platform        string    `json:"platform"`
	Score           int       `json:"score"`
	Status          string    `json:"status"`
	LastInteraction time.Time `json:"lastInteraction"`
	FollowUpType    string    `json:"followUpType"`
	Message         string    `json:"message"`
}

type FollowUpResponse struct {
	ID               uuid.UUID  `json:"id"`
	UserID           string     `json:"userId"`
	FollowUpType     string     `json:"followUpType"`
	SentAt           time.Time  `json:"sentAt"`
	ResponseReceived bool       `json:"responseReceived"`
	RespondedAt      *time.Time `json:"respondedAt,omitempty"`
}

type ScheduleResponse struct {
	FollowUp FollowUpResponse `json:"followUp"`
	Created  bool             `json:"created"`
}

type RecentFollowUpResponse struct {
	FollowUpResponse
	Score  int    `json:"score"`
	Status string `json:"status"`
}

type RecommendationResponse struct {
	ShouldSend   bool   `json:"shouldSend"`
	Reason       string `json:"reason,omitempty"`
	FollowUpType string `json:"followUpType,omitempty"`
	Score        int    `json:"score"`
	IdleHours    int    `json:"idleHours"`
}

type PlanResponse struct {
	Scheduled map[string][]string `json:"scheduled"`
	Total     int                 `json:"total"`
}

func ToDueResponse(d service.Due) DueResponse {
	return DueResponse{
		UserID:          d.Candidate.UserID,
		Platform:        d.Candidate.Platform,
		Score:           d.Candidate.Score,
		Status:          d.Candidate.Status,
		LastInteraction: d.Candidate.LastInteraction,
		FollowUpType:    string(d.Type),
		Message:         d.Message,
	}
}

func ToFollowUpResponse(f domain.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID:               f.ID,
		UserID:           f.UserID,
		FollowUpType:     string(f.Type),
		SentAt:           f.SentAt,
		ResponseReceived: f.ResponseReceived,
		RespondedAt:      f.RespondedAt,
	}
}

func ToRecommendationResponse(r domain.Recommendation) RecommendationResponse {
	return RecommendationResponse{
		ShouldSend:   r.ShouldSend,
		Reason:       r.Reason,
		FollowUpType: string(r.Type),
		Score:        r.Score,
		IdleHours:    int(r.Idle / time.Hour),
	}
}

func ToPlanResponse(r service.PlanResult) PlanResponse {
	out := PlanResponse{Scheduled: make(map[string][]string, len(r.Scheduled)), Total: r.Total}
	for t, ids := range r.Scheduled {
		out.Scheduled[string(t)] = ids
	}
	return out
}
