package repository

import (
	"context"
	"time"

	"clinic_marketing_backend/internal/followups/domain"
)

// Repository persists follow-ups and keeps the daily counters in step.
type Repository interface {
	// Due lists leads idle since before cutoff that have no follow-up of type t.
	Due(ctx context.Context, t domain.Type, cutoff time.Time, limit int) ([]domain.Candidate, error)
	// Schedule records a follow-up. created is false when one of that type exists.
	Schedule(ctx context.Context, userID string, t domain.Type, sentAt time.Time) (f domain.FollowUp, created bool, err error)
	// RecordResponse marks the latest unanswered follow-up answered. An empty t
	// matches any type.
	RecordResponse(ctx context.Context, userID string, t domain.Type, at time.Time) (domain.FollowUp, error)
	LeadState(ctx context.Context, userID string) (domain.LeadState, error)
	Recent(ctx context.Context, limit int) ([]domain.RecentFollowUp, error)
}
