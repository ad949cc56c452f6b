// Package service plans and records follow-ups for idle leads.
package service

import (
	"context"
	"time"

	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/followups/domain"
	"clinic_marketing_backend/internal/followups/repository"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/phone"
)

const (
	defaultDueLimit    = 50
	maxDueLimit        = 200
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Due is one candidate together with the step and text to send.
type Due struct {
	Candidate domain.Candidate
	Type      domain.Type
	Message   string
}

// PlanResult counts the follow-ups recorded by one planning run.
type PlanResult struct {
	Scheduled map[domain.Type][]string
	Total     int
}

// Service provides business logic for follow-ups.
type Service struct {
	repo    repository.Repository
	bus     events.Bus
	timeout time.Duration
	log     *logger.Logger
	now     func() time.Time
}

// New creates a new follow-up service. bus may be nil.
func New(repo repository.Repository, bus events.Bus, cfg config.StoreConfig, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		bus:     bus,
		timeout: cfg.GetStoreTimeout(),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Due lists candidates for one step, or for every step when rawType is empty.
func (s *Service) Due(ctx context.Context, rawType string, limit int) ([]Due, error) {
	types, err := parseTypes(rawType, "followups.due")
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit, defaultDueLimit, maxDueLimit)

	now := s.now()
	out := make([]Due, 0)
	for _, t := range types {
		candidates, err := s.due(ctx, t, now, limit)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			out = append(out, Due{Candidate: c, Type: t, Message: domain.Message(t, c)})
		}
	}
	return out, nil
}

// Schedule records that a follow-up of rawType is being sent to userID.
func (s *Service) Schedule(ctx context.Context, userID, rawType string) (domain.FollowUp, bool, error) {
	ids := phone.LookupUserIDs(userID)
	if len(ids) == 0 {
		return domain.FollowUp{}, false, apperr.Validation("user id is required").WithOp("followups.schedule")
	}
	t, ok := domain.ParseType(rawType)
	if !ok {
		return domain.FollowUp{}, false, invalidType(rawType, "followups.schedule")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var (
		f       domain.FollowUp
		created bool
		err     error
	)
	now := s.now()
	for _, id := range ids {
		f, created, err = s.repo.Schedule(ctx, id, t, now)
		if !apperr.Is(err, apperr.KindNotFound) {
			break
		}
	}
	if err != nil {
		return domain.FollowUp{}, false, err
	}
	if created {
		s.log.WithLead(f.UserID).Info("follow-up scheduled", "type", string(t))
	}
	return f, created, nil
}

// RecordResponse marks the lead's latest unanswered follow-up as answered.
func (s *Service) RecordResponse(ctx context.Context, userID, rawType string) (domain.FollowUp, error) {
	ids := phone.LookupUserIDs(userID)
	if len(ids) == 0 {
		return domain.FollowUp{}, apperr.Validation("user id is required").WithOp("followups.record_response")
	}
	var t domain.Type
	if rawType != "" {
		parsed, ok := domain.ParseType(rawType)
		if !ok {
			return domain.FollowUp{}, invalidType(rawType, "followups.record_response")
		}
		t = parsed
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var (
		f   domain.FollowUp
		err error
	)
	now := s.now()
	for _, id := range ids {
		f, err = s.repo.RecordResponse(ctx, id, t, now)
		if !apperr.Is(err, apperr.KindNotFound) {
			break
		}
	}
	if err != nil {
		return domain.FollowUp{}, err
	}
	s.log.WithLead(f.UserID).Info("follow-up response recorded", "type", string(f.Type))
	return f, nil
}

// Recommend says whether userID should be nudged now and with which step.
func (s *Service) Recommend(ctx context.Context, userID string) (domain.Recommendation, error) {
	ids := phone.LookupUserIDs(userID)
	if len(ids) == 0 {
		return domain.Recommendation{}, apperr.Validation("user id is required").WithOp("followups.recommend")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var (
		state domain.LeadState
		err   error
	)
	for _, id := range ids {
		state, err = s.repo.LeadState(ctx, id)
		if !apperr.Is(err, apperr.KindNotFound) {
			break
		}
	}
	if err != nil {
		return domain.Recommendation{}, err
	}
	return domain.Recommend(state, s.now()), nil
}

// Recent lists the latest follow-ups across all leads.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.RecentFollowUp, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Recent(ctx, clampLimit(limit, defaultRecentLimit, maxRecentLimit))
}

// Plan records every due follow-up and publishes one FollowUpsPlanned per step
// that found leads. A failed insert is logged and skipped.
func (s *Service) Plan(ctx context.Context) (PlanResult, error) {
	result := PlanResult{Scheduled: make(map[domain.Type][]string)}
	now := s.now()

	for _, t := range domain.AllTypes() {
		candidates, err := s.due(ctx, t, now, defaultDueLimit)
		if err != nil {
			return result, err
		}

		var ids []string
		for _, c := range candidates {
			created, err := s.schedule(ctx, c.UserID, t, now)
			if err != nil {
				s.log.WithLead(c.UserID).Warn("follow-up not recorded", "type", string(t), "error", err)
				continue
			}
			if created {
				ids = append(ids, c.UserID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		result.Scheduled[t] = ids
		result.Total += len(ids)
		if s.bus != nil {
			s.bus.Publish(ctx, events.FollowUpsPlanned{
				BaseEvent:    events.NewBaseEvent(),
				FollowUpType: string(t),
				UserIDs:      ids,
			})
		}
	}

	s.log.Info("follow-up batch complete", "total", result.Total)
	return result, nil
}

func (s *Service) due(ctx context.Context, t domain.Type, now time.Time, limit int) ([]domain.Candidate, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Due(ctx, t, now.Add(-t.Interval()), limit)
}

func (s *Service) schedule(ctx context.Context, userID string, t domain.Type, now time.Time) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, created, err := s.repo.Schedule(ctx, userID, t, now)
	return created, err
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func parseTypes(raw, op string) ([]domain.Type, error) {
	if raw == "" {
		return domain.AllTypes(), nil
	}
	t, ok := domain.ParseType(raw)
	if !ok {
		return nil, invalidType(raw, op)
	}
	return []domain.Type{t}, nil
}

func invalidType(raw, op string) error {
	return apperr.Validation("invalid follow-up type").
		WithDetails(map[string]interface{}{"type": raw, "allowed": domain.AllTypes()}).
		WithOp(op)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
