// Package service manages the agent configuration and serves scoring weights.
package service

import (
	"context"
	"strings"
	"time"

	"clinic_marketing_backend/internal/aiconfig/domain"
	"clinic_marketing_backend/internal/aiconfig/repository"
	"clinic_marketing_backend/internal/aiconfig/transport"
	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/leads/scoring"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

// Service provides business logic for the agent configuration.
type Service struct {
	repo    repository.Repository
	val     *validator.Validator
	bus     events.Bus
	timeout time.Duration
	log     *logger.Logger
}

// New creates a new config service. bus may be nil.
func New(repo repository.Repository, val *validator.Validator, bus events.Bus, cfg config.StoreConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, val: val, bus: bus, timeout: cfg.GetStoreTimeout(), log: log}
}

var _ scoring.WeightsSource = (*Service)(nil)

// GetConfig returns the configuration, seeding the defaults on first read.
func (s *Service) GetConfig(ctx context.Context) (domain.Config, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cfg, err := s.repo.Get(ctx)
	if err == nil {
		return cfg, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return domain.Config{}, err
	}

	if _, err := s.seed(ctx); err != nil {
		return domain.Config{}, err
	}
	return s.repo.Get(ctx)
}

// SeedDefaults writes the built-in configuration if none exists.
func (s *Service) SeedDefaults(ctx context.Context) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.seed(ctx)
}

// UpdateConfig validates and replaces the whole configuration.
func (s *Service) UpdateConfig(ctx context.Context, req transport.UpdateConfigRequest, actor string) (domain.Config, error) {
	if err := s.val.Struct(req); err != nil {
		return domain.Config{}, apperr.Validation("invalid ai config").WithDetails(validator.Messages(err)).WithOp("aiconfig.update")
	}
	if problems := duplicateIDs(req); len(problems) > 0 {
		return domain.Config{}, apperr.Validation("invalid ai config").WithDetails(problems).WithOp("aiconfig.update")
	}
	if strings.TrimSpace(req.SystemPrompt) == "" {
		return domain.Config{}, apperr.Validation("invalid ai config").WithDetails([]string{"system_prompt: required"}).WithOp("aiconfig.update")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	saved, err := s.repo.Upsert(ctx, req.ToDomain())
	if err != nil {
		return domain.Config{}, err
	}

	s.log.Info("ai config updated", "actor", actor, "doctors", len(saved.Doctors), "surgeries", len(saved.Surgeries))
	if s.bus != nil {
		s.bus.Publish(ctx, events.AIConfigUpdated{BaseEvent: events.NewBaseEvent(), Actor: actor})
	}
	return saved, nil
}

// ScoringWeights implements scoring.WeightsSource.
func (s *Service) ScoringWeights(ctx context.Context) (scoring.Weights, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return scoring.Weights{}, err
	}
	return cfg.ScoringWeights, nil
}

func (s *Service) seed(ctx context.Context) (bool, error) {
	defaults, err := domain.Defaults()
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "load default ai config", err)
	}
	inserted, err := s.repo.Seed(ctx, defaults)
	if err != nil {
		return false, err
	}
	if inserted {
		s.log.Info("default ai config seeded")
	}
	return inserted, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func duplicateIDs(req transport.UpdateConfigRequest) []string {
	var problems []string
	seen := make(map[string]bool, len(req.Doctors))
	for _, d := range req.Doctors {
		id := strings.TrimSpace(d.ID)
		if seen[id] {
			problems = append(problems, "doctors: duplicate id "+id)
		}
		seen[id] = true
	}
	seen = make(map[string]bool, len(req.Surgeries))
	for _, sg := range req.Surgeries {
		id := strings.TrimSpace(sg.ID)
		if seen[id] {
			problems = append(problems, "surgeries: duplicate id "+id)
		}
		seen[id] = true
	}
	return problems
}
