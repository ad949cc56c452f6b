// Package service implements lead tracking: recording conversation signals,
// keeping the score current and writing funnel milestones.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/leads/domain"
	"clinic_marketing_backend/internal/leads/repository"
	"clinic_marketing_backend/internal/leads/scoring"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/phone"
)

const (
	maxUserIDLength  = 255
	maxMessageLength = 4000
	maxTagLength     = 200

	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100

	statusFilterAll = "all"
)

// Signal is one inbound message carrying at most one detected item.
type Signal struct {
	Kind     domain.SignalKind
	Value    string
	Message  string
	Platform domain.Platform
}

// Interaction is one inbound message with every item the agent detected in it.
type Interaction struct {
	Message  string
	Items    domain.DetectedItems
	Platform domain.Platform
}

// LeadPage is one page of the lead list.
type LeadPage struct {
	Items      []domain.Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Service provides business logic for leads.
type Service struct {
	store   repository.LeadStore
	weights scoring.WeightsSource
	bus     events.Bus
	timeout time.Duration
	log     *logger.Logger
	now     func() time.Time
}

// New creates a new lead service. weights and bus may be nil.
func New(store repository.LeadStore, weights scoring.WeightsSource, bus events.Bus, cfg config.StoreConfig, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		weights: weights,
		bus:     bus,
		timeout: cfg.GetStoreTimeout(),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// UpsertLead counts one message from userID, creating the lead when needed.
func (s *Service) UpsertLead(ctx context.Context, userID string, platform domain.Platform) (domain.Lead, error) {
	return s.record(ctx, "leads.upsert", userID, platform, nil)
}

// RecordSignal counts one message carrying a single detected item.
func (s *Service) RecordSignal(ctx context.Context, userID string, signal Signal) (domain.Lead, error) {
	if signal.Kind.RequiresValue() && strings.TrimSpace(signal.Value) == "" {
		return domain.Lead{}, apperr.Validation("value is required for " + string(signal.Kind) + " signals").WithOp("leads.record_signal")
	}
	if utf8.RuneCountInString(signal.Value) > maxTagLength {
		return domain.Lead{}, apperr.Validation("signal value too long").WithOp("leads.record_signal")
	}
	turn := &turn{message: signal.Message, items: signal.Kind.Items(signal.Value)}
	return s.record(ctx, "leads.record_signal", userID, signal.Platform, turn)
}

// RecordInteraction counts one message with any number of detected items.
func (s *Service) RecordInteraction(ctx context.Context, userID string, interaction Interaction) (domain.Lead, error) {
	items := interaction.Items
	items.Symptoms = domain.NormalizeTags(items.Symptoms)
	items.Surgeries = domain.NormalizeTags(items.Surgeries)
	items.Doctors = domain.NormalizeTags(items.Doctors)
	for _, tags := range [][]string{items.Symptoms, items.Surgeries, items.Doctors} {
		for _, tag := range tags {
			if utf8.RuneCountInString(tag) > maxTagLength {
				return domain.Lead{}, apperr.Validation("detected item too long").WithOp("leads.record_interaction")
			}
		}
	}
	turn := &turn{message: interaction.Message, items: items}
	return s.record(ctx, "leads.record_interaction", userID, interaction.Platform, turn)
}

// SetStatus overrides the status and locks it against recompute.
func (s *Service) SetStatus(ctx context.Context, userID, rawStatus, actor string) (domain.Lead, error) {
	status, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return domain.Lead{}, apperr.Validation("invalid status").
			WithDetails(map[string]interface{}{"status": rawStatus, "allowed": domain.AllStatuses()}).
			WithOp("leads.set_status")
	}
	return s.override(ctx, "leads.set_status", userID, status, actor)
}

// MarkConverted records a confirmed booking.
func (s *Service) MarkConverted(ctx context.Context, userID, actor string) (domain.Lead, error) {
	return s.override(ctx, "leads.mark_converted", userID, domain.StatusConverted, actor)
}

// UnlockStatus clears a manual override and restores the derived status.
func (s *Service) UnlockStatus(ctx context.Context, userID string) (domain.Lead, error) {
	ids, err := lookupUserIDs("leads.unlock_status", userID)
	if err != nil {
		return domain.Lead{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	weights := s.currentWeights(ctx)

	var becameHot *events.LeadBecameHot
	lead, err := s.mutateExisting(ctx, ids, func(lead *domain.Lead, _ bool) ([]domain.ConversionEvent, error) {
		becameHot = nil
		previous := lead.Status
		res := scoring.Evaluate(scoring.InputsFor(lead), weights)
		lead.StatusLocked = false
		lead.Score = res.Score
		lead.Status = res.Status

		if lead.Status == domain.StatusHot && previous != domain.StatusHot {
			becameHot = hotEvent(lead, previous)
			return []domain.ConversionEvent{becameHotRecord(lead, previous, res, s.now())}, nil
		}
		return nil, nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.log.WithLead(lead.UserID).Info("lead status unlocked", "status", lead.Status, "score", lead.Score)
	if becameHot != nil {
		s.announceHot(ctx, *becameHot)
	}
	return lead, nil
}

// GetLead retrieves one lead.
func (s *Service) GetLead(ctx context.Context, userID string) (domain.Lead, error) {
	ids, err := lookupUserIDs("leads.get", userID)
	if err != nil {
		return domain.Lead{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var lead domain.Lead
	for _, id := range ids {
		lead, err = s.store.GetByUserID(ctx, id)
		if !apperr.Is(err, apperr.KindNotFound) {
			break
		}
	}
	return lead, err
}

// ListLeads pages leads, newest interaction first.
func (s *Service) ListLeads(ctx context.Context, page, pageSize int, statusFilter string) (LeadPage, error) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ListParams{Offset: (page - 1) * pageSize, Limit: pageSize}
	filter := strings.TrimSpace(statusFilter)
	if filter != "" && !strings.EqualFold(filter, statusFilterAll) {
		status, ok := domain.ParseStatus(filter)
		if !ok {
			return LeadPage{}, apperr.Validation("invalid status filter").WithOp("leads.list")
		}
		params.Status = &status
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return LeadPage{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return LeadPage{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

// turn is the optional conversation content of a counted message.
type turn struct {
	message string
	items   domain.DetectedItems
}

func (s *Service) record(ctx context.Context, op, rawUserID string, platform domain.Platform, t *turn) (domain.Lead, error) {
	if platform == "" {
		platform = domain.PlatformWeb
	}
	userID, err := normalizeUserID(op, rawUserID, platform)
	if err != nil {
		return domain.Lead{}, err
	}
	if t != nil && utf8.RuneCountInString(t.message) > maxMessageLength {
		return domain.Lead{}, apperr.Validation("message too long").WithOp(op)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	weights := s.currentWeights(ctx)

	var becameHot *events.LeadBecameHot
	lead, err := s.store.Mutate(ctx, userID, platform, true, func(lead *domain.Lead, created bool) ([]domain.ConversionEvent, error) {
		becameHot = nil
		now := s.now()
		if created {
			lead.FirstContact = now
			lead.LastInteraction = now
		}
		lead.Touch(now)

		var added domain.DetectedItems
		if t != nil {
			added = lead.Merge(t.items)
			lead.AppendHistory(now, t.message, t.items)
		}

		res, previous := scoring.Apply(lead, weights)
		records := signalRecords(lead.UserID, added, now)
		if lead.Status == domain.StatusHot && previous != domain.StatusHot {
			records = append(records, becameHotRecord(lead, previous, res, now))
			becameHot = hotEvent(lead, previous)
		}
		return records, nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.log.WithLead(lead.UserID).Debug("lead updated", "op", op, "score", lead.Score, "status", lead.Status, "messages", lead.TotalMessages)
	if becameHot != nil {
		s.announceHot(ctx, *becameHot)
	}
	return lead, nil
}

func (s *Service) override(ctx context.Context, op, userID string, status domain.Status, actor string) (domain.Lead, error) {
	ids, err := lookupUserIDs(op, userID)
	if err != nil {
		return domain.Lead{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var previous domain.Status
	lead, err := s.mutateExisting(ctx, ids, func(lead *domain.Lead, _ bool) ([]domain.ConversionEvent, error) {
		now := s.now()
		previous = lead.Status
		lead.Status = status
		lead.StatusLocked = true

		records := []domain.ConversionEvent{{
			UserID:    lead.UserID,
			EventType: domain.EventStatusOverride,
			Data: map[string]interface{}{
				"previous_status": string(previous),
				"status":          string(status),
				"actor":           actor,
			},
			CreatedAt: now,
		}}
		if status == domain.StatusConverted && previous != domain.StatusConverted {
			records = append(records, domain.ConversionEvent{
				UserID:    lead.UserID,
				EventType: domain.EventConverted,
				Data:      map[string]interface{}{"previous_status": string(previous), "score": lead.Score},
				CreatedAt: now,
			})
		}
		return records, nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.log.WithLead(lead.UserID).Info("lead status overridden", "from", previous, "to", status, "actor", actor)
	s.publish(ctx, events.LeadStatusOverridden{
		BaseEvent:      events.NewBaseEvent(),
		UserID:         lead.UserID,
		PreviousStatus: string(previous),
		Status:         string(status),
		Actor:          actor,
	})
	if status == domain.StatusConverted && previous != domain.StatusConverted {
		s.publish(ctx, events.LeadConverted{
			BaseEvent:      events.NewBaseEvent(),
			UserID:         lead.UserID,
			PreviousStatus: string(previous),
			Score:          lead.Score,
		})
	}
	return lead, nil
}

// mutateExisting applies fn to the first of ids that names a stored lead.
func (s *Service) mutateExisting(ctx context.Context, ids []string, fn repository.MutateFunc) (domain.Lead, error) {
	var (
		lead domain.Lead
		err  error
	)
	for _, id := range ids {
		lead, err = s.store.Mutate(ctx, id, "", false, fn)
		if !apperr.Is(err, apperr.KindNotFound) {
			break
		}
	}
	return lead, err
}

func (s *Service) currentWeights(ctx context.Context) scoring.Weights {
	if s.weights == nil {
		return scoring.DefaultWeights()
	}
	w, err := s.weights.ScoringWeights(ctx)
	if err != nil {
		s.log.WithContext(ctx).Warn("scoring weights unavailable, using defaults", "error", err)
		return scoring.DefaultWeights()
	}
	return w
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) announceHot(ctx context.Context, event events.LeadBecameHot) {
	s.log.WithLead(event.UserID).Info("lead became hot", "score", event.Score, "previous_status", event.PreviousStatus)
	s.publish(ctx, event)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// lookupUserIDs is used where the caller does not say which platform the id
// belongs to. Phone-written ids also match their canonical whatsapp form.
func lookupUserIDs(op, raw string) ([]string, error) {
	ids := phone.LookupUserIDs(raw)
	if len(ids) == 0 {
		return nil, apperr.Validation("user id is required").WithOp(op)
	}
	if utf8.RuneCountInString(ids[0]) > maxUserIDLength {
		return nil, apperr.Validation("invalid user id").WithOp(op)
	}
	return ids, nil
}

func normalizeUserID(op, raw string, platform domain.Platform) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperr.Validation("user id is required").WithOp(op)
	}
	if platform != "" {
		id = phone.NormalizeUserID(string(platform), id)
	}
	if id == "" || utf8.RuneCountInString(id) > maxUserIDLength {
		return "", apperr.Validation("invalid user id").WithOp(op)
	}
	return id, nil
}
