package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"clinic_marketing_backend/internal/leads/domain"
	"clinic_marketing_backend/platform/apperr"
)

// MemoryStore is an in-process LeadStore. Mutations are serialized by one
// mutex, which gives the same per-lead atomicity as the row lock.
type MemoryStore struct {
	mu     sync.RWMutex
	leads  map[string]*domain.Lead
	events []domain.ConversionEvent
	now    func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads: make(map[string]*domain.Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ LeadStore = (*MemoryStore)(nil)

// Mutate applies fn to a copy and stores it only when fn succeeds.
func (s *MemoryStore) Mutate(ctx context.Context, userID string, platform domain.Platform, create bool, fn MutateFunc) (domain.Lead, error) {
	if err := ctxErr(ctx, "leads.mutate"); err != nil {
		return domain.Lead{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	current, exists := s.leads[userID]
	created := false
	if !exists {
		if !create {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage).WithOp("leads.mutate")
		}
		current = domain.NewLead(userID, platform, now)
		created = true
	}

	working := cloneLead(current)
	events, err := fn(&working, created)
	if err != nil {
		return domain.Lead{}, err
	}
	working.UpdatedAt = now

	stored := cloneLead(&working)
	s.leads[userID] = &stored
	for _, ev := range events {
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = now
		}
		s.events = append(s.events, ev)
	}
	return working, nil
}

// GetByUserID returns a copy of one lead.
func (s *MemoryStore) GetByUserID(ctx context.Context, userID string) (domain.Lead, error) {
	if err := ctxErr(ctx, "leads.get"); err != nil {
		return domain.Lead{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[userID]
	if !ok {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMessage).WithOp("leads.get")
	}
	return cloneLead(lead), nil
}

// List applies the same ordering as the SQL store.
func (s *MemoryStore) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	if err := ctxErr(ctx, "leads.list"); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if params.Status != nil && lead.Status != *params.Status {
			continue
		}
		matched = append(matched, cloneLead(lead))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].LastInteraction.Equal(matched[j].LastInteraction) {
			return matched[i].LastInteraction.After(matched[j].LastInteraction)
		}
		return matched[i].UserID < matched[j].UserID
	})

	total := len(matched)
	if params.Offset >= total {
		return []domain.Lead{}, total, nil
	}
	end := total
	if params.Limit > 0 && params.Offset+params.Limit < total {
		end = params.Offset + params.Limit
	}
	return matched[params.Offset:end], total, nil
}

// Events returns the conversion events written so far.
func (s *MemoryStore) Events() []domain.ConversionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

func ctxErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "store timed out", err).WithOp(op)
	}
	return nil
}

func cloneLead(lead *domain.Lead) domain.Lead {
	out := *lead
	out.Symptoms = slices.Clone(lead.Symptoms)
	out.SurgeriesInterested = slices.Clone(lead.SurgeriesInterested)
	out.DoctorsInquired = slices.Clone(lead.DoctorsInquired)
	out.History = slices.Clone(lead.History)
	return out
}
