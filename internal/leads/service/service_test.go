package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/leads/domain"
	"clinic_marketing_backend/internal/leads/repository"
	"clinic_marketing_backend/internal/leads/scoring"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/logger"
)

type storeConfig struct{ timeout time.Duration }

func (c storeConfig) GetStoreTimeout() time.Duration { return c.timeout }

type fakeWeights struct {
	weights scoring.Weights
	err     error
}

func (f fakeWeights) ScoringWeights(context.Context) (scoring.Weights, error) {
	return f.weights, f.err
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

func newTestService(weights scoring.WeightsSource) (*Service, *repository.MemoryStore, *recordingBus) {
	store := repository.NewMemoryStore()
	bus := &recordingBus{}
	log := logger.NewWithWriter("production", io.Discard)
	svc := New(store, weights, bus, storeConfig{timeout: time.Second}, log)
	return svc, store, bus
}

func countEvents(store *repository.MemoryStore, eventType string) int {
	n := 0
	for _, ev := range store.Events() {
		if ev.EventType == eventType {
			n++
		}
	}
	return n
}

func TestRecordInteractionFirstMessage(t *testing.T) {
	svc, _, _ := newTestService(nil)

	lead, err := svc.RecordInteraction(context.Background(), "u1", Interaction{
		Message: "I have blurry vision, do you do glaucoma surgery?",
		Items: domain.DetectedItems{
			Symptoms:  []string{"Blurry Vision"},
			Surgeries: []string{"glaucoma"},
		},
	})
	if err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	if lead.TotalMessages != 1 {
		t.Fatalf("expected 1 message, got %d", lead.TotalMessages)
	}
	want := scoring.DefaultWeights().SurgeryInquiry + scoring.DefaultWeights().SymptomMentioned
	if lead.Score != want {
		t.Fatalf("expected score %d, got %d", want, lead.Score)
	}
	if lead.Status != domain.StatusCold {
		t.Fatalf("expected cold, got %s", lead.Status)
	}
	if len(lead.History) != 1 || lead.Symptoms[0] != "blurry vision" {
		t.Fatalf("unexpected lead state %+v", lead)
	}
}

func TestBookingIntentCountedOnce(t *testing.T) {
	svc, store, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.UpsertLead(ctx, "u1", domain.PlatformWeb); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	first, err := svc.RecordSignal(ctx, "u1", Signal{Kind: domain.SignalBookingIntent, Message: "I want to book"})
	if err != nil {
		t.Fatalf("record signal: %v", err)
	}
	second, err := svc.RecordSignal(ctx, "u1", Signal{Kind: domain.SignalBookingIntent, Message: "book please"})
	if err != nil {
		t.Fatalf("record signal: %v", err)
	}

	if !second.BookingIntentDetected {
		t.Fatalf("expected booking intent flag")
	}
	// the third message adds the multiple_messages weight, nothing else
	if second.Score-first.Score != scoring.DefaultWeights().MultipleMessages {
		t.Fatalf("expected only the multiple-messages bump, got %d -> %d", first.Score, second.Score)
	}
	if got := countEvents(store, domain.EventBookingIntent); got != 1 {
		t.Fatalf("expected one booking_intent event, got %d", got)
	}
}

func TestConvertedStatusSurvivesSignals(t *testing.T) {
	svc, store, bus := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.UpsertLead(ctx, "u1", domain.PlatformWeb); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.SetStatus(ctx, "u1", "converted", "admin-1"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	lead, err := svc.RecordSignal(ctx, "u1", Signal{Kind: domain.SignalSymptom, Value: "dry eyes", Message: "my eyes feel dry"})
	if err != nil {
		t.Fatalf("record signal: %v", err)
	}

	if lead.Status != domain.StatusConverted {
		t.Fatalf("expected converted to stick, got %s", lead.Status)
	}
	if lead.Score != scoring.DefaultWeights().SymptomMentioned {
		t.Fatalf("expected score still updated, got %d", lead.Score)
	}
	if len(lead.History) != 1 {
		t.Fatalf("expected history to grow, got %d", len(lead.History))
	}
	if countEvents(store, domain.EventConverted) != 1 || countEvents(store, domain.EventStatusOverride) != 1 {
		t.Fatalf("expected override and converted events, got %v", store.Events())
	}

	names := bus.names()
	if len(names) != 2 || names[0] != (events.LeadStatusOverridden{}).EventName() || names[1] != (events.LeadConverted{}).EventName() {
		t.Fatalf("unexpected published events %v", names)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()
	_, _ = svc.UpsertLead(ctx, "u1", domain.PlatformWeb)

	_, err := svc.SetStatus(ctx, "u1", "lukewarm", "admin-1")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	lead, _ := svc.GetLead(ctx, "u1")
	if lead.Status != domain.StatusNew || lead.StatusLocked {
		t.Fatalf("failed override must not change the lead: %+v", lead)
	}
}

func TestSetStatusUnknownLead(t *testing.T) {
	svc, _, _ := newTestService(nil)
	_, err := svc.SetStatus(context.Background(), "ghost", "hot", "admin-1")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUnlockRestoresDerivedStatus(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()
	_, _ = svc.RecordInteraction(ctx, "u1", Interaction{Items: domain.DetectedItems{Symptoms: []string{"dry eyes"}}})
	_, _ = svc.SetStatus(ctx, "u1", "hot", "admin-1")

	locked, _ := svc.RecordSignal(ctx, "u1", Signal{Kind: domain.SignalMessage, Message: "thanks"})
	if locked.Status != domain.StatusHot {
		t.Fatalf("expected locked hot, got %s", locked.Status)
	}

	lead, err := svc.UnlockStatus(ctx, "u1")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if lead.StatusLocked || lead.Status != domain.StatusCold {
		t.Fatalf("expected unlocked cold, got locked=%v %s (score %d)", lead.StatusLocked, lead.Status, lead.Score)
	}
}

func TestBecameHotPublishedOnce(t *testing.T) {
	svc, store, bus := newTestService(nil)
	ctx := context.Background()

	_, err := svc.RecordInteraction(ctx, "u1", Interaction{
		Message: "sudden vision loss, I need to book with Dr. Aliyev",
		Items: domain.DetectedItems{
			Symptoms:      []string{"sudden vision loss"},
			Doctors:       []string{"Dr. Aliyev"},
			BookingIntent: true,
		},
	})
	if err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	lead, err := svc.RecordSignal(ctx, "u1", Signal{Kind: domain.SignalMessage, Message: "when?"})
	if err != nil {
		t.Fatalf("record signal: %v", err)
	}

	if lead.Status != domain.StatusHot {
		t.Fatalf("expected hot, got %s (%d)", lead.Status, lead.Score)
	}
	if got := countEvents(store, domain.EventBecameHot); got != 1 {
		t.Fatalf("expected one became_hot event, got %d", got)
	}
	if countEvents(store, domain.EventUrgentSymptoms) != 1 || countEvents(store, domain.EventDoctorInquiry) != 1 {
		t.Fatalf("expected urgent and doctor events, got %v", store.Events())
	}
	if names := bus.names(); len(names) != 1 || names[0] != (events.LeadBecameHot{}).EventName() {
		t.Fatalf("expected one LeadBecameHot publish, got %v", names)
	}
}

func TestStatusNeverCoolsDown(t *testing.T) {
	weights := scoring.DefaultWeights()
	source := &switchableWeights{weights: weights}
	svc, _, _ := newTestService(source)
	ctx := context.Background()

	warm, _ := svc.RecordInteraction(ctx, "u1", Interaction{Items: domain.DetectedItems{Symptoms: []string{"dry eyes"}, PriceInquiry: true}})
	if warm.Status != domain.StatusWarm {
		t.Fatalf("expected warm, got %s", warm.Status)
	}

	source.set(scoring.Weights{})
	lead, _ := svc.UpsertLead(ctx, "u1", domain.PlatformWeb)
	if lead.Score != 0 || lead.Status != domain.StatusWarm {
		t.Fatalf("expected score 0 with status kept warm, got %d %s", lead.Score, lead.Status)
	}
}

func TestWeightsFailureFallsBackToDefaults(t *testing.T) {
	svc, _, _ := newTestService(fakeWeights{err: errors.New("config store down")})
	lead, err := svc.RecordSignal(context.Background(), "u1", Signal{Kind: domain.SignalDoctor, Value: "Dr. Aliyev"})
	if err != nil {
		t.Fatalf("weights failure must not fail the update: %v", err)
	}
	if lead.Score != scoring.DefaultWeights().DoctorInquiry {
		t.Fatalf("expected default doctor weight, got %d", lead.Score)
	}
}

func TestRecordSignalRequiresValue(t *testing.T) {
	svc, _, _ := newTestService(nil)
	_, err := svc.RecordSignal(context.Background(), "u1", Signal{Kind: domain.SignalSurgery, Value: "  "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetSignalsAreIdempotent(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.RecordSignal(ctx, "u1", Signal{Kind: domain.SignalSurgery, Value: "LASIK"}); err != nil {
			t.Fatalf("record signal: %v", err)
		}
	}
	lead, _ := svc.GetLead(ctx, "u1")
	if len(lead.SurgeriesInterested) != 1 || lead.TotalMessages != 2 || len(lead.History) != 2 {
		t.Fatalf("expected one surgery with two messages, got %+v", lead)
	}
}

func TestWhatsAppUserIDNormalized(t *testing.T) {
	svc, _, _ := newTestService(nil)
	lead, err := svc.UpsertLead(context.Background(), "+994 50 123 45 67", domain.PlatformWhatsApp)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if lead.UserID != "994501234567" {
		t.Fatalf("expected normalized id, got %q", lead.UserID)
	}
}

func TestPhoneWrittenIDsResolveOnLookupPaths(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.RecordSignal(ctx, "+994 50 123 45 67", Signal{Kind: domain.SignalSurgery, Value: "lasik", Platform: domain.PlatformWhatsApp}); err != nil {
		t.Fatalf("record signal: %v", err)
	}

	lead, err := svc.GetLead(ctx, "+994501234567")
	if err != nil || lead.UserID != "994501234567" {
		t.Fatalf("get by e164: lead %q err %v", lead.UserID, err)
	}
	if _, err := svc.GetLead(ctx, "050 123 45 67"); err != nil {
		t.Fatalf("get by national form: %v", err)
	}
	if lead, err := svc.SetStatus(ctx, "+994 50 123 45 67", "warm", "admin-1"); err != nil || lead.Status != domain.StatusWarm {
		t.Fatalf("set status: lead %+v err %v", lead, err)
	}
	if lead, err := svc.UnlockStatus(ctx, "+994501234567"); err != nil || lead.StatusLocked {
		t.Fatalf("unlock: lead %+v err %v", lead, err)
	}
	lead, err = svc.MarkConverted(ctx, "+994 50 123 45 67", "agent")
	if err != nil {
		t.Fatalf("mark converted: %v", err)
	}
	if lead.UserID != "994501234567" || lead.Status != domain.StatusConverted {
		t.Fatalf("expected stored lead converted, got %+v", lead)
	}
}

func TestExactIDWinsOverPhoneForm(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.UpsertLead(ctx, "0501234567", domain.PlatformWeb); err != nil {
		t.Fatalf("upsert web: %v", err)
	}
	if _, err := svc.UpsertLead(ctx, "0501234567", domain.PlatformWhatsApp); err != nil {
		t.Fatalf("upsert whatsapp: %v", err)
	}
	if _, err := svc.SetStatus(ctx, "0501234567", "hot", "admin-1"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	web, _ := svc.GetLead(ctx, "0501234567")
	if web.UserID != "0501234567" || web.Status != domain.StatusHot {
		t.Fatalf("expected web lead overridden, got %+v", web)
	}
	wa, _ := svc.GetLead(ctx, "994501234567")
	if wa.Status == domain.StatusHot {
		t.Fatalf("expected whatsapp lead untouched, got %+v", wa)
	}
}

func TestConcurrentMessagesAreAllCounted(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()
	const writers = 25

	var wg sync.WaitGroup
	errs := make(chan error, 2*writers)
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RecordSignal(ctx, "u1", Signal{Kind: domain.SignalSymptom, Value: fmt.Sprintf("symptom %d", i)})
			errs <- err
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RecordInteraction(ctx, "u1", Interaction{
				Message: fmt.Sprintf("message %d", i),
				Items:   domain.DetectedItems{Surgeries: []string{fmt.Sprintf("surgery %d", i%5)}},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent write: %v", err)
		}
	}

	lead, err := svc.GetLead(ctx, "u1")
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if lead.TotalMessages != 2*writers {
		t.Fatalf("expected %d messages, got %d", 2*writers, lead.TotalMessages)
	}
	if len(lead.History) != 2*writers {
		t.Fatalf("expected %d history entries, got %d", 2*writers, len(lead.History))
	}
	if len(lead.Symptoms) != writers || len(lead.SurgeriesInterested) != 5 {
		t.Fatalf("expected %d symptoms and 5 surgeries, got %d and %d", writers, len(lead.Symptoms), len(lead.SurgeriesInterested))
	}
}

func TestListLeadsPagesCoverEveryLeadOnce(t *testing.T) {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		leads    int
		pageSize int
		tieGroup int
	}{
		{"ties of four", 23, 5, 4},
		{"all tied", 12, 5, 12},
		{"exact pages", 20, 10, 3},
		{"no ties", 7, 2, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(nil)
			ctx := context.Background()
			for i := 0; i < tc.leads; i++ {
				at := base.Add(time.Duration(i/tc.tieGroup) * time.Minute)
				svc.now = func() time.Time { return at }
				if _, err := svc.UpsertLead(ctx, fmt.Sprintf("lead-%02d", i), domain.PlatformWeb); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}

			seen := make(map[string]bool)
			var all []domain.Lead
			for page := 1; ; page++ {
				res, err := svc.ListLeads(ctx, page, tc.pageSize, "")
				if err != nil {
					t.Fatalf("list page %d: %v", page, err)
				}
				if res.Total != tc.leads {
					t.Fatalf("expected total %d, got %d", tc.leads, res.Total)
				}
				if len(res.Items) == 0 {
					break
				}
				all = append(all, res.Items...)
			}

			if len(all) != tc.leads {
				t.Fatalf("expected %d leads across pages, got %d", tc.leads, len(all))
			}
			for i, lead := range all {
				if seen[lead.UserID] {
					t.Fatalf("lead %s returned twice", lead.UserID)
				}
				seen[lead.UserID] = true
				if i == 0 {
					continue
				}
				prev := all[i-1]
				if lead.LastInteraction.After(prev.LastInteraction) {
					t.Fatalf("lead %s is newer than %s", lead.UserID, prev.UserID)
				}
				if lead.LastInteraction.Equal(prev.LastInteraction) && lead.UserID < prev.UserID {
					t.Fatalf("tied leads out of order: %s after %s", lead.UserID, prev.UserID)
				}
			}
		})
	}
}

func TestListLeadsPagingAndFilter(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, _ = svc.UpsertLead(ctx, id, domain.PlatformWeb)
	}
	_, _ = svc.SetStatus(ctx, "b", "hot", "admin-1")

	page, err := svc.ListLeads(ctx, 0, 0, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 1 || page.PageSize != 20 || page.Total != 3 || page.TotalPages != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	hot, err := svc.ListLeads(ctx, 1, 500, "HOT")
	if err != nil {
		t.Fatalf("list hot: %v", err)
	}
	if hot.PageSize != 100 || hot.Total != 1 || hot.Items[0].UserID != "b" {
		t.Fatalf("unexpected hot page %+v", hot)
	}

	all, _ := svc.ListLeads(ctx, 2, 2, "all")
	if all.Total != 3 || all.TotalPages != 2 || len(all.Items) != 1 {
		t.Fatalf("unexpected second page %+v", all)
	}

	if _, err := svc.ListLeads(ctx, 1, 20, "lukewarm"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for bad filter, got %v", err)
	}
}

func TestCancelledContextIsUnavailable(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.UpsertLead(ctx, "u1", domain.PlatformWeb)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

type switchableWeights struct {
	mu      sync.Mutex
	weights scoring.Weights
}

func (s *switchableWeights) set(w scoring.Weights) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights = w
}

func (s *switchableWeights) ScoringWeights(context.Context) (scoring.Weights, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weights, nil
}
