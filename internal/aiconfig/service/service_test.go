package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"clinic_marketing_backend/internal/aiconfig/domain"
	"clinic_marketing_backend/internal/aiconfig/transport"
	"clinic_marketing_backend/internal/leads/scoring"
	"clinic_marketing_backend/platform/apperr"
	"clinic_marketing_backend/platform/httpkit"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

type storeConfig struct{}

func (storeConfig) GetStoreTimeout() time.Duration { return time.Second }

type fakeRepo struct {
	mu      sync.Mutex
	cfg     *domain.Config
	seeds   int
	upserts int
	getErr  error
}

func (f *fakeRepo) Get(context.Context) (domain.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.Config{}, f.getErr
	}
	if f.cfg == nil {
		return domain.Config{}, apperr.NotFound("ai config not found")
	}
	return *f.cfg, nil
}

func (f *fakeRepo) Seed(_ context.Context, cfg domain.Config) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg != nil {
		return false, nil
	}
	f.seeds++
	cfg.UpdatedAt = time.Now().UTC()
	f.cfg = &cfg
	return true, nil
}

func (f *fakeRepo) Upsert(_ context.Context, cfg domain.Config) (domain.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	cfg.UpdatedAt = time.Now().UTC()
	f.cfg = &cfg
	return cfg, nil
}

func newService(repo *fakeRepo) *Service {
	return New(repo, validator.New(), nil, storeConfig{}, logger.NewWithWriter("production", io.Discard))
}

func decodeRequest(t *testing.T, raw string) (transport.UpdateConfigRequest, error) {
	t.Helper()
	var req transport.UpdateConfigRequest
	err := httpkit.DecodeStrict([]byte(raw), &req)
	return req, err
}

const validPayload = `{
	"system_prompt": "You are VERA.",
	"doctors": [{"id": "d1", "name": "Dr. One", "title": "Oftalmoloq", "phone": "", "whatsapp": ""}],
	"surgeries": [{"id": "s1", "name": "YAG laser", "description": ""}],
	"scoring_weights": {"symptom_mentioned": 10, "surgery_inquiry": 10, "doctor_inquiry": 10, "booking_intent": 50,
		"multiple_messages": 0, "return_visit": 5, "urgent_symptoms": 20, "price_inquiry": 5},
	"platform_settings": {"whatsapp": true, "telegram": false, "facebook": false, "instagram": true}
}`

func TestGetConfigSeedsOnce(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	for i := 0; i < 2; i++ {
		cfg, err := svc.GetConfig(context.Background())
		if err != nil {
			t.Fatalf("get config: %v", err)
		}
		if len(cfg.Doctors) != 4 {
			t.Fatalf("expected seeded doctors, got %d", len(cfg.Doctors))
		}
	}
	if repo.seeds != 1 {
		t.Fatalf("expected one seed, got %d", repo.seeds)
	}
}

func TestUpdateConfigRoundTrip(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	req, err := decodeRequest(t, validPayload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if _, err := svc.UpdateConfig(context.Background(), req, "admin-1"); err != nil {
		t.Fatalf("update: %v", err)
	}
	w, err := svc.ScoringWeights(context.Background())
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	want := scoring.Weights{SymptomMentioned: 10, SurgeryInquiry: 10, DoctorInquiry: 10, BookingIntent: 50, ReturnVisit: 5, UrgentSymptoms: 20, PriceInquiry: 5}
	if w != want {
		t.Fatalf("expected %+v, got %+v", want, w)
	}
}

func TestUpdateConfigRejectsOutOfRangeWeight(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	var payload map[string]interface{}
	_ = json.Unmarshal([]byte(validPayload), &payload)
	payload["scoring_weights"].(map[string]interface{})["booking_intent"] = 51
	raw, _ := json.Marshal(payload)

	req, err := decodeRequest(t, string(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, err = svc.UpdateConfig(context.Background(), req, "admin-1")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.upserts != 0 {
		t.Fatalf("invalid payload must not be written")
	}
}

func TestUpdateConfigRejectsMissingWeight(t *testing.T) {
	svc := newService(&fakeRepo{})
	var payload map[string]interface{}
	_ = json.Unmarshal([]byte(validPayload), &payload)
	delete(payload["scoring_weights"].(map[string]interface{}), "return_visit")
	raw, _ := json.Marshal(payload)

	req, _ := decodeRequest(t, string(raw))
	if _, err := svc.UpdateConfig(context.Background(), req, "admin-1"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing weight, got %v", err)
	}
}

func TestUpdateConfigRejectsDuplicateDoctorIDs(t *testing.T) {
	svc := newService(&fakeRepo{})
	var payload map[string]interface{}
	_ = json.Unmarshal([]byte(validPayload), &payload)
	doctors := payload["doctors"].([]interface{})
	payload["doctors"] = append(doctors, doctors[0])
	raw, _ := json.Marshal(payload)

	req, _ := decodeRequest(t, string(raw))
	if _, err := svc.UpdateConfig(context.Background(), req, "admin-1"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for duplicate ids, got %v", err)
	}
}

func TestUnknownFieldRejectedAtDecode(t *testing.T) {
	if _, err := decodeRequest(t, `{"system_prompt":"x","temperature":0.2}`); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestScoringWeightsPropagatesStoreError(t *testing.T) {
	svc := newService(&fakeRepo{getErr: apperr.Unavailable("store timed out")})
	if _, err := svc.ScoringWeights(context.Background()); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
