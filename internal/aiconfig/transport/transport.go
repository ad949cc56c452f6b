package transport

import (
	"time"

	"clinic_marketing_backend/internal/aiconfig/domain"
	"clinic_marketing_backend/internal/leads/scoring"
)

type DoctorRequest struct {
	ID       string `json:"id" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Title    string `json:"title" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=50"`
	WhatsApp string `json:"whatsapp" validate:"max=50"`
}

type SurgeryRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// WeightsRequest uses pointers so an omitted weight fails validation instead of reading as zero.
type WeightsRequest struct {
	SymptomMentioned *int `json:"symptom_mentioned" validate:"required,min=0,max=50"`
	SurgeryInquiry   *int `json:"surgery_inquiry" validate:"required,min=0,max=50"`
	DoctorInquiry    *int `json:"doctor_inquiry" validate:"required,min=0,max=50"`
	BookingIntent    *int `json:"booking_intent" validate:"required,min=0,max=50"`
	MultipleMessages *int `json:"multiple_messages" validate:"required,min=0,max=50"`
	ReturnVisit      *int `json:"return_visit" validate:"required,min=0,max=50"`
	UrgentSymptoms   *int `json:"urgent_symptoms" validate:"required,min=0,max=50"`
	PriceInquiry     *int `json:"price_inquiry" validate:"required,min=0,max=50"`
}

type PlatformSettingsRequest struct {
	WhatsApp  *bool `json:"whatsapp" validate:"required"`
	Telegram  *bool `json:"telegram" validate:"required"`
	Facebook  *bool `json:"facebook" validate:"required"`
	Instagram *bool `json:"instagram" validate:"required"`
}

type UpdateConfigRequest struct {
	SystemPrompt     string                   `json:"system_prompt" validate:"required,max=20000"`
	Doctors          []DoctorRequest          `json:"doctors" validate:"required,max=100,dive"`
	Surgeries        []SurgeryRequest         `json:"surgeries" validate:"required,max=200,dive"`
	ScoringWeights   *WeightsRequest          `json:"scoring_weights" validate:"required"`
	PlatformSettings *PlatformSettingsRequest `json:"platform_settings" validate:"required"`
}

type ConfigResponse struct {
	SystemPrompt     string                  `json:"system_prompt"`
	Doctors          []domain.Doctor         `json:"doctors"`
	Surgeries        []domain.Surgery        `json:"surgeries"`
	ScoringWeights   scoring.Weights         `json:"scoring_weights"`
	PlatformSettings domain.PlatformSettings `json:"platform_settings"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// ToDomain converts a validated request.
func (r UpdateConfigRequest) ToDomain() domain.Config {
	cfg := domain.Config{
		SystemPrompt: r.SystemPrompt,
		Doctors:      make([]domain.Doctor, 0, len(r.Doctors)),
		Surgeries:    make([]domain.Surgery, 0, len(r.Surgeries)),
	}
	for _, d := range r.Doctors {
		cfg.Doctors = append(cfg.Doctors, domain.Doctor(d))
	}
	for _, s := range r.Surgeries {
		cfg.Surgeries = append(cfg.Surgeries, domain.Surgery(s))
	}
	if w := r.ScoringWeights; w != nil {
		cfg.ScoringWeights = scoring.Weights{
			SymptomMentioned: deref(w.SymptomMentioned),
			SurgeryInquiry:   deref(w.SurgeryInquiry),
			DoctorInquiry:    deref(w.DoctorInquiry),
			BookingIntent:    deref(w.BookingIntent),
			MultipleMessages: deref(w.MultipleMessages),
			ReturnVisit:      deref(w.ReturnVisit),
			UrgentSymptoms:   deref(w.UrgentSymptoms),
			PriceInquiry:     deref(w.PriceInquiry),
		}
	}
	if p := r.PlatformSettings; p != nil {
		cfg.PlatformSettings = domain.PlatformSettings{
			WhatsApp:  p.WhatsApp != nil && *p.WhatsApp,
			Telegram:  p.Telegram != nil && *p.Telegram,
			Facebook:  p.Facebook != nil && *p.Facebook,
			Instagram: p.Instagram != nil && *p.Instagram,
		}
	}
	return cfg
}

// ToConfigResponse maps a stored configuration.
func ToConfigResponse(cfg domain.Config) ConfigResponse {
	doctors := cfg.Doctors
	if doctors == nil {
		doctors = []domain.Doctor{}
	}
	surgeries := cfg.Surgeries
	if surgeries == nil {
		surgeries = []domain.Surgery{}
	}
	return ConfigResponse{
		SystemPrompt:     cfg.SystemPrompt,
		Doctors:          doctors,
		Surgeries:        surgeries,
		ScoringWeights:   cfg.ScoringWeights,
		PlatformSettings: cfg.PlatformSettings,
		UpdatedAt:        cfg.UpdatedAt,
	}
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
