package transport

import (
	"time"

	"clinic_marketing_backend/internal/leads/domain"
)

// Ingest

type UpsertLeadRequest struct {
	UserID   string `json:"userId" validate:"required,max=255"`
	Platform string `json:"platform" validate:"omitempty,oneof=web whatsapp telegram facebook instagram"`
}

type RecordSignalRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=symptom surgery doctor booking_intent price_inquiry message"`
	Value    string `json:"value" validate:"max=200"`
	Message  string `json:"message" validate:"max=4000"`
	Platform string `json:"platform" validate:"omitempty,oneof=web whatsapp telegram facebook instagram"`
}

type RecordInteractionRequest struct {
	Message       string   `json:"message" validate:"max=4000"`
	Symptoms      []string `json:"symptoms" validate:"max=50,dive,max=200"`
	Surgeries     []string `json:"surgeries" validate:"max=50,dive,max=200"`
	Doctors       []string `json:"doctors" validate:"max=50,dive,max=200"`
	BookingIntent bool     `json:"bookingIntent"`
	PriceInquiry  bool     `json:"priceInquiry"`
	Platform      string   `json:"platform" validate:"omitempty,oneof=web whatsapp telegram facebook instagram"`
}

// Admin

type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListLeadsRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Status   string `form:"status"`
}

type HistoryEntryResponse struct {
	Timestamp     time.Time `json:"timestamp"`
	Message       string    `json:"message"`
	Symptoms      []string  `json:"symptoms,omitempty"`
	Surgeries     []string  `json:"surgeries,omitempty"`
	Doctors       []string  `json:"doctors,omitempty"`
	BookingIntent bool      `json:"bookingIntent,omitempty"`
	PriceInquiry  bool      `json:"priceInquiry,omitempty"`
}

type LeadResponse struct {
	UserID                string                 `json:"userId"`
	Platform              string                 `json:"platform"`
	FirstContact          time.Time              `json:"firstContact"`
	LastInteraction       time.Time              `json:"lastInteraction"`
	TotalMessages         int                    `json:"totalMessages"`
	Symptoms              []string               `json:"symptoms"`
	SurgeriesInterested   []string               `json:"surgeriesInterested"`
	DoctorsInquired       []string               `json:"doctorsInquired"`
	LeadScore             int                    `json:"leadScore"`
	LeadStatus            string                 `json:"leadStatus"`
	StatusLocked          bool                   `json:"statusLocked"`
	BookingIntentDetected bool                   `json:"bookingIntentDetected"`
	PriceInquiryDetected  bool                   `json:"priceInquiryDetected"`
	ConversationHistory   []HistoryEntryResponse `json:"conversationHistory,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// ToLeadResponse maps a lead; history is included only for detail views.
func ToLeadResponse(lead domain.Lead, withHistory bool) LeadResponse {
	resp := LeadResponse{
		UserID:                lead.UserID,
		Platform:              string(lead.Platform),
		FirstContact:          lead.FirstContact,
		LastInteraction:       lead.LastInteraction,
		TotalMessages:         lead.TotalMessages,
		Symptoms:              nonNil(lead.Symptoms),
		SurgeriesInterested:   nonNil(lead.SurgeriesInterested),
		DoctorsInquired:       nonNil(lead.DoctorsInquired),
		LeadScore:             lead.Score,
		LeadStatus:            string(lead.Status),
		StatusLocked:          lead.StatusLocked,
		BookingIntentDetected: lead.BookingIntentDetected,
		PriceInquiryDetected:  lead.PriceInquiryDetected,
		CreatedAt:             lead.CreatedAt,
		UpdatedAt:             lead.UpdatedAt,
	}
	if withHistory {
		resp.ConversationHistory = make([]HistoryEntryResponse, 0, len(lead.History))
		for _, h := range lead.History {
			resp.ConversationHistory = append(resp.ConversationHistory, HistoryEntryResponse{
				Timestamp:     h.Timestamp,
				Message:       h.Message,
				Symptoms:      h.Items.Symptoms,
				Surgeries:     h.Items.Surgeries,
				Doctors:       h.Items.Doctors,
				BookingIntent: h.Items.BookingIntent,
				PriceInquiry:  h.Items.PriceInquiry,
			})
		}
	}
	return resp
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
