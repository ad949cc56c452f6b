package service

import (
	"time"

	"clinic_marketing_backend/internal/events"
	"clinic_marketing_backend/internal/leads/domain"
	"clinic_marketing_backend/internal/leads/scoring"
)

// signalRecords turns newly added items into funnel milestones. Items the lead
// already had produce nothing.
func signalRecords(userID string, added domain.DetectedItems, now time.Time) []domain.ConversionEvent {
	var out []domain.ConversionEvent
	record := func(eventType string, data map[string]interface{}) {
		out = append(out, domain.ConversionEvent{UserID: userID, EventType: eventType, Data: data, CreatedAt: now})
	}

	for _, doctor := range added.Doctors {
		record(domain.EventDoctorInquiry, map[string]interface{}{"doctor": doctor})
	}
	if added.PriceInquiry {
		record(domain.EventPriceInquiry, map[string]interface{}{})
	}
	if added.BookingIntent {
		record(domain.EventBookingIntent, map[string]interface{}{})
	}

	var urgent []string
	for _, symptom := range added.Symptoms {
		if scoring.IsUrgentSymptom(symptom) {
			urgent = append(urgent, symptom)
		}
	}
	if len(urgent) > 0 {
		record(domain.EventUrgentSymptoms, map[string]interface{}{"symptoms": urgent})
	}
	return out
}

func becameHotRecord(lead *domain.Lead, previous domain.Status, res scoring.Result, now time.Time) domain.ConversionEvent {
	factors := make(map[string]interface{}, len(res.Factors))
	for k, v := range res.Factors {
		factors[k] = v
	}
	return domain.ConversionEvent{
		UserID:    lead.UserID,
		EventType: domain.EventBecameHot,
		Data: map[string]interface{}{
			"score":           res.Score,
			"previous_status": string(previous),
			"factors":         factors,
			"version":         res.Version,
		},
		CreatedAt: now,
	}
}

func hotEvent(lead *domain.Lead, previous domain.Status) *events.LeadBecameHot {
	return &events.LeadBecameHot{
		BaseEvent:      events.NewBaseEvent(),
		UserID:         lead.UserID,
		Platform:       string(lead.Platform),
		Score:          lead.Score,
		PreviousStatus: string(previous),
		Symptoms:       append([]string(nil), lead.Symptoms...),
		Surgeries:      append([]string(nil), lead.SurgeriesInterested...),
		Doctors:        append([]string(nil), lead.DoctorsInquired...),
		BookingIntent:  lead.BookingIntentDetected,
		UrgentSymptoms: scoring.HasUrgentSymptom(lead.Symptoms),
	}
}
