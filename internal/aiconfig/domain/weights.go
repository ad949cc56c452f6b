package domain

import (
	"encoding/json"
	"fmt"

	"clinic_marketing_backend/internal/leads/scoring"
)

// storedWeights distinguishes an absent key from an explicit zero.
type storedWeights struct {
	SymptomMentioned *int `json:"symptom_mentioned"`
	SurgeryInquiry   *int `json:"surgery_inquiry"`
	DoctorInquiry    *int `json:"doctor_inquiry"`
	BookingIntent    *int `json:"booking_intent"`
	MultipleMessages *int `json:"multiple_messages"`
	ReturnVisit      *int `json:"return_visit"`
	UrgentSymptoms   *int `json:"urgent_symptoms"`
	PriceInquiry     *int `json:"price_inquiry"`
}

// WeightsFromJSON decodes stored weights, taking the built-in default for
// every key that is missing.
func WeightsFromJSON(raw []byte) (scoring.Weights, error) {
	w := scoring.DefaultWeights()
	if len(raw) == 0 {
		return w, nil
	}
	var stored storedWeights
	if err := json.Unmarshal(raw, &stored); err != nil {
		return scoring.Weights{}, fmt.Errorf("decode scoring weights: %w", err)
	}
	overlay(&w.SymptomMentioned, stored.SymptomMentioned)
	overlay(&w.SurgeryInquiry, stored.SurgeryInquiry)
	overlay(&w.DoctorInquiry, stored.DoctorInquiry)
	overlay(&w.BookingIntent, stored.BookingIntent)
	overlay(&w.MultipleMessages, stored.MultipleMessages)
	overlay(&w.ReturnVisit, stored.ReturnVisit)
	overlay(&w.UrgentSymptoms, stored.UrgentSymptoms)
	overlay(&w.PriceInquiry, stored.PriceInquiry)
	return w.Clamped(), nil
}

func overlay(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
