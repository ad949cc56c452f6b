package domain

import (
	"strings"
	"time"
)

// SignalKind names one observed signal in a conversation.
type SignalKind string

const (
	SignalSymptom       SignalKind = "symptom"
	SignalSurgery       SignalKind = "surgery"
	SignalDoctor        SignalKind = "doctor"
	SignalBookingIntent SignalKind = "booking_intent"
	SignalPriceInquiry  SignalKind = "price_inquiry"
	SignalMessage       SignalKind = "message"
)

// ParseSignalKind validates a raw signal kind.
func ParseSignalKind(raw string) (SignalKind, bool) {
	k := SignalKind(strings.ToLower(strings.TrimSpace(raw)))
	switch k {
	case SignalSymptom, SignalSurgery, SignalDoctor, SignalBookingIntent, SignalPriceInquiry, SignalMessage:
		return k, true
	}
	return "", false
}

// RequiresValue reports whether the kind adds to a set and so needs a value.
func (k SignalKind) RequiresValue() bool {
	return k == SignalSymptom || k == SignalSurgery || k == SignalDoctor
}

// Items converts a single signal into detected items.
func (k SignalKind) Items(value string) DetectedItems {
	tag := NormalizeTag(value)
	switch k {
	case SignalSymptom:
		return DetectedItems{Symptoms: []string{tag}}
	case SignalSurgery:
		return DetectedItems{Surgeries: []string{tag}}
	case SignalDoctor:
		return DetectedItems{Doctors: []string{tag}}
	case SignalBookingIntent:
		return DetectedItems{BookingIntent: true}
	case SignalPriceInquiry:
		return DetectedItems{PriceInquiry: true}
	}
	return DetectedItems{}
}

// Conversion event types written alongside lead updates.
const (
	EventPriceInquiry   = "price_inquiry"
	EventDoctorInquiry  = "doctor_inquiry"
	EventBookingIntent  = "booking_intent"
	EventUrgentSymptoms = "urgent_symptoms"
	EventBecameHot      = "became_hot"
	EventConverted      = "converted"
	EventStatusOverride = "status_override"
)

// ConversionEvent is a funnel milestone recorded for a lead.
type ConversionEvent struct {
	UserID    string
	EventType string
	Data      map[string]interface{}
	CreatedAt time.Time
}
