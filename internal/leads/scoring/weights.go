package scoring

import "context"

// MaxWeight is the largest weight an operator can configure.
const MaxWeight = 50

// Weights is one integer weight per signal kind.
type Weights struct {
	SymptomMentioned int `json:"symptom_mentioned" yaml:"symptom_mentioned"`
	SurgeryInquiry   int `json:"surgery_inquiry" yaml:"surgery_inquiry"`
	DoctorInquiry    int `json:"doctor_inquiry" yaml:"doctor_inquiry"`
	BookingIntent    int `json:"booking_intent" yaml:"booking_intent"`
	MultipleMessages int `json:"multiple_messages" yaml:"multiple_messages"`
	ReturnVisit      int `json:"return_visit" yaml:"return_visit"`
	UrgentSymptoms   int `json:"urgent_symptoms" yaml:"urgent_symptoms"`
	PriceInquiry     int `json:"price_inquiry" yaml:"price_inquiry"`
}

// DefaultWeights are used when no configuration has been stored or the
// configuration store cannot be read.
func DefaultWeights() Weights {
	return Weights{
		SymptomMentioned: 25,
		SurgeryInquiry:   15,
		DoctorInquiry:    20,
		BookingIntent:    40,
		MultipleMessages: 10,
		ReturnVisit:      15,
		UrgentSymptoms:   35,
		PriceInquiry:     30,
	}
}

// Clamped returns a copy with every weight within [0, MaxWeight].
func (w Weights) Clamped() Weights {
	return Weights{
		SymptomMentioned: clampWeight(w.SymptomMentioned),
		SurgeryInquiry:   clampWeight(w.SurgeryInquiry),
		DoctorInquiry:    clampWeight(w.DoctorInquiry),
		BookingIntent:    clampWeight(w.BookingIntent),
		MultipleMessages: clampWeight(w.MultipleMessages),
		ReturnVisit:      clampWeight(w.ReturnVisit),
		UrgentSymptoms:   clampWeight(w.UrgentSymptoms),
		PriceInquiry:     clampWeight(w.PriceInquiry),
	}
}

func clampWeight(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxWeight {
		return MaxWeight
	}
	return v
}

// WeightsSource supplies the weights current at evaluation time.
type WeightsSource interface {
	ScoringWeights(ctx context.Context) (Weights, error)
}
