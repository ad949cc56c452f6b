// Package scoring turns a lead's accumulated signals into a 0-100 score.
// Evaluation is pure: callers pass the weights that are current at call time.
package scoring

import (
	"strings"
	"time"

	"clinic_marketing_backend/internal/leads/domain"
)

const (
	// scoreVersion tracks the scoring model in factor snapshots.
	scoreVersion = "2026-indicator-v1"

	minScore = 0
	maxScore = 100

	// multipleMessagesThreshold is the message count at which a lead is engaged.
	multipleMessagesThreshold = 3
)

// Factor names double as weight keys.
const (
	FactorSymptomMentioned = "symptom_mentioned"
	FactorSurgeryInquiry   = "surgery_inquiry"
	FactorDoctorInquiry    = "doctor_inquiry"
	FactorBookingIntent    = "booking_intent"
	FactorMultipleMessages = "multiple_messages"
	FactorReturnVisit      = "return_visit"
	FactorUrgentSymptoms   = "urgent_symptoms"
	FactorPriceInquiry     = "price_inquiry"
)

// Inputs are the signal indicators of one lead.
type Inputs struct {
	HasSymptom       bool
	HasSurgery       bool
	HasDoctor        bool
	BookingIntent    bool
	MultipleMessages bool
	ReturnVisit      bool
	UrgentSymptoms   bool
	PriceInquiry     bool
}

// Result is the outcome of one evaluation.
type Result struct {
	Score   int
	Status  domain.Status
	Factors map[string]int
	Version string
}

// InputsFor extracts indicators from a lead.
func InputsFor(lead *domain.Lead) Inputs {
	return Inputs{
		HasSymptom:       len(lead.Symptoms) > 0,
		HasSurgery:       len(lead.SurgeriesInterested) > 0,
		HasDoctor:        len(lead.DoctorsInquired) > 0,
		BookingIntent:    lead.BookingIntentDetected,
		MultipleMessages: lead.TotalMessages >= multipleMessagesThreshold,
		ReturnVisit:      IsReturnVisit(lead.FirstContact, lead.LastInteraction),
		UrgentSymptoms:   HasUrgentSymptom(lead.Symptoms),
		PriceInquiry:     lead.PriceInquiryDetected,
	}
}

// IsReturnVisit reports whether two timestamps fall on different UTC calendar days.
func IsReturnVisit(firstContact, lastInteraction time.Time) bool {
	fy, fm, fd := firstContact.UTC().Date()
	ly, lm, ld := lastInteraction.UTC().Date()
	return fy != ly || fm != lm || fd != ld
}

// Evaluate sums the weights of every present indicator and clamps to [0,100].
// Status is the threshold-table status for the score.
func Evaluate(in Inputs, weights Weights) Result {
	w := weights.Clamped()
	factors := make(map[string]int)

	addFactor(factors, FactorSymptomMentioned, in.HasSymptom, w.SymptomMentioned)
	addFactor(factors, FactorSurgeryInquiry, in.HasSurgery, w.SurgeryInquiry)
	addFactor(factors, FactorDoctorInquiry, in.HasDoctor, w.DoctorInquiry)
	addFactor(factors, FactorBookingIntent, in.BookingIntent, w.BookingIntent)
	addFactor(factors, FactorMultipleMessages, in.MultipleMessages, w.MultipleMessages)
	addFactor(factors, FactorReturnVisit, in.ReturnVisit, w.ReturnVisit)
	addFactor(factors, FactorUrgentSymptoms, in.UrgentSymptoms, w.UrgentSymptoms)
	addFactor(factors, FactorPriceInquiry, in.PriceInquiry, w.PriceInquiry)

	total := 0
	for _, v := range factors {
		total += v
	}
	score := clampScore(total)

	return Result{
		Score:   score,
		Status:  domain.DeriveStatus(score),
		Factors: factors,
		Version: scoreVersion,
	}
}

// Apply evaluates the lead and writes the score and next status onto it.
// It returns the evaluation and the status the lead had before.
func Apply(lead *domain.Lead, weights Weights) (Result, domain.Status) {
	previous := lead.Status
	res := Evaluate(InputsFor(lead), weights)
	lead.Score = res.Score
	lead.Status = domain.NextStatus(lead.Status, lead.StatusLocked, res.Score)
	return res, previous
}

func addFactor(factors map[string]int, name string, present bool, weight int) {
	if present && weight > 0 {
		factors[name] = weight
	}
}

func clampScore(value int) int {
	if value < minScore {
		return minScore
	}
	if value > maxScore {
		return maxScore
	}
	return value
}

// HasUrgentSymptom reports whether any symptom tag contains an urgent keyword.
func HasUrgentSymptom(symptoms []string) bool {
	for _, s := range symptoms {
		if IsUrgentSymptom(s) {
			return true
		}
	}
	return false
}

// IsUrgentSymptom matches a single tag against the urgent keyword list.
func IsUrgentSymptom(symptom string) bool {
	lowered := strings.ToLower(symptom)
	for _, kw := range urgentKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
