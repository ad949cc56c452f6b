// Package domain holds the follow-up cadence: which idle leads get nudged, when
// and with what text.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Type is one step of the re-engagement cadence.
type Type string

const (
	Type24h  Type = "24h"
	Type48h  Type = "48h"
	TypeWeek Type = "1week"
)

var allTypes = []Type{Type24h, Type48h, TypeWeek}

// AllTypes returns the cadence in ascending order of idle time.
func AllTypes() []Type {
	return slices.Clone(allTypes)
}

// ParseType accepts the wire values "24h", "48h" and "1week".
func ParseType(raw string) (Type, bool) {
	t := Type(raw)
	return t, slices.Contains(allTypes, t)
}

// Interval is the idle time after which the step becomes due.
func (t Type) Interval() time.Duration {
	switch t {
	case Type48h:
		return 48 * time.Hour
	case TypeWeek:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// TypeFor returns the latest step an idle period has reached.
func TypeFor(idle time.Duration) (Type, bool) {
	for i := len(allTypes) - 1; i >= 0; i-- {
		if idle >= allTypes[i].Interval() {
			return allTypes[i], true
		}
	}
	return "", false
}

// FollowUp is one recorded nudge. A lead gets at most one per type.
type FollowUp struct {
	ID               uuid.UUID
	UserID           string
	Type             Type
	SentAt           time.Time
	ResponseReceived bool
	RespondedAt      *time.Time
}

// Candidate is a lead due for a nudge.
type Candidate struct {
	UserID          string
	Platform        string
	Score           int
	Status          string
	LastInteraction time.Time
	Symptoms        []string
	Surgeries       []string
}

// RecentFollowUp is a follow-up joined with the lead's current score.
type RecentFollowUp struct {
	FollowUp
	Score  int
	Status string
}

// LeadState is what the recommendation needs to know about one lead.
type LeadState struct {
	Candidate
	BookingIntent bool
	SentTypes     []Type
}

// Recommendation says whether a lead should be nudged right now.
type Recommendation struct {
	ShouldSend bool
	Reason     string
	Type       Type
	Score      int
	Idle       time.Duration
}

const statusConverted = "converted"

// Recommend picks the step for one lead at now, if any.
func Recommend(state LeadState, now time.Time) Recommendation {
	if state.BookingIntent || state.Status == statusConverted {
		return Recommendation{Reason: "already converted", Score: state.Score}
	}
	idle := now.Sub(state.LastInteraction)
	t, ok := TypeFor(idle)
	if !ok {
		return Recommendation{Reason: "too soon", Score: state.Score, Idle: idle}
	}
	if slices.Contains(state.SentTypes, t) {
		return Recommendation{Reason: string(t) + " already sent", Type: t, Score: state.Score, Idle: idle}
	}
	return Recommendation{ShouldSend: true, Type: t, Score: state.Score, Idle: idle}
}
