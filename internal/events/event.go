// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"clinic_marketing_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadBecameHot is published when a lead crosses into the hot bucket.
type LeadBecameHot struct {
	BaseEvent
	UserID         string   `json:"userId"`
	Platform       string   `json:"platform"`
	Score          int      `json:"score"`
	PreviousStatus string   `json:"previousStatus"`
	Symptoms       []string `json:"symptoms"`
	Surgeries      []string `json:"surgeries"`
	Doctors        []string `json:"doctors"`
	BookingIntent  bool     `json:"bookingIntent"`
	UrgentSymptoms bool     `json:"urgentSymptoms"`
}

func (e LeadBecameHot) EventName() string { return "leads.lead.became_hot" }

// LeadConverted is published when a lead books an appointment.
type LeadConverted struct {
	BaseEvent
	UserID         string `json:"userId"`
	PreviousStatus string `json:"previousStatus"`
	Score          int    `json:"score"`
}

func (e LeadConverted) EventName() string { return "leads.lead.converted" }

// LeadStatusOverridden is published when an operator sets a status by hand.
type LeadStatusOverridden struct {
	BaseEvent
	UserID         string `json:"userId"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"status"`
	Actor          string `json:"actor"`
}

func (e LeadStatusOverridden) EventName() string { return "leads.lead.status_overridden" }

// =============================================================================
// AI Config Domain Events
// =============================================================================

// AIConfigUpdated is published after the agent configuration is replaced.
type AIConfigUpdated struct {
	BaseEvent
	Actor string `json:"actor"`
}

func (e AIConfigUpdated) EventName() string { return "aiconfig.config.updated" }

// =============================================================================
// Follow-up Domain Events
// =============================================================================

// FollowUpsPlanned is published when the planner finds leads due for a nudge.
type FollowUpsPlanned struct {
	BaseEvent
	FollowUpType string   `json:"followUpType"`
	UserIDs      []string `json:"userIds"`
}

func (e FollowUpsPlanned) EventName() string { return "followups.planned" }
