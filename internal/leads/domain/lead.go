// Package domain holds the lead aggregate and its update rules.
package domain

import (
	"slices"
	"strings"
	"time"
)

// Platform is the channel the lead talks to the clinic through.
type Platform string

const (
	PlatformWeb       Platform = "web"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformTelegram  Platform = "telegram"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// ParsePlatform normalizes a platform name; empty means web.
func ParsePlatform(raw string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PlatformWeb, true
	case PlatformWeb, PlatformWhatsApp, PlatformTelegram, PlatformFacebook, PlatformInstagram:
		return p, true
	}
	return "", false
}

// Lead is one tracked visitor or conversation.
type Lead struct {
	UserID                string
	Platform              Platform
	FirstContact          time.Time
	LastInteraction       time.Time
	TotalMessages         int
	Symptoms              []string
	SurgeriesInterested   []string
	DoctorsInquired       []string
	Score                 int
	Status                Status
	StatusLocked          bool
	BookingIntentDetected bool
	PriceInquiryDetected  bool
	History               []HistoryEntry
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HistoryEntry is one appended conversation turn.
type HistoryEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Items     DetectedItems `json:"items"`
}

// DetectedItems are the signals the agent extracted from one message.
type DetectedItems struct {
	Symptoms      []string `json:"symptoms,omitempty"`
	Surgeries     []string `json:"surgeries,omitempty"`
	Doctors       []string `json:"doctors,omitempty"`
	BookingIntent bool     `json:"booking_intent,omitempty"`
	PriceInquiry  bool     `json:"price_inquiry,omitempty"`
}

// NewLead returns a lead with creation defaults. TotalMessages starts at zero;
// the first touch counts the message that created it.
func NewLead(userID string, platform Platform, now time.Time) *Lead {
	return &Lead{
		UserID:              userID,
		Platform:            platform,
		FirstContact:        now,
		LastInteraction:     now,
		Symptoms:            []string{},
		SurgeriesInterested: []string{},
		DoctorsInquired:     []string{},
		Status:              StatusNew,
		History:             []HistoryEntry{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Touch records one inbound message.
func (l *Lead) Touch(now time.Time) {
	l.TotalMessages++
	if now.After(l.LastInteraction) {
		l.LastInteraction = now
	}
}

// Merge folds detected items into the lead's sets and sticky flags and
// reports which items were new.
func (l *Lead) Merge(items DetectedItems) DetectedItems {
	var added DetectedItems
	l.Symptoms, added.Symptoms = mergeSet(l.Symptoms, items.Symptoms)
	l.SurgeriesInterested, added.Surgeries = mergeSet(l.SurgeriesInterested, items.Surgeries)
	l.DoctorsInquired, added.Doctors = mergeSet(l.DoctorsInquired, items.Doctors)

	if items.BookingIntent && !l.BookingIntentDetected {
		l.BookingIntentDetected = true
		added.BookingIntent = true
	}
	if items.PriceInquiry && !l.PriceInquiryDetected {
		l.PriceInquiryDetected = true
		added.PriceInquiry = true
	}
	return added
}

// AppendHistory adds a conversation entry.
func (l *Lead) AppendHistory(now time.Time, message string, items DetectedItems) {
	l.History = append(l.History, HistoryEntry{Timestamp: now, Message: message, Items: items})
}

// NormalizeTag folds a detected item to its set key.
func NormalizeTag(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// NormalizeTags normalizes and de-duplicates tags, dropping empties.
func NormalizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		tag := NormalizeTag(item)
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func mergeSet(existing, incoming []string) ([]string, []string) {
	var added []string
	for _, tag := range incoming {
		if tag == "" || slices.Contains(existing, tag) {
			continue
		}
		existing = append(existing, tag)
		added = append(added, tag)
	}
	return existing, added
}
