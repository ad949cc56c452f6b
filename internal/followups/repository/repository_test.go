package repository

import (
	"strings"
	"testing"
)

func TestDueQueryExcludesBookedAndAlreadyNudgedLeads(t *testing.T) {
	for _, fragment := range []string{
		"booking_intent_detected = FALSE",
		"lead_status IN ('cold', 'warm', 'hot')",
		"NOT EXISTS",
		"ORDER BY l.lead_score DESC",
	} {
		if !strings.Contains(dueQuery, fragment) {
			t.Fatalf("expected due query to contain %q", fragment)
		}
	}
}

func TestScheduleIsUniquePerLeadAndType(t *testing.T) {
	if !strings.Contains(insertQuery, "ON CONFLICT (user_id, follow_up_type) DO NOTHING") {
		t.Fatalf("expected insert to ignore duplicates")
	}
	if !strings.Contains(bumpSentQuery, "follow_ups_sent = marketing_analytics.follow_ups_sent + 1") {
		t.Fatalf("expected sent counter bump")
	}
}

func TestRespondTargetsLatestUnanswered(t *testing.T) {
	for _, fragment := range []string{"response_received = FALSE", "ORDER BY sent_at DESC", "LIMIT 1"} {
		if !strings.Contains(respondQuery, fragment) {
			t.Fatalf("expected respond query to contain %q", fragment)
		}
	}
}
