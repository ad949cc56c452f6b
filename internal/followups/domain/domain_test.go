package domain

import (
	"strings"
	"testing"
	"time"
)

func TestParseType(t *testing.T) {
	for _, raw := range []string{"24h", "48h", "1week"} {
		if _, ok := ParseType(raw); !ok {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	if _, ok := ParseType("2weeks"); ok {
		t.Fatalf("expected unknown type to be rejected")
	}
}

func TestIntervals(t *testing.T) {
	if Type24h.Interval() != 24*time.Hour || Type48h.Interval() != 48*time.Hour || TypeWeek.Interval() != 168*time.Hour {
		t.Fatalf("unexpected intervals")
	}
}

func TestTypeForPicksLatestReachedStep(t *testing.T) {
	cases := []struct {
		idle time.Duration
		want Type
		ok   bool
	}{
		{23 * time.Hour, "", false},
		{24 * time.Hour, Type24h, true},
		{50 * time.Hour, Type48h, true},
		{8 * 24 * time.Hour, TypeWeek, true},
	}
	for _, tc := range cases {
		got, ok := TypeFor(tc.idle)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("idle %s: expected %q/%v, got %q/%v", tc.idle, tc.want, tc.ok, got, ok)
		}
	}
}

func TestRecommend(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	base := LeadState{Candidate: Candidate{UserID: "u1", Score: 45, Status: "cold", LastInteraction: now.Add(-30 * time.Hour)}}

	rec := Recommend(base, now)
	if !rec.ShouldSend || rec.Type != Type24h {
		t.Fatalf("expected 24h nudge, got %+v", rec)
	}

	sent := base
	sent.SentTypes = []Type{Type24h}
	if rec := Recommend(sent, now); rec.ShouldSend || rec.Reason != "24h already sent" {
		t.Fatalf("expected already sent, got %+v", rec)
	}

	booked := base
	booked.BookingIntent = true
	if rec := Recommend(booked, now); rec.ShouldSend || rec.Reason != "already converted" {
		t.Fatalf("expected converted lead to be skipped, got %+v", rec)
	}

	fresh := base
	fresh.LastInteraction = now.Add(-time.Hour)
	if rec := Recommend(fresh, now); rec.ShouldSend || rec.Reason != "too soon" {
		t.Fatalf("expected too soon, got %+v", rec)
	}
}

func TestMessageIsStablePerLeadAndPersonalized(t *testing.T) {
	c := Candidate{UserID: "994501234567", Surgeries: []string{"lasik surgery"}, Symptoms: []string{"dry eyes"}}
	first := Message(Type48h, c)
	if first != Message(Type48h, c) {
		t.Fatalf("expected the same wording for the same lead")
	}
	if !strings.Contains(first, "Lasik Surgery haqqında") {
		t.Fatalf("expected surgery reminder, got %q", first)
	}
	if !strings.Contains(first, "Simptomlarınız") {
		t.Fatalf("expected symptom line, got %q", first)
	}
	if strings.Contains(Message(Type24h, Candidate{UserID: "x"}), "Xatırlatma") {
		t.Fatalf("expected no reminder without surgeries")
	}
}
