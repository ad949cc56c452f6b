package domain

import (
	"testing"
	"time"
)

func TestDeriveStatusThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  Status
	}{
		{0, StatusNew},
		{19, StatusNew},
		{20, StatusCold},
		{40, StatusCold},
		{49, StatusCold},
		{50, StatusWarm},
		{79, StatusWarm},
		{80, StatusHot},
		{100, StatusHot},
	}
	for _, tc := range cases {
		got := DeriveStatus(tc.score)
		if got != tc.want {
			t.Errorf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
		if again := DeriveStatus(tc.score); again != got {
			t.Errorf("score %d: derivation not idempotent", tc.score)
		}
		if !IsKnownStatus(got) {
			t.Errorf("score %d: derived unknown status %s", tc.score, got)
		}
	}
}

func TestNextStatusIsMonotonicAndRespectsOverrides(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		locked  bool
		score   int
		want    Status
	}{
		{"heats up", StatusNew, false, 85, StatusHot},
		{"never cools automatically", StatusHot, false, 10, StatusHot},
		{"converted is terminal", StatusConverted, false, 100, StatusConverted},
		{"converted survives low score", StatusConverted, false, 0, StatusConverted},
		{"locked override wins", StatusCold, true, 95, StatusCold},
		{"warm stays warm at warm score", StatusWarm, false, 60, StatusWarm},
	}
	for _, tc := range cases {
		if got := NextStatus(tc.current, tc.locked, tc.score); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Converted "); !ok || s != StatusConverted {
		t.Fatalf("expected converted, got %q %v", s, ok)
	}
	if _, ok := ParseStatus("lukewarm"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestMergeKeepsSetSemantics(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lead := NewLead("u1", PlatformWeb, now)

	added := lead.Merge(DetectedItems{Surgeries: []string{"glaucoma"}, BookingIntent: true})
	if len(added.Surgeries) != 1 || !added.BookingIntent {
		t.Fatalf("expected first merge to report additions, got %+v", added)
	}

	added = lead.Merge(DetectedItems{Surgeries: []string{"glaucoma"}, BookingIntent: true})
	if len(added.Surgeries) != 0 || added.BookingIntent {
		t.Fatalf("expected repeat merge to add nothing, got %+v", added)
	}
	if len(lead.SurgeriesInterested) != 1 {
		t.Fatalf("expected one surgery, got %v", lead.SurgeriesInterested)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"  Blurry   Vision ", "blurry vision", "", "Eye Pain"})
	if len(got) != 2 || got[0] != "blurry vision" || got[1] != "eye pain" {
		t.Fatalf("unexpected tags %v", got)
	}
}

func TestTouchCountsMessages(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lead := NewLead("u1", PlatformWeb, start)
	lead.Touch(start)
	lead.Touch(start.Add(time.Hour))

	if lead.TotalMessages != 2 {
		t.Fatalf("expected 2 messages, got %d", lead.TotalMessages)
	}
	if !lead.LastInteraction.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected last interaction to advance, got %s", lead.LastInteraction)
	}
}
