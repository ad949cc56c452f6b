package validator

import (
	"strings"
	"testing"
)

type weightsPayload struct {
	BookingIntent *int `json:"booking_intent" validate:"required,min=0,max=50"`
}

func TestMessagesUseJSONFieldNames(t *testing.T) {
	val := New()
	over := 80

	err := val.Struct(weightsPayload{BookingIntent: &over})
	if err == nil {
		t.Fatalf("expected validation error for weight above 50")
	}

	msgs := Messages(err)
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "booking_intent: max=50") {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestRequiredPointerRejectsMissingField(t *testing.T) {
	val := New()
	if err := val.Struct(weightsPayload{}); err == nil {
		t.Fatalf("expected required error for missing weight")
	}
	zero := 0
	if err := val.Struct(weightsPayload{BookingIntent: &zero}); err != nil {
		t.Fatalf("expected zero weight to be accepted, got %v", err)
	}
}
