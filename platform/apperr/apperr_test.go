package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("lead not found"), http.StatusNotFound},
		{Validation("invalid status"), http.StatusBadRequest},
		{BadRequest("bad"), http.StatusBadRequest},
		{Conflict("retry"), http.StatusConflict},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{Unavailable("store timeout"), http.StatusServiceUnavailable},
		{Internal("boom"), http.StatusInternalServerError},
		{New(KindUnknown, "?"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestGetKindFollowsWrapChain(t *testing.T) {
	base := Unavailable("store unavailable")
	wrapped := fmt.Errorf("record signal: %w", base)

	if GetKind(wrapped) != KindUnavailable {
		t.Fatalf("expected unavailable kind through wrap chain")
	}
	if !Is(wrapped, KindUnavailable) {
		t.Fatalf("expected Is to match wrapped kind")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for untyped error")
	}
}

func TestRetryable(t *testing.T) {
	if !Unavailable("x").Retryable() || !Conflict("x").Retryable() {
		t.Fatalf("expected unavailable and conflict to be retryable")
	}
	if NotFound("x").Retryable() || Validation("x").Retryable() {
		t.Fatalf("expected not found and validation to be final")
	}
}

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	err := Wrap(KindInternal, "store failure", errors.New("disk full")).WithOp("leads.upsert")
	if got := err.Error(); got != "leads.upsert: store failure: disk full" {
		t.Fatalf("unexpected message %q", got)
	}
}
