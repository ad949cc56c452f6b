package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"clinic_marketing_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"no rows", pgx.ErrNoRows, apperr.KindNotFound},
		{"wrapped no rows", fmt.Errorf("get lead: %w", pgx.ErrNoRows), apperr.KindNotFound},
		{"deadline", context.DeadlineExceeded, apperr.KindUnavailable},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), apperr.KindUnavailable},
		{"serialization", &pgconn.PgError{Code: "40001"}, apperr.KindConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperr.KindConflict},
		{"fk violation", &pgconn.PgError{Code: "23503"}, apperr.KindNotFound},
		{"connection exception", &pgconn.PgError{Code: "08006"}, apperr.KindUnavailable},
		{"too many connections", &pgconn.PgError{Code: "53300"}, apperr.KindUnavailable},
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperr.KindInternal},
		{"unknown", errors.New("boom"), apperr.KindInternal},
		{"already typed", apperr.Validation("invalid status"), apperr.KindValidation},
	}

	for _, tc := range cases {
		got := MapError("test.op", tc.err)
		if kind := apperr.GetKind(got); kind != tc.want {
			t.Errorf("%s: expected kind %d, got %d", tc.name, tc.want, kind)
		}
	}
}

func TestMapErrorKeepsCause(t *testing.T) {
	got := MapError("leads.get", context.DeadlineExceeded)
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("expected mapped error to unwrap to the cause")
	}
	if MapError("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
