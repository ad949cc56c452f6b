package db

import (
	"context"
	"errors"
	"net"
	"strings"

	"clinic_marketing_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateTooManyConnections   = "53300"
	sqlStateAdminShutdown        = "57P01"
	sqlStateCannotConnectNow     = "57P03"
)

// MapError translates a store error into the apperr taxonomy so raw driver
// errors never reach callers. Errors that already carry a Kind pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.Wrap(apperr.KindNotFound, "record not found", err).WithOp(op)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), pgconn.Timeout(err):
		return apperr.Wrap(apperr.KindUnavailable, "store timed out", err).WithOp(op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return apperr.Wrap(apperr.KindConflict, "concurrent update, retry the request", err).WithOp(op)
		case sqlStateForeignKeyViolation:
			return apperr.Wrap(apperr.KindNotFound, "referenced lead not found", err).WithOp(op)
		case sqlStateTooManyConnections, sqlStateAdminShutdown, sqlStateCannotConnectNow:
			return apperr.Wrap(apperr.KindUnavailable, "store unavailable", err).WithOp(op)
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return apperr.Wrap(apperr.KindUnavailable, "store unavailable", err).WithOp(op)
		}
		return apperr.Wrap(apperr.KindInternal, "store failure", err).WithOp(op)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperr.Wrap(apperr.KindUnavailable, "store unavailable", err).WithOp(op)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Wrap(apperr.KindUnavailable, "store unavailable", err).WithOp(op)
	}

	return apperr.Wrap(apperr.KindInternal, "store failure", err).WithOp(op)
}
