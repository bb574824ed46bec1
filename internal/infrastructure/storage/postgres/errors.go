package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"cmsearch/internal/core/apperror"
)

// SQLSTATE raised when statement_timeout cancels a query.
const codeQueryCanceled = "57014"

// MapError converts a driver failure into an AppError. Statement timeouts
// and expired deadlines become TIMEOUT_ERROR; other server or connection
// failures become DATABASE_ERROR. nil, AppErrors and errors that did not
// come from the driver are returned unchanged.
func MapError(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == codeQueryCanceled {
			return apperror.NewTimeout(err)
		}
		return apperror.NewDatabase(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return apperror.NewTimeout(err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperror.NewDatabase(err)
	}
	return err
}
