package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"oficio/internal/core/apperror"
)

func errorCode(err error) (int, bool) {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code(), true
	}
	return 0, false
}

// IsTransient reports a busy or locked database, or an expired deadline.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := errorCode(err); ok {
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsUniqueViolation reports a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	code, ok := errorCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// IsNoRows reports an empty single-row result.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// classify wraps err as a TransientStorage AppError when a retry may help.
// AppErrors pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if IsTransient(err) {
		return apperror.NewTransientStorage(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
