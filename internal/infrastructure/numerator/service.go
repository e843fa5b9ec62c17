// Package numerator provides the PostgreSQL implementation of dispatch numbering.
// This is the infrastructure layer - it implements core/numerator.Counter.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"oficio/internal/core/apperror"
	corenumerator "oficio/internal/core/numerator"
	"oficio/internal/core/id"
	"oficio/internal/infrastructure/storage/postgres"
)

// Querier interface for database operations.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service issues dispatch numbers from the dispatch_sequences table.
//
// The increment is a single upsert. Postgres holds the row lock it takes
// until the surrounding transaction ends, so concurrent callers for one
// (unit, year) run strictly one after another and a rolled back caller
// gives its number back.
type Service struct {
	querier func(ctx context.Context) Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Counter = (*Service)(nil)

// New creates a counter that joins the transaction carried by ctx.
func New(txManager *postgres.TxManager) *Service {
	return &Service{
		querier: func(ctx context.Context) Querier { return txManager.GetQuerier(ctx) },
	}
}

// NewWithQuerier creates a counter bound to a fixed querier.
// Use for testing scenarios.
func NewWithQuerier(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

// nextSQL inserts the first row or increments the existing one, but only
// for a live extraction unit. No row comes back for a missing unit.
const nextSQL = `
	INSERT INTO dispatch_sequences (extraction_unit_id, year, last_number, created_at, updated_at)
	SELECT $1, $2, 1, NOW(), NOW()
	WHERE EXISTS (SELECT 1 FROM extraction_units WHERE id = $1 AND deleted_at IS NULL)
	ON CONFLICT (extraction_unit_id, year)
	DO UPDATE SET last_number = dispatch_sequences.last_number + 1, updated_at = NOW()
	RETURNING last_number`

// NextNumber implements corenumerator.Counter.
func (s *Service) NextNumber(ctx context.Context, unitID id.ID, year int) (int64, error) {
	if err := validYear(year); err != nil {
		return 0, err
	}

	var n int64
	err := s.querier(ctx).QueryRow(ctx, nextSQL, unitID, year).Scan(&n)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, apperror.NewNotFound("extraction unit", unitID.String())
		}
		return 0, postgres.Classify("next dispatch number", err)
	}
	return n, nil
}

// Current implements corenumerator.Counter.
func (s *Service) Current(ctx context.Context, unitID id.ID, year int) (int64, error) {
	var n int64
	err := s.querier(ctx).QueryRow(ctx, `
		SELECT last_number FROM dispatch_sequences
		WHERE extraction_unit_id = $1 AND year = $2
	`, unitID, year).Scan(&n)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, nil
		}
		return 0, postgres.Classify("read dispatch number", err)
	}
	return n, nil
}

// SetLastNumber implements corenumerator.Counter.
func (s *Service) SetLastNumber(ctx context.Context, unitID id.ID, year int, value int64) error {
	if err := validYear(year); err != nil {
		return err
	}
	if value < 0 {
		return apperror.NewValidation("last number cannot be negative").WithDetail("value", value)
	}

	tag, err := s.querier(ctx).Exec(ctx, `
		INSERT INTO dispatch_sequences (extraction_unit_id, year, last_number, created_at, updated_at)
		SELECT $1, $2, $3, NOW(), NOW()
		WHERE EXISTS (SELECT 1 FROM extraction_units WHERE id = $1 AND deleted_at IS NULL)
		ON CONFLICT (extraction_unit_id, year)
		DO UPDATE SET last_number = EXCLUDED.last_number, updated_at = NOW()
	`, unitID, year, value)
	if err != nil {
		return postgres.Classify("set dispatch number", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("extraction unit", unitID.String())
	}
	return nil
}

func validYear(year int) error {
	if year < 1900 || year > 9999 {
		return apperror.NewValidation(fmt.Sprintf("invalid year %d", year)).WithDetail("field", "year")
	}
	return nil
}
