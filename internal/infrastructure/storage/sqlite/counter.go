package sqlite

import (
	"context"
	"time"

	"oficio/internal/core/apperror"
	"oficio/internal/core/id"
	"oficio/internal/core/numerator"
)

// Counter implements numerator.Counter on the dispatch_sequences table.
//
// Transactions begin IMMEDIATE, so the increment runs under the database
// write lock held until commit. Outside a transaction the single upsert
// statement is atomic on its own.
type Counter struct {
	txManager *TxManager
}

var _ numerator.Counter = (*Counter)(nil)

// NewCounter creates a counter.
func NewCounter(txManager *TxManager) *Counter {
	return &Counter{txManager: txManager}
}

// NextNumber implements numerator.Counter.
func (c *Counter) NextNumber(ctx context.Context, unitID id.ID, year int) (int64, error) {
	now := time.Now().UTC()
	var n int64
	err := c.txManager.GetQuerier(ctx).QueryRowContext(ctx, `
		INSERT INTO dispatch_sequences (extraction_unit_id, year, last_number, created_at, updated_at)
		SELECT ?, ?, 1, ?, ?
		WHERE EXISTS (SELECT 1 FROM extraction_units WHERE id = ? AND deleted_at IS NULL)
		ON CONFLICT (extraction_unit_id, year)
		DO UPDATE SET last_number = last_number + 1, updated_at = excluded.updated_at
		RETURNING last_number
	`, unitID, year, now, now, unitID).Scan(&n)
	if err != nil {
		if IsNoRows(err) {
			return 0, apperror.NewNotFound("extraction unit", unitID.String())
		}
		return 0, classify("next dispatch number", err)
	}
	return n, nil
}

// Current implements numerator.Counter.
func (c *Counter) Current(ctx context.Context, unitID id.ID, year int) (int64, error) {
	var n int64
	err := c.txManager.GetQuerier(ctx).QueryRowContext(ctx,
		`SELECT last_number FROM dispatch_sequences WHERE extraction_unit_id = ? AND year = ?`,
		unitID, year).Scan(&n)
	if err != nil {
		if IsNoRows(err) {
			return 0, nil
		}
		return 0, classify("read dispatch number", err)
	}
	return n, nil
}

// SetLastNumber implements numerator.Counter.
func (c *Counter) SetLastNumber(ctx context.Context, unitID id.ID, year int, value int64) error {
	if value < 0 {
		return apperror.NewValidation("last number cannot be negative").WithDetail("value", value)
	}
	now := time.Now().UTC()
	res, err := c.txManager.GetQuerier(ctx).ExecContext(ctx, `
		INSERT INTO dispatch_sequences (extraction_unit_id, year, last_number, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM extraction_units WHERE id = ? AND deleted_at IS NULL)
		ON CONFLICT (extraction_unit_id, year)
		DO UPDATE SET last_number = excluded.last_number, updated_at = excluded.updated_at
	`, unitID, year, value, now, now, unitID)
	if err != nil {
		return classify("set dispatch number", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("set dispatch number", err)
	}
	if n == 0 {
		return apperror.NewNotFound("extraction unit", unitID.String())
	}
	return nil
}
