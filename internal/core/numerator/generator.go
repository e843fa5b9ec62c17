// Package numerator provides domain contracts for dispatch numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"

	"oficio/internal/core/id"
)

// Counter issues per-unit, per-year dispatch sequence numbers.
// This is the domain contract - implementations live in infrastructure layer.
//
// Values issued for one (unit, year) key are unique and start at 1.
// Concurrent callers for the same key are serialized by the storage layer.
type Counter interface {
	// NextNumber increments the counter for (unitID, year) and returns the new value.
	// The counter row is created on first use. Returns NotFound when the unit
	// does not exist or is soft-deleted, TransientStorage when a retry may succeed.
	NextNumber(ctx context.Context, unitID id.ID, year int) (int64, error)

	// Current returns the last issued value, or 0 when nothing was issued yet.
	Current(ctx context.Context, unitID id.ID, year int) (int64, error)

	// SetLastNumber overwrites the last issued value (for migrating legacy numbering).
	SetLastNumber(ctx context.Context, unitID id.ID, year int, value int64) error
}
