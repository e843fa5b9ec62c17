package units

import (
	"context"

	"oficio/internal/core/id"
)

// Repository reads and seeds organisational units.
// Soft-deleted rows are invisible to every read.
type Repository interface {
	GetAgency(ctx context.Context, id id.ID) (*Agency, error)
	GetExtractionUnit(ctx context.Context, id id.ID) (*ExtractionUnit, error)
	GetAgencyUnit(ctx context.Context, id id.ID) (*AgencyUnit, error)

	// LockExtractionUnit reads the unit with a row lock held until the
	// surrounding transaction ends. Serializes writes scoped to one unit.
	LockExtractionUnit(ctx context.Context, id id.ID) (*ExtractionUnit, error)

	CreateAgency(ctx context.Context, a *Agency) error
	CreateExtractionUnit(ctx context.Context, u *ExtractionUnit) error
	CreateAgencyUnit(ctx context.Context, u *AgencyUnit) error
}
