package sqlite

import (
	"context"

	"oficio/internal/core/id"
	"oficio/internal/domain/units"
	"oficio/internal/infrastructure/storage/structmap"
)

// UnitRepo implements units.Repository.
type UnitRepo struct {
	agencies   *baseRepo[*units.Agency]
	extraction *baseRepo[*units.ExtractionUnit]
	requesters *baseRepo[*units.AgencyUnit]
}

var _ units.Repository = (*UnitRepo)(nil)

// NewUnitRepo creates a new unit repository.
func NewUnitRepo(txManager *TxManager) *UnitRepo {
	return &UnitRepo{
		agencies: newBaseRepo(txManager, "agencies", "Agency",
			structmap.Columns[units.Agency](), func() *units.Agency { return &units.Agency{} }),
		extraction: newBaseRepo(txManager, "extraction_units", "ExtractionUnit",
			structmap.Columns[units.ExtractionUnit](), func() *units.ExtractionUnit { return &units.ExtractionUnit{} }),
		requesters: newBaseRepo(txManager, "agency_units", "AgencyUnit",
			structmap.Columns[units.AgencyUnit](), func() *units.AgencyUnit { return &units.AgencyUnit{} }),
	}
}

func (r *UnitRepo) GetAgency(ctx context.Context, key id.ID) (*units.Agency, error) {
	return r.agencies.getByID(ctx, key)
}

func (r *UnitRepo) GetExtractionUnit(ctx context.Context, key id.ID) (*units.ExtractionUnit, error) {
	return r.extraction.getByID(ctx, key)
}

func (r *UnitRepo) GetAgencyUnit(ctx context.Context, key id.ID) (*units.AgencyUnit, error) {
	return r.requesters.getByID(ctx, key)
}

// LockExtractionUnit reads the unit. Inside a write transaction SQLite
// already serializes writers, so no row lock is taken.
func (r *UnitRepo) LockExtractionUnit(ctx context.Context, key id.ID) (*units.ExtractionUnit, error) {
	return r.extraction.getByID(ctx, key)
}

func (r *UnitRepo) CreateAgency(ctx context.Context, a *units.Agency) error {
	return r.agencies.create(ctx, a)
}

func (r *UnitRepo) CreateExtractionUnit(ctx context.Context, u *units.ExtractionUnit) error {
	return r.extraction.create(ctx, u)
}

func (r *UnitRepo) CreateAgencyUnit(ctx context.Context, u *units.AgencyUnit) error {
	return r.requesters.create(ctx, u)
}
