package catalog_repo

import (
	"context"

	"oficio/internal/core/id"
	"oficio/internal/domain/units"
	"oficio/internal/infrastructure/storage/postgres"
	"oficio/internal/infrastructure/storage/structmap"
)

// UnitRepo implements units.Repository over three tables sharing one
// transaction manager.
type UnitRepo struct {
	agencies   *BaseCatalogRepo[*units.Agency]
	extraction *BaseCatalogRepo[*units.ExtractionUnit]
	requesters *BaseCatalogRepo[*units.AgencyUnit]
}

var _ units.Repository = (*UnitRepo)(nil)

// NewUnitRepo creates a new unit repository.
func NewUnitRepo(txManager *postgres.TxManager) *UnitRepo {
	return &UnitRepo{
		agencies: NewBaseCatalogRepo(txManager, "agencies", "Agency",
			structmap.Columns[units.Agency](), func() *units.Agency { return &units.Agency{} }),
		extraction: NewBaseCatalogRepo(txManager, "extraction_units", "ExtractionUnit",
			structmap.Columns[units.ExtractionUnit](), func() *units.ExtractionUnit { return &units.ExtractionUnit{} }),
		requesters: NewBaseCatalogRepo(txManager, "agency_units", "AgencyUnit",
			structmap.Columns[units.AgencyUnit](), func() *units.AgencyUnit { return &units.AgencyUnit{} }),
	}
}

func (r *UnitRepo) GetAgency(ctx context.Context, agencyID id.ID) (*units.Agency, error) {
	return r.agencies.GetByID(ctx, agencyID)
}

func (r *UnitRepo) GetExtractionUnit(ctx context.Context, unitID id.ID) (*units.ExtractionUnit, error) {
	return r.extraction.GetByID(ctx, unitID)
}

func (r *UnitRepo) GetAgencyUnit(ctx context.Context, unitID id.ID) (*units.AgencyUnit, error) {
	return r.requesters.GetByID(ctx, unitID)
}

func (r *UnitRepo) LockExtractionUnit(ctx context.Context, unitID id.ID) (*units.ExtractionUnit, error) {
	return r.extraction.GetForUpdate(ctx, unitID)
}

func (r *UnitRepo) CreateAgency(ctx context.Context, a *units.Agency) error {
	return r.agencies.Create(ctx, a)
}

func (r *UnitRepo) CreateExtractionUnit(ctx context.Context, u *units.ExtractionUnit) error {
	return r.extraction.Create(ctx, u)
}

func (r *UnitRepo) CreateAgencyUnit(ctx context.Context, u *units.AgencyUnit) error {
	return r.requesters.Create(ctx, u)
}
