// Package document_repo provides the PostgreSQL repository for cases, the
// documents dispatches are attached to.
package document_repo

import (
	"context"

	"oficio/internal/core/id"
	"oficio/internal/domain/cases"
	"oficio/internal/infrastructure/storage/postgres"
	"oficio/internal/infrastructure/storage/postgres/catalog_repo"
	"oficio/internal/infrastructure/storage/structmap"
)

const casesTable = "cases"

// CaseRepo implements cases.Repository.
type CaseRepo struct {
	base *catalog_repo.BaseCatalogRepo[*cases.Case]
}

var _ cases.Repository = (*CaseRepo)(nil)

// NewCaseRepo creates a new case repository.
func NewCaseRepo(txManager *postgres.TxManager) *CaseRepo {
	return &CaseRepo{
		base: catalog_repo.NewBaseCatalogRepo(
			txManager,
			casesTable,
			"Case",
			structmap.Columns[cases.Case](),
			func() *cases.Case { return &cases.Case{} },
		),
	}
}

func (r *CaseRepo) GetByID(ctx context.Context, caseID id.ID) (*cases.Case, error) {
	return r.base.GetByID(ctx, caseID)
}

func (r *CaseRepo) GetForUpdate(ctx context.Context, caseID id.ID) (*cases.Case, error) {
	return r.base.GetForUpdate(ctx, caseID)
}

func (r *CaseRepo) Create(ctx context.Context, c *cases.Case) error {
	return r.base.Create(ctx, c)
}

func (r *CaseRepo) Update(ctx context.Context, c *cases.Case) error {
	return r.base.Update(ctx, c)
}
