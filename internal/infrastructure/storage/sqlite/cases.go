package sqlite

import (
	"context"

	"oficio/internal/core/id"
	"oficio/internal/domain/cases"
	"oficio/internal/infrastructure/storage/structmap"
)

// CaseRepo implements cases.Repository.
type CaseRepo struct {
	base *baseRepo[*cases.Case]
}

var _ cases.Repository = (*CaseRepo)(nil)

// NewCaseRepo creates a new case repository.
func NewCaseRepo(txManager *TxManager) *CaseRepo {
	return &CaseRepo{
		base: newBaseRepo(txManager, "cases", "Case",
			structmap.Columns[cases.Case](), func() *cases.Case { return &cases.Case{} }),
	}
}

func (r *CaseRepo) GetByID(ctx context.Context, key id.ID) (*cases.Case, error) {
	return r.base.getByID(ctx, key)
}

// GetForUpdate reads the case. The enclosing write transaction holds the
// database lock.
func (r *CaseRepo) GetForUpdate(ctx context.Context, key id.ID) (*cases.Case, error) {
	return r.base.getByID(ctx, key)
}

func (r *CaseRepo) Create(ctx context.Context, c *cases.Case) error {
	return r.base.create(ctx, c)
}

func (r *CaseRepo) Update(ctx context.Context, c *cases.Case) error {
	return r.base.update(ctx, c)
}
