package sqlite

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"oficio/internal/core/id"
	"oficio/internal/domain"
	"oficio/internal/domain/templates"
	"oficio/internal/infrastructure/storage/structmap"
)

// TemplateRepo implements templates.Repository.
type TemplateRepo struct {
	*baseRepo[*templates.Template]
}

var _ templates.Repository = (*TemplateRepo)(nil)

// NewTemplateRepo creates a new template repository.
func NewTemplateRepo(txManager *TxManager) *TemplateRepo {
	return &TemplateRepo{
		baseRepo: newBaseRepo(txManager, "dispatch_templates", "Template",
			structmap.Columns[templates.Template](), func() *templates.Template { return &templates.Template{} }),
	}
}

func (r *TemplateRepo) GetByID(ctx context.Context, key id.ID) (*templates.Template, error) {
	return r.getByID(ctx, key)
}

func (r *TemplateRepo) GetByName(ctx context.Context, unitID id.ID, name string) (*templates.Template, error) {
	return r.findOne(ctx, r.baseSelect().
		Where(squirrel.Eq{"extraction_unit_id": unitID, "name": name, "is_active": true}).
		Limit(1), name)
}

func (r *TemplateRepo) FindDefault(ctx context.Context, unitID id.ID) (*templates.Template, error) {
	return r.findOne(ctx, r.baseSelect().
		Where(squirrel.Eq{"extraction_unit_id": unitID, "is_default": true, "is_active": true}).
		Limit(1), unitID.String())
}

func (r *TemplateRepo) FirstActive(ctx context.Context, unitID id.ID) (*templates.Template, error) {
	return r.findOne(ctx, r.baseSelect().
		Where(squirrel.Eq{"extraction_unit_id": unitID, "is_active": true}).
		OrderBy("created_at ASC", "name ASC").
		Limit(1), unitID.String())
}

func (r *TemplateRepo) List(ctx context.Context, unitID id.ID, filter domain.ListFilter) (domain.ListResult[*templates.Template], error) {
	return r.list(ctx, squirrel.Eq{"extraction_unit_id": unitID}, filter)
}

func (r *TemplateRepo) Create(ctx context.Context, t *templates.Template) error {
	return r.create(ctx, t)
}

func (r *TemplateRepo) Update(ctx context.Context, t *templates.Template) error {
	return r.update(ctx, t)
}

func (r *TemplateRepo) ClearDefault(ctx context.Context, unitID, keepID id.ID) (int64, error) {
	query, args, err := r.builder().
		Update("dispatch_templates").
		Set("is_default", false).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"extraction_unit_id": unitID, "is_default": true}).
		Where(squirrel.NotEq{"id": keepID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify("clear default template", err)
	}
	return res.RowsAffected()
}
