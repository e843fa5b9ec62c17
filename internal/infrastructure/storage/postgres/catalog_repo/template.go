package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"oficio/internal/core/id"
	"oficio/internal/domain"
	"oficio/internal/domain/templates"
	"oficio/internal/infrastructure/storage/postgres"
	"oficio/internal/infrastructure/storage/structmap"
)

const templatesTable = "dispatch_templates"

// TemplateRepo implements templates.Repository.
type TemplateRepo struct {
	*BaseCatalogRepo[*templates.Template]
}

var _ templates.Repository = (*TemplateRepo)(nil)

// NewTemplateRepo creates a new template repository.
func NewTemplateRepo(txManager *postgres.TxManager) *TemplateRepo {
	return &TemplateRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			templatesTable,
			"Template",
			structmap.Columns[templates.Template](),
			func() *templates.Template { return &templates.Template{} },
		),
	}
}

// byName selects the active template named name in the unit.
func (r *TemplateRepo) byName(unitID id.ID, name string) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"extraction_unit_id": unitID, "name": name, "is_active": true}).
		Limit(1)
}

func (r *TemplateRepo) GetByName(ctx context.Context, unitID id.ID, name string) (*templates.Template, error) {
	return r.FindOne(ctx, r.byName(unitID, name), name)
}

// defaultQuery selects the active default template of the unit.
func (r *TemplateRepo) defaultQuery(unitID id.ID) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"extraction_unit_id": unitID, "is_default": true, "is_active": true}).
		Limit(1)
}

func (r *TemplateRepo) FindDefault(ctx context.Context, unitID id.ID) (*templates.Template, error) {
	return r.FindOne(ctx, r.defaultQuery(unitID), unitID.String())
}

// firstActiveQuery selects the oldest active template; name breaks ties.
func (r *TemplateRepo) firstActiveQuery(unitID id.ID) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"extraction_unit_id": unitID, "is_active": true}).
		OrderBy("created_at ASC", "name ASC").
		Limit(1)
}

func (r *TemplateRepo) FirstActive(ctx context.Context, unitID id.ID) (*templates.Template, error) {
	return r.FindOne(ctx, r.firstActiveQuery(unitID), unitID.String())
}

func (r *TemplateRepo) List(ctx context.Context, unitID id.ID, filter domain.ListFilter) (domain.ListResult[*templates.Template], error) {
	return r.BaseCatalogRepo.List(ctx, squirrel.Eq{"extraction_unit_id": unitID}, filter)
}

// clearDefaultQuery unsets the default flag on the unit's other templates.
// Version is bumped so stale copies fail their next optimistic update.
func (r *TemplateRepo) clearDefaultQuery(unitID, keepID id.ID, at time.Time) squirrel.UpdateBuilder {
	return r.Builder().
		Update(templatesTable).
		Set("is_default", false).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", at).
		Where(squirrel.Eq{"extraction_unit_id": unitID, "is_default": true}).
		Where(squirrel.NotEq{"id": keepID})
}

func (r *TemplateRepo) ClearDefault(ctx context.Context, unitID, keepID id.ID) (int64, error) {
	sql, args, err := r.clearDefaultQuery(unitID, keepID, time.Now().UTC()).ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.Classify("clear default template", err)
	}
	return tag.RowsAffected(), nil
}
