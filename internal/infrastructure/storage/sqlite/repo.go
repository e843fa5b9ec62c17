package sqlite

import (
	"context"
	"fmt"
	"math"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"oficio/internal/core/apperror"
	"oficio/internal/core/id"
	"oficio/internal/domain"
	"oficio/internal/infrastructure/storage/structmap"
)

var notDeleted = squirrel.Eq{"deleted_at": nil}

// baseRepo is the SQLite counterpart of catalog_repo.BaseCatalogRepo.
// Reads hide soft-deleted rows. Row locks are not needed: a write
// transaction already holds the database lock.
type baseRepo[T any] struct {
	txManager  *TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

func newBaseRepo[T any](txManager *TxManager, table, entityName string, cols []string, newFn func() T) *baseRepo[T] {
	return &baseRepo[T]{
		txManager:  txManager,
		tableName:  table,
		entityName: entityName,
		selectCols: cols,
		newFn:      newFn,
	}
}

func (r *baseRepo[T]) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func (r *baseRepo[T]) querier(ctx context.Context) Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *baseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(r.tableName).Where(notDeleted)
}

func (r *baseRepo[T]) columns(entity T) map[string]any {
	data := structmap.ToMap(entity)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}

func (r *baseRepo[T]) getByID(ctx context.Context, key id.ID) (T, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": key}).Limit(1), key.String())
}

func (r *baseRepo[T]) findOne(ctx context.Context, q squirrel.SelectBuilder, key any) (T, error) {
	entity := r.newFn()
	query, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}
	if err := sqlscan.Get(ctx, r.querier(ctx), entity, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, classify("select "+r.tableName, err)
	}
	return entity, nil
}

func (r *baseRepo[T]) create(ctx context.Context, entity T) error {
	query, args, err := r.builder().Insert(r.tableName).SetMap(r.columns(entity)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).ExecContext(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return apperror.NewConflict(r.entityName + " already exists").WithCause(err)
		}
		return classify("insert "+r.tableName, err)
	}
	return nil
}

func (r *baseRepo[T]) update(ctx context.Context, entity T) error {
	data := r.columns(entity)
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}
	entityID := data["id"]

	query, args, err := r.builder().
		Update(r.tableName).
		SetMap(structmap.Without(data, "id", "version", "created_at", "created_by")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID, "version": version}).
		Where(notDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperror.NewConflict(r.entityName + " conflicts with an existing row").WithCause(err)
		}
		return classify("update "+r.tableName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update "+r.tableName, err)
	}
	if n == 0 {
		return apperror.NewConcurrentModification(r.entityName, entityID)
	}

	if v, ok := any(entity).(interface{ SetVersion(int) }); ok {
		v.SetVersion(version + 1)
	}
	return nil
}

func (r *baseRepo[T]) list(ctx context.Context, where squirrel.Sqlizer, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.builder().Select(r.selectCols...).From(r.tableName)
	if !filter.IncludeDeleted {
		q = q.Where(notDeleted)
	}
	if where != nil {
		q = q.Where(where)
	}

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.querier(ctx).QueryRowContext(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, classify("count "+r.tableName, err)
	}

	orderBy, err := structmap.OrderBy(filter.OrderBy, r.selectCols)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)
	switch {
	case filter.Limit > 0:
		q = q.Limit(uint64(filter.Limit))
	case filter.Offset > 0:
		// SQLite accepts OFFSET only after LIMIT.
		q = q.Limit(math.MaxInt64)
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := sqlscan.Select(ctx, r.querier(ctx), &result.Items, query, args...); err != nil {
		return result, classify("list "+r.tableName, err)
	}
	return result, nil
}
