package catalog_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oficio/internal/core/id"
)

func TestTemplateRepo_DefaultQuery(t *testing.T) {
	repo := NewTemplateRepo(nil)
	unitID := id.New()

	sql, args, err := repo.defaultQuery(unitID).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM dispatch_templates")
	assert.Contains(t, sql, "deleted_at IS NULL")
	assert.Contains(t, sql, "extraction_unit_id = $")
	assert.Contains(t, sql, "is_default = $")
	assert.Contains(t, sql, "is_active = $")
	assert.Contains(t, sql, "LIMIT 1")
	assert.Contains(t, args, unitID.String())
}

func TestTemplateRepo_FirstActiveOrdersByCreation(t *testing.T) {
	repo := NewTemplateRepo(nil)

	sql, _, err := repo.firstActiveQuery(id.New()).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ORDER BY created_at ASC, name ASC")
	assert.Contains(t, sql, "is_active = $")
	assert.NotContains(t, sql, "is_default = $")
}

func TestTemplateRepo_ByNameOnlyActive(t *testing.T) {
	repo := NewTemplateRepo(nil)

	sql, args, err := repo.byName(id.New(), "Padrão").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "name = $")
	assert.Contains(t, sql, "is_active = $")
	assert.Contains(t, args, "Padrão")
}

func TestTemplateRepo_ClearDefaultKeepsOne(t *testing.T) {
	repo := NewTemplateRepo(nil)
	unitID, keepID := id.New(), id.New()

	sql, args, err := repo.clearDefaultQuery(unitID, keepID, time.Now()).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE dispatch_templates SET is_default = $1")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "id <> $")
	assert.Contains(t, args, unitID.String())
	assert.Contains(t, args, keepID.String())
}

func TestBaseSelect_HidesDeleted(t *testing.T) {
	repo := NewTemplateRepo(nil)

	sql, _, err := repo.baseSelect().ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE deleted_at IS NULL")

	sql, _, err = repo.unscopedSelect().ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "deleted_at IS NULL")
}

func TestGetForUpdate_Suffix(t *testing.T) {
	repo := NewTemplateRepo(nil)

	sql, _, err := repo.baseSelect().Where("id = ?", id.New()).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "id = $1 FOR UPDATE")
}
