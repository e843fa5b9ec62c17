package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oficio/internal/core/apperror"
	"oficio/internal/domain"
	"oficio/internal/domain/templates"
)

func newTemplateService(s *testStore) *templates.Service {
	return templates.NewService(templates.ServiceConfig{
		Repo:      s.tmpl,
		Units:     s.units,
		TxManager: s.tx,
		Audit:     s.audit,
	})
}

func TestTemplates_SingleDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	svc := newTemplateService(s)

	first := &templates.Template{ExtractionUnitID: unit.ID, Name: "Padrão", IsActive: true, IsDefault: true}
	require.NoError(t, svc.Save(ctx, testActor, first))

	second := &templates.Template{ExtractionUnitID: unit.ID, Name: "Novo", IsActive: true, IsDefault: true}
	require.NoError(t, svc.Save(ctx, testActor, second))

	def, err := svc.GetDefault(ctx, unit.ID)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)

	reloaded, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
	assert.Equal(t, 2, reloaded.Version)

	list, err := svc.List(ctx, unit.ID, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.TotalCount)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Novo", list.Items[0].Name)
}

func TestTemplates_GetDefaultFallsBackToFirstActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	svc := newTemplateService(s)

	def, err := svc.GetDefault(ctx, unit.ID)
	require.NoError(t, err)
	assert.Nil(t, def)

	inactive := &templates.Template{ExtractionUnitID: unit.ID, Name: "Antigo", IsActive: false}
	require.NoError(t, svc.Save(ctx, testActor, inactive))
	active := &templates.Template{ExtractionUnitID: unit.ID, Name: "Atual", IsActive: true}
	require.NoError(t, svc.Save(ctx, testActor, active))

	def, err = svc.GetDefault(ctx, unit.ID)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, active.ID, def.ID)

	byName, err := svc.GetByName(ctx, unit.ID, "Atual")
	require.NoError(t, err)
	assert.Equal(t, active.ID, byName.ID)

	_, err = svc.GetByName(ctx, unit.ID, "Antigo")
	assert.True(t, apperror.IsNotFound(err))
}

func TestTemplates_StaleVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	svc := newTemplateService(s)

	tmpl := &templates.Template{ExtractionUnitID: unit.ID, Name: "Padrão", IsActive: true}
	require.NoError(t, svc.Save(ctx, testActor, tmpl))

	stale := *tmpl
	tmpl.Description = "v2"
	require.NoError(t, svc.Save(ctx, testActor, tmpl))

	stale.Description = "lost"
	err := svc.Save(ctx, testActor, &stale)
	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
}

func TestTemplates_ConcurrentDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	svc := newTemplateService(s)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tmpl := &templates.Template{
				ExtractionUnitID: unit.ID,
				Name:             "Modelo " + string(rune('A'+i)),
				IsActive:         true,
				IsDefault:        true,
			}
			assert.NoError(t, svc.Save(ctx, testActor, tmpl))
		}(i)
	}
	wg.Wait()

	var defaults int
	err := s.tx.GetQuerier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dispatch_templates WHERE extraction_unit_id = ? AND is_default = 1`, unit.ID).Scan(&defaults)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults)
}
