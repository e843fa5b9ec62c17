package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"oficio/internal/core/audit"
	"oficio/internal/core/entity"
	"oficio/internal/domain/units"
)

var testActor = audit.System("test")

type testStore struct {
	tx      *TxManager
	units   *UnitRepo
	tmpl    *TemplateRepo
	cases   *CaseRepo
	counter *Counter
	audit   *AuditRecorder
	outbox  *OutboxPublisher
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "oficio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	txm := NewTxManager(db)
	return &testStore{
		tx:      txm,
		units:   NewUnitRepo(txm),
		tmpl:    NewTemplateRepo(txm),
		cases:   NewCaseRepo(txm),
		counter: NewCounter(txm),
		audit:   NewAuditRecorder(txm),
		outbox:  NewOutboxPublisher(txm),
	}
}

func (s *testStore) seedUnit(t *testing.T, acronym string) *units.ExtractionUnit {
	t.Helper()
	ctx := context.Background()

	agency := &units.Agency{BaseEntity: entity.NewBaseEntity(), Acronym: "PEFOCE", Name: "Perícia Forense"}
	require.NoError(t, s.units.CreateAgency(ctx, agency))

	unit := &units.ExtractionUnit{
		BaseEntity:       entity.NewBaseEntity(),
		AgencyID:         &agency.ID,
		Acronym:          acronym,
		Name:             "Núcleo de Extração " + acronym,
		InchargeName:     "Maria Souza",
		InchargePosition: "Perita Chefe",
	}
	require.NoError(t, s.units.CreateExtractionUnit(ctx, unit))
	return unit
}
