package sqlite

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oficio/internal/core/audit"
	"oficio/internal/core/entity"
	"oficio/internal/core/id"
	"oficio/internal/core/outbox"
	"oficio/internal/domain/cases"
	"oficio/internal/domain/dispatch"
	"oficio/internal/domain/templates"
	"oficio/internal/odt"
)

func newCaseService(s *testStore, issuedAt time.Time) *cases.Service {
	tmpl := newTemplateService(s)
	gen := dispatch.NewGenerator(tmpl, s.units, s.counter, dispatch.DefaultConfig()).
		WithClock(func() time.Time { return issuedAt })
	return cases.NewService(cases.ServiceConfig{
		Repo:      s.cases,
		Generator: gen,
		Templates: tmpl,
		TxManager: s.tx,
		Audit:     s.audit,
		Outbox:    s.outbox,
	})
}

func seedCase(t *testing.T, svc *cases.Service, unitID id.ID, number string) *cases.Case {
	t.Helper()
	c := &cases.Case{Number: number, Status: cases.StatusInProgress, ExtractionUnitID: &unitID}
	require.NoError(t, svc.Create(context.Background(), testActor, c))
	return c
}

func TestCases_CompleteIssuesDispatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	svc := newCaseService(s, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))

	c := seedCase(t, svc, unit.ID, "2024.000123")
	done, err := svc.Complete(ctx, testActor, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "001_2024", done.DispatchNumber)

	stored, err := svc.DispatchFile(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "001_2024", stored.DispatchNumber)
	assert.Equal(t, odt.MIMEType, stored.DispatchMIMEType())
	require.NoError(t, odt.Validate(stored.DispatchFile))
	require.NotNil(t, stored.DispatchDate)

	pending, err := s.outbox.PendingEvents(ctx, outbox.EventDispatchIssued)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	var issued int
	err = s.tx.GetQuerier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sys_audit WHERE entity_id = ? AND action = ?`,
		c.ID, string(audit.ActionDispatchIssued)).Scan(&issued)
	require.NoError(t, err)
	assert.Equal(t, 1, issued)
}

func TestCases_ConcurrentCompletionsGetConsecutiveNumbers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	svc := newCaseService(s, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	first := seedCase(t, svc, unit.ID, "2024.000001")
	second := seedCase(t, svc, unit.ID, "2024.000002")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
	)
	for _, c := range []*cases.Case{first, second} {
		wg.Add(1)
		go func(caseID id.ID) {
			defer wg.Done()
			done, err := svc.Complete(ctx, testActor, caseID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers = append(numbers, done.DispatchNumber)
			mu.Unlock()
		}(c.ID)
	}
	wg.Wait()

	sort.Strings(numbers)
	assert.Equal(t, []string{"001_2024", "002_2024"}, numbers)

	cur, err := s.counter.Current(ctx, unit.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cur)
}

func TestCases_FailedGenerationKeepsCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	svc := newCaseService(s, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	// The repository stores content as given; only the service validates it.
	broken := &templates.Template{
		BaseEntity:       entity.NewBaseEntity(),
		ExtractionUnitID: unit.ID,
		Name:             "Corrompido",
		Content:          []byte("not a zip package"),
		IsActive:         true,
		IsDefault:        true,
	}
	require.NoError(t, s.tmpl.Create(ctx, broken))

	c := seedCase(t, svc, unit.ID, "2024.000009")
	done, err := svc.Complete(ctx, testActor, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cases.StatusCompleted, done.Status)
	assert.False(t, done.HasDispatch())

	cur, err := s.counter.Current(ctx, unit.ID, 2024)
	require.NoError(t, err)
	assert.Zero(t, cur)
}
