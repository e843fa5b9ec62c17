package cases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oficio/internal/core/apperror"
	"oficio/internal/core/audit"
	"oficio/internal/core/entity"
	"oficio/internal/core/id"
	"oficio/internal/core/outbox"
	"oficio/internal/domain/dispatch"
	"oficio/internal/domain/templates"
	"oficio/internal/odt"
)

type fakeTx struct {
	savepoints int
}

func (f *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTx) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	f.savepoints++
	return fn(ctx)
}

type fakeRepo struct {
	rows map[id.ID]Case
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[id.ID]Case{}}
}

func (r *fakeRepo) GetByID(_ context.Context, key id.ID) (*Case, error) {
	c, ok := r.rows[key]
	if !ok {
		return nil, apperror.NewNotFound("Case", key)
	}
	return &c, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, key id.ID) (*Case, error) {
	return r.GetByID(ctx, key)
}

func (r *fakeRepo) Create(_ context.Context, c *Case) error {
	r.rows[c.ID] = *c
	return nil
}

func (r *fakeRepo) Update(_ context.Context, c *Case) error {
	stored, ok := r.rows[c.ID]
	if !ok || stored.Version != c.Version {
		return apperror.NewConcurrentModification("Case", c.ID)
	}
	c.Version++
	r.rows[c.ID] = *c
	return nil
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req dispatch.Request) (*dispatch.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*dispatch.Result)
	return res, args.Error(1)
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAudit) actions() []audit.Action {
	out := make([]audit.Action, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingOutbox struct {
	events []outbox.Event
}

func (r *recordingOutbox) Publish(_ context.Context, e outbox.Event) error {
	r.events = append(r.events, e)
	return nil
}

type stubTemplates struct {
	byID   map[id.ID]*templates.Template
	byName map[string]*templates.Template
}

func (s *stubTemplates) Get(_ context.Context, key id.ID) (*templates.Template, error) {
	if t, ok := s.byID[key]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("dispatch template", key)
}

func (s *stubTemplates) GetByName(_ context.Context, _ id.ID, name string) (*templates.Template, error) {
	if t, ok := s.byName[name]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("dispatch template", name)
}

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type env struct {
	repo  *fakeRepo
	gen   *mockGenerator
	tx    *fakeTx
	audit *recordingAudit
	out   *recordingOutbox
	tpls  *stubTemplates
	svc   *Service
	actor audit.Actor
}

func newEnv() *env {
	e := &env{
		repo:  newFakeRepo(),
		gen:   &mockGenerator{},
		tx:    &fakeTx{},
		audit: &recordingAudit{},
		out:   &recordingOutbox{},
		tpls:  &stubTemplates{byID: map[id.ID]*templates.Template{}, byName: map[string]*templates.Template{}},
		actor: audit.Actor{UserID: "u-1", Source: "api"},
	}
	e.svc = NewService(ServiceConfig{
		Repo:      e.repo,
		Generator: e.gen,
		Templates: e.tpls,
		TxManager: e.tx,
		Audit:     e.audit,
		Outbox:    e.out,
		Clock:     func() time.Time { return now },
	})
	return e
}

func (e *env) seed(status Status) *Case {
	unitID := id.New()
	c := &Case{
		BaseEntity:       entity.NewBaseEntity(),
		Number:           "2026/77",
		Status:           status,
		ExtractionUnitID: &unitID,
	}
	e.repo.rows[c.ID] = *c
	return c
}

func result(number string) *dispatch.Result {
	return &dispatch.Result{
		Number:      number,
		Sequence:    1,
		FullLabel:   "Ofício " + number + " NUCEX",
		IssueDate:   now,
		File:        []byte("odt"),
		Filename:    "Ofício " + number + " NUCEX - UNIDADE - encaminhando material e dados.odt",
		ContentType: odt.MIMEType,
	}
}

func TestSave_CompletionIssuesDispatch(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusInProgress)
	e.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r dispatch.Request) bool {
		return r.Subject.CaseID == c.ID && r.Template == nil
	})).Return(result("001_2026"), nil).Once()

	c.Status = StatusCompleted
	c.FinishedAt = &now
	require.NoError(t, e.svc.Save(context.Background(), e.actor, c))

	stored := e.repo.rows[c.ID]
	assert.Equal(t, "001_2026", stored.DispatchNumber)
	assert.Equal(t, []byte("odt"), stored.DispatchFile)
	assert.Equal(t, odt.MIMEType, stored.DispatchContentType)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 1, e.tx.savepoints)

	require.Len(t, e.out.events, 1)
	assert.Equal(t, outbox.EventDispatchIssued, e.out.events[0].EventType)
	payload := e.out.events[0].Payload.(DispatchIssued)
	assert.Equal(t, "001_2026", payload.Number)
	assert.Equal(t, []audit.Action{audit.ActionUpdate, audit.ActionDispatchIssued}, e.audit.actions())
	e.gen.AssertExpectations(t)
}

func TestSave_NoRegenerationWhenDispatchExists(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusCompleted)
	c.FinishedAt = &now
	c.AttachDispatch(result("005_2026"))
	e.repo.rows[c.ID] = *c

	c.Status = StatusCompleted
	require.NoError(t, e.svc.Save(context.Background(), e.actor, c))

	e.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	assert.Equal(t, "005_2026", e.repo.rows[c.ID].DispatchNumber)
	assert.Empty(t, e.out.events)
}

func TestSave_DispatchRecordIsImmutable(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusPaused)
	c.AttachDispatch(result("003_2026"))
	e.repo.rows[c.ID] = *c

	c.DispatchNumber = ""
	c.DispatchFile = nil
	c.Status = StatusCompleted
	c.FinishedAt = &now
	require.NoError(t, e.svc.Save(context.Background(), e.actor, c))

	e.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	stored := e.repo.rows[c.ID]
	assert.Equal(t, "003_2026", stored.DispatchNumber)
	assert.Equal(t, []byte("odt"), stored.DispatchFile)
}

func TestSave_IgnoresIncomingDispatchFields(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusInProgress)

	c.AttachDispatch(result("999_2026"))
	c.Status = StatusPaused
	require.NoError(t, e.svc.Save(context.Background(), e.actor, c))

	e.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	stored := e.repo.rows[c.ID]
	assert.False(t, stored.HasDispatch())
	assert.Empty(t, stored.DispatchFile)
	assert.Nil(t, stored.DispatchDate)
	assert.Empty(t, e.out.events)
}

func TestSave_IncomingDispatchFieldsDoNotSuppressTrigger(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusInProgress)
	e.gen.On("Generate", mock.Anything, mock.Anything).Return(result("001_2026"), nil).Once()

	c.AttachDispatch(result("999_2026"))
	c.Status = StatusCompleted
	c.FinishedAt = &now
	require.NoError(t, e.svc.Save(context.Background(), e.actor, c))

	assert.Equal(t, "001_2026", e.repo.rows[c.ID].DispatchNumber)
	require.Len(t, e.out.events, 1)
	e.gen.AssertExpectations(t)
}

func TestCreate_IgnoresDispatchFields(t *testing.T) {
	e := newEnv()
	unitID := id.New()
	c := &Case{Number: "2026/78", Status: StatusCompleted, ExtractionUnitID: &unitID}
	c.AttachDispatch(result("999_2026"))

	require.NoError(t, e.svc.Create(context.Background(), e.actor, c))

	stored := e.repo.rows[c.ID]
	assert.False(t, stored.HasDispatch())
	assert.Empty(t, stored.DispatchFilename)
}

func TestSave_GenerationFailureDoesNotBlockSave(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusInProgress)
	e.gen.On("Generate", mock.Anything, mock.Anything).
		Return(nil, apperror.NewRender("broken template", errors.New("zip: not a valid zip file"))).Once()

	c.Status = StatusCompleted
	c.FinishedAt = &now
	require.NoError(t, e.svc.Save(context.Background(), e.actor, c))

	stored := e.repo.rows[c.ID]
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.False(t, stored.HasDispatch())
	assert.Equal(t, 1, e.tx.savepoints)
	assert.Empty(t, e.out.events)
	assert.Equal(t, []audit.Action{audit.ActionUpdate}, e.audit.actions())
}

func TestSave_TriggerConditions(t *testing.T) {
	tests := []struct {
		name     string
		prev     Status
		next     Status
		finished bool
	}{
		{"not completed", StatusInProgress, StatusPaused, true},
		{"no finish time", StatusInProgress, StatusCompleted, false},
		{"already completed", StatusCompleted, StatusCompleted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			c := e.seed(tt.prev)
			c.Status = tt.next
			if tt.finished {
				c.FinishedAt = &now
			}
			require.NoError(t, e.svc.Save(context.Background(), e.actor, c))
			e.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
			assert.Zero(t, e.tx.savepoints)
		})
	}
}

func TestSave_StaleVersion(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusDraft)
	stale := *c
	c.Status = StatusInProgress
	require.NoError(t, e.svc.Save(context.Background(), e.actor, c))

	stale.Status = StatusPaused
	err := e.svc.Save(context.Background(), e.actor, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestSave_UnknownStatus(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusDraft)
	c.Status = "archived"

	err := e.svc.Save(context.Background(), e.actor, c)
	assert.True(t, apperror.IsValidation(err))
}

func TestComplete(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusInProgress)
	e.gen.On("Generate", mock.Anything, mock.Anything).Return(result("002_2026"), nil).Once()

	out, err := e.svc.Complete(context.Background(), e.actor, c.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, out.Status)
	require.NotNil(t, out.FinishedAt)
	assert.Equal(t, now, *out.FinishedAt)
	assert.Equal(t, "u-1", out.FinishedBy)
	assert.Equal(t, "002_2026", out.DispatchNumber)

	_, err = e.svc.Complete(context.Background(), e.actor, c.ID)
	assert.Equal(t, apperror.CodeBusinessRule, apperror.CodeOf(err))
}

func TestGenerateDispatch(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusCompleted)
	c.FinishedAt = &now
	e.repo.rows[c.ID] = *c

	tmpl := &templates.Template{BaseEntity: entity.NewBaseEntity(), ExtractionUnitID: *c.ExtractionUnitID, Name: "Resposta"}
	e.tpls.byName["Resposta"] = tmpl
	e.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r dispatch.Request) bool {
		return r.Template == tmpl
	})).Return(result("010_2026"), nil).Once()

	out, err := e.svc.GenerateDispatch(context.Background(), e.actor, c.ID, DispatchOptions{TemplateName: "Resposta"})
	require.NoError(t, err)
	assert.Equal(t, "010_2026", out.DispatchNumber)
	assert.Len(t, e.out.events, 1)
	assert.Zero(t, e.tx.savepoints)

	_, err = e.svc.GenerateDispatch(context.Background(), e.actor, c.ID, DispatchOptions{})
	assert.Equal(t, apperror.CodeDispatchExists, apperror.CodeOf(err))
	e.gen.AssertExpectations(t)
}

func TestGenerateDispatch_RequiresCompletedCase(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusInProgress)

	_, err := e.svc.GenerateDispatch(context.Background(), e.actor, c.ID, DispatchOptions{})
	assert.Equal(t, apperror.CodeCaseNotCompleted, apperror.CodeOf(err))
	e.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerateDispatch_PropagatesErrors(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusCompleted)
	e.gen.On("Generate", mock.Anything, mock.Anything).
		Return(nil, apperror.NewTransientStorage("next number", errors.New("serialization failure"))).Once()

	_, err := e.svc.GenerateDispatch(context.Background(), e.actor, c.ID, DispatchOptions{})
	assert.True(t, apperror.IsTransient(err))
	row := e.repo.rows[c.ID]
	assert.False(t, row.HasDispatch())
	assert.Empty(t, e.out.events)
}

func TestGenerateDispatch_UnknownTemplate(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusCompleted)
	missing := id.New()

	_, err := e.svc.GenerateDispatch(context.Background(), e.actor, c.ID, DispatchOptions{TemplateID: &missing})
	assert.True(t, apperror.IsNotFound(err))
}

func TestDispatchFile(t *testing.T) {
	e := newEnv()
	c := e.seed(StatusCompleted)

	_, err := e.svc.DispatchFile(context.Background(), c.ID)
	assert.True(t, apperror.IsNotFound(err))

	c.DispatchNumber = "004_2026"
	c.DispatchFile = []byte("odt")
	e.repo.rows[c.ID] = *c

	got, err := e.svc.DispatchFile(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "oficio_004_2026.odt", got.DispatchDownloadName())
	assert.Equal(t, odt.MIMEType, got.DispatchMIMEType())
}

func TestShouldIssueDispatch(t *testing.T) {
	prev := &Case{Status: StatusInProgress}
	next := &Case{Status: StatusCompleted, FinishedAt: &now}
	assert.True(t, shouldIssueDispatch(prev, next))

	next.DispatchNumber = "001_2026"
	assert.False(t, shouldIssueDispatch(prev, next))
}
