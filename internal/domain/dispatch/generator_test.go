package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oficio/internal/core/apperror"
	"oficio/internal/core/entity"
	"oficio/internal/core/id"
	"oficio/internal/core/numerator"
	"oficio/internal/domain/templates"
	"oficio/internal/domain/units"
	"oficio/internal/odt"
)

type fakeUnits struct {
	agencies   map[id.ID]*units.Agency
	extraction map[id.ID]*units.ExtractionUnit
	requesters map[id.ID]*units.AgencyUnit
}

func newFakeUnits() *fakeUnits {
	return &fakeUnits{
		agencies:   map[id.ID]*units.Agency{},
		extraction: map[id.ID]*units.ExtractionUnit{},
		requesters: map[id.ID]*units.AgencyUnit{},
	}
}

func (f *fakeUnits) GetAgency(_ context.Context, key id.ID) (*units.Agency, error) {
	if a, ok := f.agencies[key]; ok {
		return a, nil
	}
	return nil, apperror.NewNotFound("Agency", key)
}

func (f *fakeUnits) GetExtractionUnit(_ context.Context, key id.ID) (*units.ExtractionUnit, error) {
	if u, ok := f.extraction[key]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("ExtractionUnit", key)
}

func (f *fakeUnits) GetAgencyUnit(_ context.Context, key id.ID) (*units.AgencyUnit, error) {
	if u, ok := f.requesters[key]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("AgencyUnit", key)
}

type fakeTemplates struct {
	def *templates.Template
	err error
}

func (f *fakeTemplates) GetDefault(context.Context, id.ID) (*templates.Template, error) {
	return f.def, f.err
}

// countingCounter hands out 1, 2, 3... per key.
type countingCounter struct {
	numerator.MockCounter
	calls int
	last  map[string]int64
}

func newCountingCounter() *countingCounter {
	c := &countingCounter{last: map[string]int64{}}
	c.NextNumberFunc = func(_ context.Context, unitID id.ID, year int) (int64, error) {
		c.calls++
		key := unitID.String() + "/" + time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
		c.last[key]++
		return c.last[key], nil
	}
	return c
}

var issueTime = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

type fixture struct {
	units     *fakeUnits
	templates *fakeTemplates
	counter   *countingCounter
	gen       *Generator
	unit      *units.ExtractionUnit
	subject   Subject
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		units:     newFakeUnits(),
		templates: &fakeTemplates{},
		counter:   newCountingCounter(),
	}
	f.unit = &units.ExtractionUnit{
		BaseEntity:       entity.NewBaseEntity(),
		Acronym:          "NUCEX",
		Name:             "Núcleo de Extrações",
		InchargeName:     "Maria Silva",
		InchargePosition: "Delegada",
	}
	f.units.extraction[f.unit.ID] = f.unit
	unitID := f.unit.ID
	f.subject = Subject{CaseID: id.New(), CaseNumber: "2026/123", ExtractionUnitID: &unitID}

	f.gen = NewGenerator(f.templates, f.units, f.counter, DefaultConfig()).
		WithClock(func() time.Time { return issueTime })
	return f
}

func contentOf(t *testing.T, file []byte) string {
	t.Helper()
	doc, err := odt.Open(file)
	require.NoError(t, err)
	content, ok := doc.Part(odt.PartContent)
	require.True(t, ok)
	return string(content)
}

func TestGenerate_FallbackWithoutTemplates(t *testing.T) {
	f := newFixture(t)

	res, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)

	assert.Equal(t, "001_2026", res.Number)
	assert.Equal(t, int64(1), res.Sequence)
	assert.Equal(t, "Ofício 001_2026 NUCEX", res.FullLabel)
	assert.Equal(t, "Ofício 001_2026 NUCEX - UNIDADE - encaminhando material e dados.odt", res.Filename)
	assert.Equal(t, odt.MIMEType, res.ContentType)
	assert.Nil(t, res.TemplateID)
	assert.Equal(t, 1, f.counter.calls)

	content := contentOf(t, res.File)
	assert.Contains(t, content, "Ofício Nº 001_2026 - NUCEX")
	assert.Contains(t, content, "Fortaleza, 19 de outubro de 2026")
	assert.Contains(t, content, "Processo: 2026/123")
	assert.Contains(t, content, "Maria Silva")
	assert.Contains(t, content, "S.S.P.D.S. CEARÁ")
	assert.NotContains(t, content, "Ao(à)")
}

func TestGenerate_SecondCallGetsNextNumber(t *testing.T) {
	f := newFixture(t)

	first, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)
	second, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)

	assert.Equal(t, "001_2026", first.Number)
	assert.Equal(t, "002_2026", second.Number)
}

func TestGenerate_RequesterAndLogo(t *testing.T) {
	f := newFixture(t)
	agency := &units.Agency{BaseEntity: entity.NewBaseEntity(), Name: "SSPDS", MainLogo: []byte("GIF89a....")}
	f.units.agencies[agency.ID] = agency
	f.unit.AgencyID = &agency.ID

	req := &units.AgencyUnit{BaseEntity: entity.NewBaseEntity(), Acronym: "DP/01", Name: "1º Distrito Policial"}
	f.units.requesters[req.ID] = req
	f.subject.RequesterUnitID = &req.ID

	res, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)

	assert.Equal(t, "Ofício 001_2026 NUCEX - DP-01 - encaminhando material e dados.odt", res.Filename)
	assert.Contains(t, contentOf(t, res.File), "Ao(à) 1º Distrito Policial")

	doc, err := odt.Open(res.File)
	require.NoError(t, err)
	logo, ok := doc.Part("Pictures/logo.gif")
	require.True(t, ok)
	assert.Equal(t, agency.MainLogo, logo)
}

func TestGenerate_MissingRequesterDegrades(t *testing.T) {
	f := newFixture(t)
	missing := id.New()
	f.subject.RequesterUnitID = &missing

	res, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)
	assert.Contains(t, res.Filename, " - UNIDADE - ")
}

func TestGenerate_DefaultTemplateWithContent(t *testing.T) {
	f := newFixture(t)
	pkg, err := odt.NewBuilder().
		Paragraph("Ofício {{ dispatch_number_formatted }} para {{requester_unit_acronym}} {{unknown_token}}").
		Bytes()
	require.NoError(t, err)

	tmpl := &templates.Template{
		BaseEntity:       entity.NewBaseEntity(),
		ExtractionUnitID: f.unit.ID,
		Name:             "Padrão",
		Content:          pkg,
		IsActive:         true,
		IsDefault:        true,
	}
	f.templates.def = tmpl

	res, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)

	require.NotNil(t, res.TemplateID)
	assert.Equal(t, tmpl.ID, *res.TemplateID)
	content := contentOf(t, res.File)
	assert.Contains(t, content, "Ofício 001_2026 para  {{unknown_token}}")
}

func TestGenerate_ContentlessTemplateUsesSections(t *testing.T) {
	f := newFixture(t)
	f.templates.def = &templates.Template{
		BaseEntity:       entity.NewBaseEntity(),
		ExtractionUnitID: f.unit.ID,
		Name:             "Seções",
		HeaderText:       "GOVERNO DO ESTADO",
		BodyText:         "Segue o ofício {{dispatch_full_number}}.",
		IsActive:         true,
	}

	res, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)

	content := contentOf(t, res.File)
	assert.Contains(t, content, "GOVERNO DO ESTADO")
	assert.Contains(t, content, "Segue o ofício Ofício 001_2026 NUCEX.")
	assert.NotContains(t, content, "S.S.P.D.S. CEARÁ")
	assert.Nil(t, res.TemplateID)
}

func TestGenerate_NoExtractionUnit(t *testing.T) {
	f := newFixture(t)
	f.subject.ExtractionUnitID = nil

	_, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, f.counter.calls)
}

func TestGenerate_UnknownUnit(t *testing.T) {
	f := newFixture(t)
	missing := id.New()
	f.subject.ExtractionUnitID = &missing

	_, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	assert.True(t, apperror.IsNotFound(err))
	assert.Zero(t, f.counter.calls)
}

func TestGenerate_BrokenTemplateIsRenderError(t *testing.T) {
	f := newFixture(t)
	tmpl := &templates.Template{
		BaseEntity:       entity.NewBaseEntity(),
		ExtractionUnitID: f.unit.ID,
		Name:             "Quebrado",
		Content:          []byte("not a zip"),
		IsActive:         true,
	}

	_, err := f.gen.Generate(context.Background(), Request{Subject: f.subject, Template: tmpl})
	require.Error(t, err)
	assert.True(t, apperror.IsRender(err))
	assert.Equal(t, 1, f.counter.calls)
}

func TestGenerate_TemplateOfAnotherUnit(t *testing.T) {
	f := newFixture(t)
	tmpl := &templates.Template{BaseEntity: entity.NewBaseEntity(), ExtractionUnitID: id.New(), Name: "x"}

	_, err := f.gen.Generate(context.Background(), Request{Subject: f.subject, Template: tmpl})
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, f.counter.calls)
}

func TestGenerate_CounterErrorPropagates(t *testing.T) {
	f := newFixture(t)
	storageErr := apperror.NewTransientStorage("next number", errors.New("deadlock"))
	f.counter.NextNumberFunc = func(context.Context, id.ID, int) (int64, error) {
		return 0, storageErr
	}

	_, err := f.gen.Generate(context.Background(), Request{Subject: f.subject})
	assert.True(t, apperror.IsTransient(err))
}

func TestGenerate_YearFollowsLocation(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("BRT", -3*3600)
	cfg := DefaultConfig()
	cfg.Location = loc

	var gotYear int
	f.counter.NextNumberFunc = func(_ context.Context, _ id.ID, year int) (int64, error) {
		gotYear = year
		return 7, nil
	}
	gen := NewGenerator(f.templates, f.units, f.counter, cfg).
		WithClock(func() time.Time { return time.Date(2027, 1, 1, 1, 0, 0, 0, time.UTC) })

	res, err := gen.Generate(context.Background(), Request{Subject: f.subject})
	require.NoError(t, err)
	assert.Equal(t, 2026, gotYear)
	assert.Equal(t, "007_2026", res.Number)
}
