package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"oficio/internal/core/apperror"
	"oficio/internal/core/id"
	"oficio/internal/core/numerator"
	"oficio/internal/domain"
	"oficio/internal/domain/templates"
	"oficio/internal/domain/units"
	"oficio/internal/odt"
	"oficio/pkg/logger"
)

var tracer = otel.Tracer("oficio/dispatch")

// TemplateSource resolves the default template of a unit. May return nil.
type TemplateSource interface {
	GetDefault(ctx context.Context, unitID id.ID) (*templates.Template, error)
}

// UnitReader loads the organisational data printed on a dispatch.
type UnitReader interface {
	GetAgency(ctx context.Context, id id.ID) (*units.Agency, error)
	GetExtractionUnit(ctx context.Context, id id.ID) (*units.ExtractionUnit, error)
	GetAgencyUnit(ctx context.Context, id id.ID) (*units.AgencyUnit, error)
}

// Request asks for a dispatch for Subject. Template is optional; without it
// the unit default is used, and without a default the fallback letter.
type Request struct {
	Subject  Subject
	Template *templates.Template
}

// Result is a generated dispatch ready to be attached to a case.
type Result struct {
	// Number is the formatted number, "007_2025".
	Number      string    `json:"number"`
	Sequence    int64     `json:"sequence"`
	FullLabel   string    `json:"fullLabel"`
	IssueDate   time.Time `json:"issueDate"`
	File        []byte    `json:"-"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	// TemplateID is nil when the fallback letter was used.
	TemplateID *id.ID `json:"templateId,omitempty"`
}

// Generator issues a number and renders the dispatch document.
type Generator struct {
	templates TemplateSource
	units     UnitReader
	counter   numerator.Counter
	cfg       Config
	now       func() time.Time
}

// NewGenerator creates a dispatch generator.
func NewGenerator(tpl TemplateSource, unitReader UnitReader, counter numerator.Counter, cfg Config) *Generator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Format.Separator == "" {
		cfg.Format = numerator.DefaultConfig()
	}
	return &Generator{
		templates: tpl,
		units:     unitReader,
		counter:   counter,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate issues the next number of the case's extraction unit and renders
// the dispatch. The counter is incremented exactly once per call; a render
// failure after that does not give the number back unless the caller's
// transaction is rolled back.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "dispatch.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", req.Subject.CaseID.String()))

	res, err := g.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.CodeOf(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("dispatch.number", res.Number))
	return res, nil
}

func (g *Generator) generate(ctx context.Context, req Request) (*Result, error) {
	subject := req.Subject
	if subject.ExtractionUnitID == nil || id.IsNil(*subject.ExtractionUnitID) {
		return nil, apperror.NewValidation("case has no extraction unit").
			WithDetail("caseId", subject.CaseID.String())
	}
	unitID := *subject.ExtractionUnitID

	unit, err := g.units.GetExtractionUnit(ctx, unitID)
	if err != nil {
		return nil, domain.NormalizeGetErr("extraction unit", err, unitID.String())
	}

	requester := g.requester(ctx, subject)

	tmpl := req.Template
	if tmpl == nil {
		tmpl, err = g.templates.GetDefault(ctx, unitID)
		if err != nil {
			return nil, err
		}
	} else if tmpl.ExtractionUnitID != unitID {
		return nil, apperror.NewValidation("template belongs to another extraction unit").
			WithDetail("templateId", tmpl.ID.String())
	}

	issuedAt := g.now().In(g.cfg.Location)
	seq, err := g.counter.NextNumber(ctx, unitID, issuedAt.Year())
	if err != nil {
		return nil, err
	}

	vars := Variables(VariableInput{
		Subject:   subject,
		Unit:      unit,
		Requester: requester,
		Sequence:  seq,
		IssuedAt:  issuedAt,
		Format:    g.cfg.Format,
	})

	file, err := g.render(ctx, unit, requester, tmpl, vars)
	if err != nil {
		logger.Warn(ctx, "dispatch render failed",
			"case_id", subject.CaseID,
			"unit_id", unitID,
			"sequence", seq,
			"error", err)
		if apperror.IsRender(err) {
			return nil, err
		}
		return nil, apperror.NewRender("failed to render dispatch", err)
	}

	number := vars["dispatch_number_formatted"]
	res := &Result{
		Number:      number,
		Sequence:    seq,
		FullLabel:   vars["dispatch_full_number"],
		IssueDate:   issuedAt,
		File:        file,
		Filename:    Filename(number, unit, requester),
		ContentType: odt.MIMEType,
	}
	if tmpl != nil && tmpl.HasContent() {
		tid := tmpl.ID
		res.TemplateID = &tid
	}

	logger.Info(ctx, "dispatch generated",
		"case_id", subject.CaseID,
		"unit_id", unitID,
		"number", number)
	return res, nil
}

// requester loads the requesting unit. A missing one degrades to placeholders.
func (g *Generator) requester(ctx context.Context, subject Subject) *units.AgencyUnit {
	if subject.RequesterUnitID == nil || id.IsNil(*subject.RequesterUnitID) {
		return nil
	}
	u, err := g.units.GetAgencyUnit(ctx, *subject.RequesterUnitID)
	if err != nil {
		logger.Debug(ctx, "requester unit unavailable", "id", *subject.RequesterUnitID, "error", err)
		return nil
	}
	return u
}

func (g *Generator) render(ctx context.Context, unit *units.ExtractionUnit, requester *units.AgencyUnit, tmpl *templates.Template, vars odt.Vars) ([]byte, error) {
	if tmpl != nil && tmpl.HasContent() {
		file, err := odt.Render(tmpl.Content, vars)
		if err != nil {
			return nil, apperror.NewRender("failed to render dispatch template", err).
				WithDetail("templateId", tmpl.ID.String())
		}
		return file, nil
	}

	l := &letter{
		cfg:      g.cfg.Letter,
		vars:     vars,
		template: tmpl,
		logo:     g.logo(ctx, unit),
	}
	if requester != nil {
		l.requester = requester.Name
	}
	return l.render()
}

func (g *Generator) logo(ctx context.Context, unit *units.ExtractionUnit) []byte {
	if unit.AgencyID == nil {
		return nil
	}
	a, err := g.units.GetAgency(ctx, *unit.AgencyID)
	if err != nil {
		logger.Debug(ctx, "agency logo unavailable", "agency_id", *unit.AgencyID, "error", err)
		return nil
	}
	return a.MainLogo
}
