package cases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oficio/internal/core/apperror"
	"oficio/internal/core/audit"
	"oficio/internal/core/id"
	"oficio/internal/core/outbox"
	"oficio/internal/core/tx"
	"oficio/internal/domain"
	"oficio/internal/domain/dispatch"
	"oficio/internal/domain/templates"
	"oficio/pkg/logger"
)

const entityName = "case"

// Generator issues dispatches. Implemented by dispatch.Generator.
type Generator interface {
	Generate(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

// TemplateLookup finds the template an operator asked for.
type TemplateLookup interface {
	Get(ctx context.Context, id id.ID) (*templates.Template, error)
	GetByName(ctx context.Context, unitID id.ID, name string) (*templates.Template, error)
}

// DispatchIssued is the outbox payload written when a dispatch is attached.
type DispatchIssued struct {
	CaseID           id.ID     `json:"caseId"`
	CaseNumber       string    `json:"caseNumber,omitempty"`
	ExtractionUnitID id.ID     `json:"extractionUnitId"`
	Number           string    `json:"number"`
	Filename         string    `json:"filename"`
	IssuedAt         time.Time `json:"issuedAt"`
	Source           string    `json:"source"`
}

// ServiceConfig configures the case service.
type ServiceConfig struct {
	Repo      Repository
	Generator Generator
	Templates TemplateLookup
	TxManager tx.Manager
	Audit     audit.Recorder   // optional
	Outbox    outbox.Publisher // optional
	Clock     func() time.Time
}

// Service saves cases and attaches dispatches to them.
type Service struct {
	repo      Repository
	generator Generator
	templates TemplateLookup
	txManager tx.Manager
	audit     audit.Recorder
	outbox    outbox.Publisher
	now       func() time.Time
}

// NewService creates a new case service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		generator: cfg.Generator,
		templates: cfg.Templates,
		txManager: cfg.TxManager,
		audit:     cfg.Audit,
		outbox:    cfg.Outbox,
		now:       cfg.Clock,
	}
	if s.audit == nil {
		s.audit = audit.NopRecorder{}
	}
	if s.outbox == nil {
		s.outbox = outbox.NopPublisher{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Get returns a case by ID.
func (s *Service) Get(ctx context.Context, caseID id.ID) (*Case, error) {
	c, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, domain.NormalizeGetErr(entityName, err, caseID.String())
	}
	return c, nil
}

// Create inserts a new case.
func (s *Service) Create(ctx context.Context, actor audit.Actor, c *Case) error {
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if err := c.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}
	c.PrepareNew(actor, s.now())
	c.keepDispatch(&Case{})

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create %s: %w", entityName, err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: entityName,
			EntityID:   c.ID,
			Action:     audit.ActionCreate,
			Actor:      actor,
			Changes:    map[string]any{"number": c.Number, "status": string(c.Status)},
		})
	})
}

// Save persists changes to an existing case.
//
// Before the write, the completion trigger runs: when the case moves into
// completed with a finish time and has no dispatch, one is generated inside
// a savepoint. A failed generation is logged and the case is saved without
// a dispatch; its number increment is rolled back with the savepoint.
func (s *Service) Save(ctx context.Context, actor audit.Actor, c *Case) error {
	if err := c.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		prev, err := s.repo.GetForUpdate(ctx, c.ID)
		if err != nil {
			return domain.NormalizeGetErr(entityName, err, c.ID.String())
		}

		// The dispatch record only changes through the trigger below.
		c.keepDispatch(prev)

		var issued *dispatch.Result
		if shouldIssueDispatch(prev, c) {
			issued = s.issueOnCompletion(ctx, c)
		}

		return s.write(ctx, actor, prev, c, issued)
	})
}

// issueOnCompletion runs the generator for the trigger. Errors never reach
// the caller.
func (s *Service) issueOnCompletion(ctx context.Context, c *Case) *dispatch.Result {
	var res *dispatch.Result
	err := s.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.generator.Generate(ctx, dispatch.Request{Subject: c.Subject()})
		return err
	})
	if err != nil {
		logger.Error(ctx, "dispatch generation on case completion failed",
			"case_id", c.ID,
			"case_number", c.Number,
			"code", apperror.CodeOf(err),
			"error", err)
		return nil
	}
	c.AttachDispatch(res)
	return res
}

// write stores c over prev and records the side effects of the save.
func (s *Service) write(ctx context.Context, actor audit.Actor, prev, c *Case, issued *dispatch.Result) error {
	if c.Version == 0 {
		c.Version = prev.Version
	}
	c.CreatedAt = prev.CreatedAt
	c.CreatedBy = prev.CreatedBy
	c.StampUpdated(actor, s.now())

	if err := s.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("update %s: %w", entityName, err)
	}

	if err := s.audit.Record(ctx, audit.Entry{
		EntityType: entityName,
		EntityID:   c.ID,
		Action:     audit.ActionUpdate,
		Actor:      actor,
		Changes:    audit.Diff(snapshot(prev), snapshot(c)),
	}); err != nil {
		return err
	}

	if issued == nil {
		return nil
	}
	return s.recordIssued(ctx, actor, c, issued)
}

func (s *Service) recordIssued(ctx context.Context, actor audit.Actor, c *Case, res *dispatch.Result) error {
	if err := s.outbox.Publish(ctx, outbox.Event{
		AggregateType: entityName,
		AggregateID:   c.ID,
		EventType:     outbox.EventDispatchIssued,
		Payload: DispatchIssued{
			CaseID:           c.ID,
			CaseNumber:       c.Number,
			ExtractionUnitID: *c.ExtractionUnitID,
			Number:           res.Number,
			Filename:         res.Filename,
			IssuedAt:         res.IssueDate,
			Source:           actor.Source,
		},
	}); err != nil {
		return fmt.Errorf("publish dispatch issued: %w", err)
	}

	changes := map[string]any{
		"dispatchNumber":   res.Number,
		"dispatchFilename": res.Filename,
	}
	if res.TemplateID != nil {
		changes["templateId"] = res.TemplateID.String()
	}
	return s.audit.Record(ctx, audit.Entry{
		EntityType: entityName,
		EntityID:   c.ID,
		Action:     audit.ActionDispatchIssued,
		Actor:      actor,
		Changes:    changes,
	})
}

// Complete finishes a case on behalf of actor and saves it through the
// completion trigger.
func (s *Service) Complete(ctx context.Context, actor audit.Actor, caseID id.ID) (*Case, error) {
	var out *Case
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, caseID)
		if err != nil {
			return domain.NormalizeGetErr(entityName, err, caseID.String())
		}
		if c.IsCompleted() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "case is already completed").
				WithDetail("caseId", caseID.String())
		}

		now := s.now()
		c.Status = StatusCompleted
		c.FinishedAt = &now
		c.FinishedBy = actor.UserID

		if err := s.Save(ctx, actor, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DispatchOptions selects the template for an explicit generation.
// Both empty means the unit default.
type DispatchOptions struct {
	TemplateID   *id.ID
	TemplateName string
}

// GenerateDispatch issues a dispatch for a completed case that has none.
// Unlike the completion trigger, generation errors are returned and nothing
// is written.
func (s *Service) GenerateDispatch(ctx context.Context, actor audit.Actor, caseID id.ID, opts DispatchOptions) (*Case, error) {
	var out *Case
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, caseID)
		if err != nil {
			return domain.NormalizeGetErr(entityName, err, caseID.String())
		}
		if !c.IsCompleted() {
			return apperror.NewBusinessRule(apperror.CodeCaseNotCompleted, "dispatch can only be issued for a completed case").
				WithDetail("caseId", caseID.String()).
				WithDetail("status", string(c.Status))
		}
		if c.HasDispatch() {
			return apperror.NewBusinessRule(apperror.CodeDispatchExists, "case already has a dispatch").
				WithDetail("caseId", caseID.String()).
				WithDetail("dispatchNumber", c.DispatchNumber)
		}

		tmpl, err := s.pickTemplate(ctx, c, opts)
		if err != nil {
			return err
		}

		res, err := s.generator.Generate(ctx, dispatch.Request{Subject: c.Subject(), Template: tmpl})
		if err != nil {
			return err
		}

		prev := *c
		c.AttachDispatch(res)
		if err := s.write(ctx, actor, &prev, c, res); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) pickTemplate(ctx context.Context, c *Case, opts DispatchOptions) (*templates.Template, error) {
	switch {
	case opts.TemplateID != nil && !id.IsNil(*opts.TemplateID):
		return s.templates.Get(ctx, *opts.TemplateID)
	case strings.TrimSpace(opts.TemplateName) != "" && c.ExtractionUnitID != nil:
		return s.templates.GetByName(ctx, *c.ExtractionUnitID, opts.TemplateName)
	}
	return nil, nil
}

// DispatchFile returns the stored dispatch document of a case.
func (s *Service) DispatchFile(ctx context.Context, caseID id.ID) (*Case, error) {
	c, err := s.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.HasDispatch() || len(c.DispatchFile) == 0 {
		return nil, apperror.NewNotFound("dispatch file", caseID.String())
	}
	return c, nil
}

func snapshot(c *Case) map[string]any {
	return map[string]any{
		"status":         string(c.Status),
		"finishedBy":     c.FinishedBy,
		"dispatchNumber": c.DispatchNumber,
	}
}
