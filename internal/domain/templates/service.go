package templates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oficio/internal/core/apperror"
	"oficio/internal/core/audit"
	"oficio/internal/core/id"
	"oficio/internal/core/tx"
	"oficio/internal/domain"
	"oficio/internal/domain/units"
	"oficio/internal/odt"
)

const entityName = "dispatch template"

// Service is the template store: lookups with default fallback, and
// writes that keep at most one default template per unit.
type Service struct {
	repo      Repository
	units     units.Repository
	txManager tx.Manager
	audit     audit.Recorder
	now       func() time.Time
}

// ServiceConfig configures the template service.
type ServiceConfig struct {
	Repo      Repository
	Units     units.Repository
	TxManager tx.Manager
	Audit     audit.Recorder // optional
	Clock     func() time.Time
}

// NewService creates a new template service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		units:     cfg.Units,
		txManager: cfg.TxManager,
		audit:     cfg.Audit,
		now:       cfg.Clock,
	}
	if s.audit == nil {
		s.audit = audit.NopRecorder{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// GetDefault returns the unit's active default template, else its first
// active template, else nil. Fails only when the unit does not exist.
func (s *Service) GetDefault(ctx context.Context, unitID id.ID) (*Template, error) {
	if _, err := s.units.GetExtractionUnit(ctx, unitID); err != nil {
		return nil, domain.NormalizeGetErr("extraction unit", err, unitID.String())
	}

	t, err := s.repo.FindDefault(ctx, unitID)
	if err == nil {
		return t, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	t, err = s.repo.FirstActive(ctx, unitID)
	if err == nil {
		return t, nil
	}
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	return nil, err
}

// GetByName returns the active template with the given name.
func (s *Service) GetByName(ctx context.Context, unitID id.ID, name string) (*Template, error) {
	t, err := s.repo.GetByName(ctx, unitID, strings.TrimSpace(name))
	if err != nil {
		return nil, domain.NormalizeGetErr(entityName, err, name)
	}
	return t, nil
}

// Resolve picks the template for a dispatch: by name when given and found,
// otherwise the unit default. May return nil.
func (s *Service) Resolve(ctx context.Context, unitID id.ID, name string) (*Template, error) {
	if strings.TrimSpace(name) != "" {
		t, err := s.GetByName(ctx, unitID, name)
		if err == nil {
			return t, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, err
		}
	}
	return s.GetDefault(ctx, unitID)
}

// Get returns a template by ID.
func (s *Service) Get(ctx context.Context, templateID id.ID) (*Template, error) {
	t, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, domain.NormalizeGetErr(entityName, err, templateID.String())
	}
	return t, nil
}

// List returns the templates of a unit.
func (s *Service) List(ctx context.Context, unitID id.ID, filter domain.ListFilter) (domain.ListResult[*Template], error) {
	return s.repo.List(ctx, unitID, filter)
}

// Save creates (zero ID) or updates a template.
//
// The unit row is locked for the whole transaction, so concurrent saves
// for one unit run one after another and the single-default rule holds.
func (s *Service) Save(ctx context.Context, actor audit.Actor, t *Template) error {
	if err := t.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}
	if t.HasContent() {
		if err := odt.Validate(t.Content); err != nil {
			return apperror.NewValidation("template file is not a readable text document").
				WithDetail("field", "content").
				WithCause(err)
		}
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.units.LockExtractionUnit(ctx, t.ExtractionUnitID); err != nil {
			return domain.NormalizeGetErr("extraction unit", err, t.ExtractionUnitID.String())
		}

		now := s.now()
		action := audit.ActionUpdate
		isNew := id.IsNil(t.ID)

		if isNew {
			action = audit.ActionCreate
			t.PrepareNew(actor, now)
		} else {
			existing, err := s.repo.GetByID(ctx, t.ID)
			if err != nil {
				return domain.NormalizeGetErr(entityName, err, t.ID.String())
			}
			if existing.ExtractionUnitID != t.ExtractionUnitID {
				return apperror.NewValidation("template belongs to another extraction unit").
					WithDetail("field", "extractionUnitId")
			}
			if t.Version == 0 {
				t.Version = existing.Version
			}
			t.CreatedAt = existing.CreatedAt
			t.CreatedBy = existing.CreatedBy
			t.StampUpdated(actor, now)
		}

		if t.IsDefault {
			if _, err := s.repo.ClearDefault(ctx, t.ExtractionUnitID, t.ID); err != nil {
				return fmt.Errorf("clear default: %w", err)
			}
		}

		if isNew {
			if err := s.repo.Create(ctx, t); err != nil {
				return fmt.Errorf("create %s: %w", entityName, err)
			}
		} else if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update %s: %w", entityName, err)
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "dispatch_template",
			EntityID:   t.ID,
			Action:     action,
			Actor:      actor,
			Changes:    snapshot(t),
		})
	})
}

// Delete soft-deletes a template. A deleted default leaves the unit without
// a default until another template is marked.
func (s *Service) Delete(ctx context.Context, actor audit.Actor, templateID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, templateID)
		if err != nil {
			return domain.NormalizeGetErr(entityName, err, templateID.String())
		}
		if _, err := s.units.LockExtractionUnit(ctx, t.ExtractionUnitID); err != nil {
			return domain.NormalizeGetErr("extraction unit", err, t.ExtractionUnitID.String())
		}

		t.MarkDeleted(actor, s.now())
		t.IsDefault = false
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("delete %s: %w", entityName, err)
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "dispatch_template",
			EntityID:   t.ID,
			Action:     audit.ActionDelete,
			Actor:      actor,
			Changes:    snapshot(t),
		})
	})
}

func snapshot(t *Template) map[string]any {
	return map[string]any{
		"name":       t.Name,
		"isActive":   t.IsActive,
		"isDefault":  t.IsDefault,
		"hasContent": t.HasContent(),
		"deleted":    t.IsDeleted(),
	}
}
