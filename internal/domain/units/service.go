package units

import (
	"context"
	"time"

	"oficio/internal/core/apperror"
	"oficio/internal/core/audit"
	"oficio/internal/core/id"
	"oficio/internal/core/tx"
	"oficio/internal/domain"
)

// Service exposes unit lookups and operator seeding.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a units service.
func NewService(repo Repository, txManager tx.Manager, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{repo: repo, txManager: txManager, audit: recorder}
}

// GetExtractionUnit returns a live extraction unit.
func (s *Service) GetExtractionUnit(ctx context.Context, unitID id.ID) (*ExtractionUnit, error) {
	u, err := s.repo.GetExtractionUnit(ctx, unitID)
	if err != nil {
		return nil, domain.NormalizeGetErr("extraction unit", err, unitID.String())
	}
	return u, nil
}

// Logo returns the logo of the agency owning the extraction unit, with its MIME type.
func (s *Service) Logo(ctx context.Context, unitID id.ID) ([]byte, string, error) {
	u, err := s.GetExtractionUnit(ctx, unitID)
	if err != nil {
		return nil, "", err
	}
	if u.AgencyID == nil {
		return nil, "", apperror.NewNotFound("agency logo", unitID.String())
	}
	a, err := s.repo.GetAgency(ctx, *u.AgencyID)
	if err != nil {
		return nil, "", domain.NormalizeGetErr("agency", err, u.AgencyID.String())
	}
	if !a.HasLogo() {
		return nil, "", apperror.NewNotFound("agency logo", unitID.String())
	}
	return a.MainLogo, a.LogoMIMEType(), nil
}

// CreateAgency seeds an agency.
func (s *Service) CreateAgency(ctx context.Context, actor audit.Actor, a *Agency) error {
	if err := a.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}
	a.PrepareNew(actor, time.Now().UTC())
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateAgency(ctx, a); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{EntityType: "agency", EntityID: a.ID, Action: audit.ActionCreate, Actor: actor,
			Changes: map[string]any{"acronym": a.Acronym, "name": a.Name}})
	})
}

// CreateExtractionUnit seeds an extraction unit.
func (s *Service) CreateExtractionUnit(ctx context.Context, actor audit.Actor, u *ExtractionUnit) error {
	if err := u.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}
	u.PrepareNew(actor, time.Now().UTC())
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateExtractionUnit(ctx, u); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{EntityType: "extraction_unit", EntityID: u.ID, Action: audit.ActionCreate, Actor: actor,
			Changes: map[string]any{"acronym": u.Acronym, "name": u.Name}})
	})
}

// CreateAgencyUnit seeds a requester unit.
func (s *Service) CreateAgencyUnit(ctx context.Context, actor audit.Actor, u *AgencyUnit) error {
	if err := u.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}
	u.PrepareNew(actor, time.Now().UTC())
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateAgencyUnit(ctx, u); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{EntityType: "agency_unit", EntityID: u.ID, Action: audit.ActionCreate, Actor: actor,
			Changes: map[string]any{"acronym": u.Acronym, "name": u.Name}})
	})
}
