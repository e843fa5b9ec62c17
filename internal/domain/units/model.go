// Package units models the organisational units the dispatch subsystem reads:
// the agency issuing letters, its extraction units, and requester units.
package units

import (
	"context"
	"strings"

	"oficio/internal/core/apperror"
	"oficio/internal/core/entity"
	"oficio/internal/core/id"
	"oficio/internal/core/media"
)

// DefaultExtractionAcronym labels an extraction unit that has no acronym.
const DefaultExtractionAcronym = "NEXT"

// Agency is the institution that signs dispatches.
type Agency struct {
	entity.BaseEntity
	Acronym  string `db:"acronym" json:"acronym"`
	Name     string `db:"name" json:"name"`
	MainLogo []byte `db:"main_logo" json:"-"`
}

// LogoMIMEType sniffs the stored logo format.
func (a *Agency) LogoMIMEType() string {
	return media.DetectImageMIME(a.MainLogo)
}

// HasLogo reports whether a logo is stored.
func (a *Agency) HasLogo() bool {
	return len(a.MainLogo) > 0
}

// Validate implements entity.Validatable.
func (a *Agency) Validate(ctx context.Context) error {
	if strings.TrimSpace(a.Name) == "" {
		return apperror.NewValidation("agency name is required").WithDetail("field", "name")
	}
	return nil
}

// ExtractionUnit issues dispatches and owns a numbering sequence and templates.
type ExtractionUnit struct {
	entity.BaseEntity
	AgencyID         *id.ID `db:"agency_id" json:"agencyId,omitempty"`
	Acronym          string `db:"acronym" json:"acronym"`
	Name             string `db:"name" json:"name"`
	InchargeName     string `db:"incharge_name" json:"inchargeName"`
	InchargePosition string `db:"incharge_position" json:"inchargePosition"`
}

// Label returns the acronym, falling back to the default unit label.
func (u *ExtractionUnit) Label() string {
	if u == nil || strings.TrimSpace(u.Acronym) == "" {
		return DefaultExtractionAcronym
	}
	return u.Acronym
}

// Validate implements entity.Validatable.
func (u *ExtractionUnit) Validate(ctx context.Context) error {
	if strings.TrimSpace(u.Name) == "" {
		return apperror.NewValidation("extraction unit name is required").WithDetail("field", "name")
	}
	return nil
}

// AgencyUnit is a unit that requests extractions (a police station, a court).
type AgencyUnit struct {
	entity.BaseEntity
	AgencyID *id.ID `db:"agency_id" json:"agencyId,omitempty"`
	Acronym  string `db:"acronym" json:"acronym"`
	Name     string `db:"name" json:"name"`
}

// Label returns acronym, else name, else empty.
func (u *AgencyUnit) Label() string {
	if u == nil {
		return ""
	}
	if a := strings.TrimSpace(u.Acronym); a != "" {
		return a
	}
	return strings.TrimSpace(u.Name)
}

// Validate implements entity.Validatable.
func (u *AgencyUnit) Validate(ctx context.Context) error {
	if strings.TrimSpace(u.Name) == "" {
		return apperror.NewValidation("agency unit name is required").WithDetail("field", "name")
	}
	return nil
}
