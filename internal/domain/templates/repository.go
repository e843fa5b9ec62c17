package templates

import (
	"context"

	"oficio/internal/core/id"
	"oficio/internal/domain"
)

// Repository persists templates. Reads never return soft-deleted rows.
type Repository interface {
	GetByID(ctx context.Context, id id.ID) (*Template, error)

	// GetByName returns the active template with that name in the unit.
	GetByName(ctx context.Context, unitID id.ID, name string) (*Template, error)

	// FindDefault returns the active default template of the unit.
	FindDefault(ctx context.Context, unitID id.ID) (*Template, error)

	// FirstActive returns the oldest active template of the unit.
	FirstActive(ctx context.Context, unitID id.ID) (*Template, error)

	List(ctx context.Context, unitID id.ID, filter domain.ListFilter) (domain.ListResult[*Template], error)

	Create(ctx context.Context, t *Template) error

	// Update writes t when its version matches the stored one and bumps the version.
	Update(ctx context.Context, t *Template) error

	// ClearDefault unsets is_default on every template of the unit except keepID.
	ClearDefault(ctx context.Context, unitID, keepID id.ID) (int64, error)
}
