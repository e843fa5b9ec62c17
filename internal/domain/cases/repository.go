package cases

import (
	"context"

	"oficio/internal/core/id"
)

// Repository persists cases. Reads never return soft-deleted rows.
type Repository interface {
	GetByID(ctx context.Context, id id.ID) (*Case, error)

	// GetForUpdate reads the case and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Case, error)

	Create(ctx context.Context, c *Case) error

	// Update writes c when its version matches the stored one and bumps the version.
	Update(ctx context.Context, c *Case) error
}
