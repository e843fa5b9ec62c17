// Package entity holds fields shared by persisted entities.
package entity

import (
	"context"
	"time"

	"oficio/internal/core/audit"
	"oficio/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the primary key, soft delete and audit fields.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`

	// DeletedAt marks a soft-deleted row. Repositories hide such rows by default.
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	DeletedBy string     `db:"deleted_by" json:"deletedBy,omitempty"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PrepareNew assigns an ID and initial version when missing and stamps creation.
func (b *BaseEntity) PrepareNew(actor audit.Actor, at time.Time) {
	if id.IsNil(b.ID) {
		b.ID = id.New()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	b.StampCreated(actor, at)
}

// IsDeleted reports whether the entity is soft-deleted.
func (b *BaseEntity) IsDeleted() bool {
	return b.DeletedAt != nil
}

// StampCreated records the creating actor.
func (b *BaseEntity) StampCreated(actor audit.Actor, at time.Time) {
	b.CreatedAt = at
	b.CreatedBy = actor.UserID
	b.UpdatedAt = at
	b.UpdatedBy = actor.UserID
}

// StampUpdated records the updating actor.
func (b *BaseEntity) StampUpdated(actor audit.Actor, at time.Time) {
	b.UpdatedAt = at
	b.UpdatedBy = actor.UserID
}

// MarkDeleted soft-deletes the entity on behalf of actor.
func (b *BaseEntity) MarkDeleted(actor audit.Actor, at time.Time) {
	b.DeletedAt = &at
	b.DeletedBy = actor.UserID
	b.StampUpdated(actor, at)
}

// Touch increments version (for optimistic locking).
func (b *BaseEntity) Touch() {
	b.Version++
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}
