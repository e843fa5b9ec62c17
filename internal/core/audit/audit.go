// Package audit defines who performed a write and how the write is recorded.
//
// Every mutating service call takes an explicit Actor. Nothing reads the
// current user from globals or thread-local state.
package audit

import (
	"context"

	appctx "oficio/internal/core/context"
	"oficio/internal/core/id"
)

// Actor identifies the principal responsible for a write.
type Actor struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	// Source tells where the write came from: "api", "cli", "worker".
	Source string `json:"source,omitempty"`
}

// System returns an actor for writes without a human principal.
func System(source string) Actor {
	return Actor{UserID: "system", Source: source}
}

// FromContext builds an actor from the authenticated user in ctx.
// Falls back to the system actor for unauthenticated calls.
func FromContext(ctx context.Context, source string) Actor {
	if u := appctx.GetUser(ctx); u != nil && u.UserID != "" {
		return Actor{UserID: u.UserID, Email: u.Email, Source: source}
	}
	return System(source)
}

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionDispatchIssued Action = "dispatch_issued"
	ActionSequenceSet    Action = "sequence_set"
)

// Entry is a single audit record.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Actor      Actor
	Changes    map[string]any
}

// Recorder persists audit entries. Implementations write inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NopRecorder discards entries.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Entry) error { return nil }

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}
