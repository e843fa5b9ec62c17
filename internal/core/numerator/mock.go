package numerator

import (
	"context"

	"oficio/internal/core/id"
)

// MockCounter is a test implementation of Counter.
// Use in unit tests to avoid database dependencies.
type MockCounter struct {
	NextNumberFunc    func(ctx context.Context, unitID id.ID, year int) (int64, error)
	CurrentFunc       func(ctx context.Context, unitID id.ID, year int) (int64, error)
	SetLastNumberFunc func(ctx context.Context, unitID id.ID, year int, value int64) error
}

// NextNumber implements Counter.
func (m *MockCounter) NextNumber(ctx context.Context, unitID id.ID, year int) (int64, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, unitID, year)
	}
	return 1, nil
}

// Current implements Counter.
func (m *MockCounter) Current(ctx context.Context, unitID id.ID, year int) (int64, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, unitID, year)
	}
	return 0, nil
}

// SetLastNumber implements Counter.
func (m *MockCounter) SetLastNumber(ctx context.Context, unitID id.ID, year int, value int64) error {
	if m.SetLastNumberFunc != nil {
		return m.SetLastNumberFunc(ctx, unitID, year, value)
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Counter = (*MockCounter)(nil)
