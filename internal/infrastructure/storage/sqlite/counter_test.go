package sqlite

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oficio/internal/core/apperror"
	"oficio/internal/core/id"
)

func TestCounter_NextNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")

	for want := int64(1); want <= 3; want++ {
		n, err := s.counter.NextNumber(ctx, unit.ID, 2024)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	t.Run("years are independent", func(t *testing.T) {
		n, err := s.counter.NextNumber(ctx, unit.ID, 2025)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		cur, err := s.counter.Current(ctx, unit.ID, 2024)
		require.NoError(t, err)
		assert.Equal(t, int64(3), cur)
	})

	t.Run("units are independent", func(t *testing.T) {
		other := s.seedUnit(t, "NEXT2")
		n, err := s.counter.NextNumber(ctx, other.ID, 2024)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("unknown unit", func(t *testing.T) {
		_, err := s.counter.NextNumber(ctx, id.New(), 2024)
		assert.True(t, apperror.IsNotFound(err), "got %v", err)
	})
}

func TestCounter_Current(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")

	n, err := s.counter.Current(ctx, unit.ID, 2024)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCounter_SetLastNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")

	require.NoError(t, s.counter.SetLastNumber(ctx, unit.ID, 2024, 41))
	n, err := s.counter.NextNumber(ctx, unit.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	require.NoError(t, s.counter.SetLastNumber(ctx, unit.ID, 2024, 0))
	n, err = s.counter.NextNumber(ctx, unit.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = s.counter.SetLastNumber(ctx, unit.ID, 2024, -1)
	assert.True(t, apperror.IsValidation(err))

	err = s.counter.SetLastNumber(ctx, id.New(), 2024, 5)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCounter_RolledBackWithTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")
	boom := errors.New("boom")

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := s.counter.NextNumber(ctx, unit.ID, 2024)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.counter.NextNumber(ctx, unit.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCounter_Savepoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.counter.NextNumber(ctx, unit.ID, 2024); err != nil {
			return err
		}
		spErr := s.tx.RunInSavepoint(ctx, func(ctx context.Context) error {
			_, err := s.counter.NextNumber(ctx, unit.ID, 2024)
			require.NoError(t, err)
			return errors.New("discard")
		})
		require.Error(t, spErr)
		return nil
	})
	require.NoError(t, err)

	cur, err := s.counter.Current(ctx, unit.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur)
}

func TestCounter_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	unit := s.seedUnit(t, "NEXT")

	const workers = 16
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var n int64
			err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
				var err error
				n, err = s.counter.NextNumber(ctx, unit.ID, 2024)
				return err
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, got, workers)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, n := range got {
		assert.Equal(t, int64(i+1), n)
	}
}
