package monthstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	key, err := NewKey(2024, 3)
	require.NoError(t, err)
	assert.Equal(t, Key{Year: 2024, Month: time.March}, key)
	assert.Equal(t, "2024-03", key.String())

	for _, month := range []int{0, 13, -1} {
		_, err := NewKey(2024, month)
		assert.ErrorIs(t, err, ErrInvalidMonth)
	}
	_, err = NewKey(0, 1)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestKeyBefore(t *testing.T) {
	assert.True(t, Key{2023, time.December}.Before(Key{2024, time.January}))
	assert.True(t, Key{2024, time.January}.Before(Key{2024, time.February}))
	assert.False(t, Key{2024, time.February}.Before(Key{2024, time.February}))
}

func TestStore_UnitIsShared(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil, nil)

	a, err := s.Unit(ctx, 2024, 1)
	require.NoError(t, err)
	b, err := s.Unit(ctx, 2024, 1)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = s.Unit(ctx, 2024, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestStore_UnitsAndYears(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil, nil)
	for _, m := range []int{3, 1, 2} {
		_, err := s.Unit(ctx, 2024, m)
		require.NoError(t, err)
	}
	_, err := s.Unit(ctx, 2023, 12)
	require.NoError(t, err)

	units, err := s.Units(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, []time.Month{time.January, time.February, time.March},
		[]time.Month{units[0].Key().Month, units[1].Key().Month, units[2].Key().Month})

	years, err := s.Years(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2024}, years)
}

func TestStore_LoadsFromRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := New(repo, nil, nil)
	u, err := first.Unit(ctx, 2024, 1)
	require.NoError(t, err)
	_, err = u.Add(ctx, extracted("a", 5, "COFFEE SHOP", "-4.50"))
	require.NoError(t, err)
	require.NoError(t, u.MarkProcessed(ctx))

	second := New(repo, nil, nil)
	units, err := second.Units(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.True(t, units[0].Processed())
	assert.Equal(t, 1, units[0].Len())

	found, err := second.Lookup(ctx, 2024, 1)
	require.NoError(t, err)
	assert.Same(t, units[0], found)

	_, err = second.Lookup(ctx, 2024, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	years, err := second.Years(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, years)
}

type failingRepository struct{ MemoryRepository }

func (*failingRepository) LoadMonth(context.Context, Key) (Snapshot, bool, error) {
	return Snapshot{}, false, errors.New("connection refused")
}

func TestStore_LoadError(t *testing.T) {
	s := New(&failingRepository{}, nil, nil)

	_, err := s.Unit(context.Background(), 2024, 1)

	assert.Error(t, err)
}

func TestStore_EditableRespectsProcessedMonths(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := New(repo, nil, nil)

	require.NoError(t, s.Editable(ctx, 2024, 2))

	march, err := s.OpenForEdit(ctx, 2024, 3)
	require.NoError(t, err)
	_, err = march.Add(ctx, extracted("m", 5, "COFFEE SHOP", "-4.50"))
	require.NoError(t, err)
	require.NoError(t, march.MarkProcessed(ctx))

	tests := []struct {
		name        string
		store       *Store
		year, month int
		expectedErr error
	}{
		{name: "before processed month", store: s, year: 2024, month: 2, expectedErr: ErrLaterProcessed},
		{name: "processed month", store: s, year: 2024, month: 3, expectedErr: ErrMonthClosed},
		{name: "after processed month", store: s, year: 2024, month: 4},
		{name: "previous year", store: s, year: 2023, month: 12},
		{name: "invalid month", store: s, year: 2024, month: 13, expectedErr: ErrInvalidMonth},
		{name: "reloaded from repository", store: New(repo, nil, nil), year: 2024, month: 1, expectedErr: ErrLaterProcessed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.store.Editable(ctx, tt.year, tt.month)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestStore_OpenForEdit(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil, nil)

	june, err := s.OpenForEdit(ctx, 2024, 6)
	require.NoError(t, err)
	_, err = june.Add(ctx, extracted("j", 5, "COFFEE SHOP", "-4.50"))
	require.NoError(t, err)
	require.NoError(t, june.MarkProcessed(ctx))

	_, err = s.OpenForEdit(ctx, 2024, 5)
	assert.ErrorIs(t, err, ErrLaterProcessed)
	_, err = s.Lookup(ctx, 2024, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	july, err := s.OpenForEdit(ctx, 2024, 7)
	require.NoError(t, err)
	found, err := s.Lookup(ctx, 2024, 7)
	require.NoError(t, err)
	assert.Same(t, july, found)
}
