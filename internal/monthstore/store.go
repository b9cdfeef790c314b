// Package monthstore keeps a year's statement transactions in per-month units.
//
// Each unit serializes its own mutations; different months proceed in
// parallel. Units are loaded lazily from an optional Repository and every
// mutation is written through to it.
package monthstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fjacquet/statement-ledger/internal/logging"
)

// Store owns the month units.
type Store struct {
	mu        sync.Mutex
	units     map[Key]*Unit
	repo      Repository
	validator Validator
	logger    logging.Logger
}

// New creates a Store. A nil repo keeps everything in memory; a nil validator
// skips transaction validation on add and update.
func New(repo Repository, validator Validator, logger logging.Logger) *Store {
	return &Store{
		units:     map[Key]*Unit{},
		repo:      repo,
		validator: validator,
		logger:    logging.OrDiscard(logger),
	}
}

// Unit returns the unit for a month, loading it from the repository or
// creating an empty one.
func (s *Store) Unit(ctx context.Context, year, month int) (*Unit, error) {
	key, err := NewKey(year, month)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, _, err := s.loadLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		unit = newUnit(Snapshot{Key: key}, s.repo, s.validator, s.logger)
		s.units[key] = unit
	}
	return unit, nil
}

// Editable reports whether a month may still receive transactions, without
// creating it. A processed month is ErrMonthClosed; a month before a processed
// month of the same year is ErrLaterProcessed, since the review queue only
// moves forward.
func (s *Store) Editable(ctx context.Context, year, month int) error {
	key, err := NewKey(year, month)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editableLocked(ctx, key)
}

// OpenForEdit is Unit for callers about to add transactions. It applies the
// Editable checks before returning, or creating, the unit.
func (s *Store) OpenForEdit(ctx context.Context, year, month int) (*Unit, error) {
	key, err := NewKey(year, month)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(ctx, key); err != nil {
		return nil, err
	}
	unit, _, err := s.loadLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		unit = newUnit(Snapshot{Key: key}, s.repo, s.validator, s.logger)
		s.units[key] = unit
	}
	return unit, nil
}

// Lookup returns the unit for a month only if it already exists.
func (s *Store) Lookup(ctx context.Context, year, month int) (*Unit, error) {
	key, err := NewKey(year, month)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, found, err := s.loadLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("month %s: %w", key, ErrNotFound)
	}
	return unit, nil
}

// Units returns every known unit of a year in month order.
func (s *Store) Units(ctx context.Context, year int) ([]*Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadYearLocked(ctx, year); err != nil {
		return nil, err
	}

	var units []*Unit
	for key, unit := range s.units {
		if key.Year == year {
			units = append(units, unit)
		}
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Key().Before(units[j].Key()) })
	return units, nil
}

// Years returns the years holding at least one unit, ascending.
func (s *Store) Years(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[int]bool{}
	var years []int
	if s.repo != nil {
		stored, err := s.repo.ListYears(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list years: %w", err)
		}
		for _, y := range stored {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	for key := range s.units {
		if !seen[key.Year] {
			seen[key.Year] = true
			years = append(years, key.Year)
		}
	}
	sort.Ints(years)
	return years, nil
}

// editableLocked implements Editable. Callers hold s.mu.
func (s *Store) editableLocked(ctx context.Context, key Key) error {
	if err := s.loadYearLocked(ctx, key.Year); err != nil {
		return err
	}
	if unit, ok := s.units[key]; ok && unit.Processed() {
		return fmt.Errorf("month %s: %w", key, ErrMonthClosed)
	}
	for other, unit := range s.units {
		if other.Year == key.Year && key.Before(other) && unit.Processed() {
			return fmt.Errorf("month %s: %s: %w", key, other, ErrLaterProcessed)
		}
	}
	return nil
}

// loadYearLocked pulls every stored month of year into the cache.
// Callers hold s.mu.
func (s *Store) loadYearLocked(ctx context.Context, year int) error {
	if s.repo == nil {
		return nil
	}
	keys, err := s.repo.ListMonths(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to list months of %d: %w", year, err)
	}
	for _, key := range keys {
		if _, _, err := s.loadLocked(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// loadLocked returns the cached unit or loads it from the repository.
// It returns a nil unit when the month exists nowhere. Callers hold s.mu.
func (s *Store) loadLocked(ctx context.Context, key Key) (*Unit, bool, error) {
	if unit, ok := s.units[key]; ok {
		return unit, true, nil
	}
	if s.repo == nil {
		return nil, false, nil
	}

	snap, found, err := s.repo.LoadMonth(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load month %s: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	snap.Key = key
	unit := newUnit(snap, s.repo, s.validator, s.logger)
	s.units[key] = unit
	s.logger.Debug("Loaded month",
		logging.Field{Key: logging.FieldYear, Value: key.Year},
		logging.Field{Key: logging.FieldMonth, Value: int(key.Month)},
		logging.Field{Key: logging.FieldCount, Value: len(snap.Transactions)})
	return unit, true, nil
}
