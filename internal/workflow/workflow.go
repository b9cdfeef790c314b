// Package workflow drives a year of statement months through review one
// month at a time, in calendar order.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fjacquet/statement-ledger/internal/logging"
)

// State is the controller state.
type State string

// Controller states
const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

var (
	ErrNotIdle       = errors.New("workflow already loaded")
	ErrNotInProgress = errors.New("workflow not in progress")
	ErrNoCurrentUnit = errors.New("no current month")
	ErrEmptyQueue    = errors.New("no months to process")
	ErrOutOfOrder    = errors.New("processed month follows an unprocessed month")
	ErrDuplicateUnit = errors.New("month queued twice")
	ErrYearMismatch  = errors.New("months belong to different years")
)

// Unit is the slice of a month unit the controller needs.
// *monthstore.Unit satisfies it.
type Unit interface {
	Year() int
	Month() time.Month
	Processed() bool
	MarkProcessed(ctx context.Context) error
}

// UnitStatus reports one queued month.
type UnitStatus struct {
	Month     time.Month `json:"month" yaml:"month"`
	Processed bool       `json:"processed" yaml:"processed"`
}

// Status is a point-in-time view of the queue.
type Status struct {
	Year      int          `json:"year" yaml:"year"`
	State     State        `json:"state" yaml:"state"`
	Total     int          `json:"total" yaml:"total"`
	Processed int          `json:"processed" yaml:"processed"`
	Current   time.Month   `json:"current,omitempty" yaml:"current,omitempty"`
	Units     []UnitStatus `json:"units" yaml:"units"`
}

// Controller walks an ordered queue of months. The months before the cursor
// are processed; the month at the cursor is the one under review.
type Controller struct {
	mu     sync.Mutex
	state  State
	year   int
	units  []Unit
	cursor int
	logger logging.Logger
}

// NewController creates an idle controller.
func NewController(logger logging.Logger) *Controller {
	return &Controller{state: StateIdle, logger: logging.OrDiscard(logger)}
}

// LoadQueue fixes the year's months in ascending order. Months already
// processed must form a prefix of the queue; the cursor starts after them.
func (c *Controller) LoadQueue(units []Unit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("load queue: %w", ErrNotIdle)
	}
	if len(units) == 0 {
		return fmt.Errorf("load queue: %w", ErrEmptyQueue)
	}

	ordered := append([]Unit(nil), units...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Month() < ordered[j].Month() })

	year := ordered[0].Year()
	cursor := 0
	for i, u := range ordered {
		if u.Year() != year {
			return fmt.Errorf("load queue: %d and %d: %w", year, u.Year(), ErrYearMismatch)
		}
		if i > 0 && ordered[i-1].Month() == u.Month() {
			return fmt.Errorf("load queue: %04d-%02d: %w", year, int(u.Month()), ErrDuplicateUnit)
		}
		if u.Processed() {
			if cursor != i {
				return fmt.Errorf("load queue: %04d-%02d: %w", year, int(u.Month()), ErrOutOfOrder)
			}
			cursor++
		}
	}

	c.year = year
	c.units = ordered
	c.cursor = cursor
	c.state = StateInProgress
	if cursor == len(ordered) {
		c.state = StateCompleted
	}

	c.logger.Info("Workflow queue loaded",
		logging.Field{Key: logging.FieldYear, Value: year},
		logging.Field{Key: logging.FieldCount, Value: len(ordered)},
		logging.Field{Key: logging.FieldState, Value: string(c.state)})
	return nil
}

// CompleteCurrent marks the month at the cursor processed and advances.
// A failed close leaves the cursor where it was.
func (c *Controller) CompleteCurrent(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle:
		return fmt.Errorf("complete month: %w", ErrNotInProgress)
	case StateCompleted:
		return fmt.Errorf("complete month: %w", ErrNoCurrentUnit)
	}

	current := c.units[c.cursor]
	if err := current.MarkProcessed(ctx); err != nil {
		return fmt.Errorf("complete month %04d-%02d: %w", c.year, int(current.Month()), err)
	}

	c.cursor++
	if c.cursor == len(c.units) {
		c.state = StateCompleted
	}

	c.logger.Info("Month completed",
		logging.Field{Key: logging.FieldYear, Value: c.year},
		logging.Field{Key: logging.FieldMonth, Value: int(current.Month())},
		logging.Field{Key: logging.FieldState, Value: string(c.state)})
	return nil
}

// Current returns the month under review.
func (c *Controller) Current() (Unit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return nil, ErrNoCurrentUnit
	}
	return c.units[c.cursor], nil
}

// State returns the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status reports progress through the queue.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Year:      c.year,
		State:     c.state,
		Total:     len(c.units),
		Processed: c.cursor,
		Units:     make([]UnitStatus, 0, len(c.units)),
	}
	for i, u := range c.units {
		st.Units = append(st.Units, UnitStatus{Month: u.Month(), Processed: i < c.cursor})
	}
	if c.state == StateInProgress {
		st.Current = c.units[c.cursor].Month()
	}
	return st
}
