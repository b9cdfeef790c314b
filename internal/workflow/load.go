package workflow

import (
	"context"
	"fmt"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/monthstore"
)

// ForYear rebuilds the controller of a year from the stored months. The
// cursor lands on the first unprocessed month.
func ForYear(ctx context.Context, months *monthstore.Store, year int, logger logging.Logger) (*Controller, error) {
	units, err := months.Units(ctx, year)
	if err != nil {
		return nil, err
	}
	queue := make([]Unit, len(units))
	for i, u := range units {
		queue[i] = u
	}

	c := NewController(logger)
	if err := c.LoadQueue(queue); err != nil {
		return nil, fmt.Errorf("year %d: %w", year, err)
	}
	return c, nil
}
