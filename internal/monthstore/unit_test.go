package monthstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func extracted(id string, d int, description, amount string) models.Transaction {
	return models.Transaction{
		ID:          id,
		Date:        day(d),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Category:    models.CategoryUncategorized,
		Source:      models.SourceExtracted,
	}
}

func newTestUnit(t *testing.T, repo Repository) *Unit {
	t.Helper()
	s := New(repo, nil, logging.NewMockLogger())
	u, err := s.Unit(context.Background(), 2024, 1)
	require.NoError(t, err)
	return u
}

// januaryOnly is a Validator refusing dates outside the unit month.
type januaryOnly struct{}

func (januaryOnly) ValidateTransaction(year int, month time.Month, tx models.Transaction) error {
	if tx.Date.Year() != year || tx.Date.Month() != month {
		return errors.New("date outside month")
	}
	return nil
}

func TestUnit_AddListOrder(t *testing.T) {
	ctx := context.Background()
	u := newTestUnit(t, nil)

	_, err := u.Add(ctx, extracted("c", 20, "LATE", "-1.00"))
	require.NoError(t, err)
	_, err = u.Add(ctx, extracted("a", 5, "FIRST", "-2.00"))
	require.NoError(t, err)
	_, err = u.Add(ctx, extracted("b", 5, "SECOND SAME DAY", "-3.00"))
	require.NoError(t, err)

	list := u.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, 3, u.Len())
}

func TestUnit_AddDefaultsAndDuplicates(t *testing.T) {
	ctx := context.Background()
	u := newTestUnit(t, nil)

	tx, err := u.Add(ctx, models.Transaction{Date: day(3), Description: "CASH", Amount: decimal.NewFromInt(-20)})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, models.SourceManual, tx.Source)
	assert.Equal(t, models.CategoryUncategorized, tx.Category)

	_, err = u.Add(ctx, models.Transaction{ID: tx.ID, Date: day(4), Description: "AGAIN", Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestUnit_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	u := newTestUnit(t, nil)
	_, err := u.Add(ctx, extracted("a", 5, "COFFEE SHOP", "-4.50"))
	require.NoError(t, err)

	meals := models.CategoryMeals
	newDate := day(2)
	updated, err := u.Update(ctx, "a", models.TransactionUpdate{Category: &meals, Date: &newDate})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryMeals, updated.Category)
	assert.True(t, updated.CategoryManual)

	got, err := u.Get("a")
	require.NoError(t, err)
	assert.Equal(t, newDate, got.Date)

	_, err = u.Update(ctx, "missing", models.TransactionUpdate{Category: &meals})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, u.Delete(ctx, "a"))
	assert.Equal(t, 0, u.Len())
	assert.ErrorIs(t, u.Delete(ctx, "a"), ErrNotFound)
	_, err = u.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnit_ClosedAfterProcessing(t *testing.T) {
	ctx := context.Background()
	u := newTestUnit(t, nil)
	_, err := u.Add(ctx, extracted("a", 5, "COFFEE SHOP", "-4.50"))
	require.NoError(t, err)

	require.NoError(t, u.MarkProcessed(ctx))
	assert.True(t, u.Processed())

	meals := models.CategoryMeals
	_, err = u.Add(ctx, extracted("b", 6, "TEA", "-2.00"))
	assert.ErrorIs(t, err, ErrMonthClosed)
	_, err = u.Update(ctx, "a", models.TransactionUpdate{Category: &meals})
	assert.ErrorIs(t, err, ErrMonthClosed)
	assert.ErrorIs(t, u.Delete(ctx, "a"), ErrMonthClosed)
	assert.ErrorIs(t, u.ReplaceExtracted(ctx, nil, "again.pdf"), ErrMonthClosed)
	assert.ErrorIs(t, u.MarkProcessed(ctx), ErrAlreadyProcessed)

	list := u.List()
	require.Len(t, list, 1)
	assert.Equal(t, models.CategoryUncategorized, list[0].Category)
}

func TestUnit_MarkProcessedEmpty(t *testing.T) {
	u := newTestUnit(t, nil)

	err := u.MarkProcessed(context.Background())

	assert.ErrorIs(t, err, ErrEmptyMonth)
	assert.False(t, u.Processed())
}

func TestUnit_Validator(t *testing.T) {
	ctx := context.Background()
	s := New(nil, januaryOnly{}, nil)
	u, err := s.Unit(ctx, 2024, 1)
	require.NoError(t, err)

	_, err = u.Add(ctx, extracted("a", 5, "OK", "-1.00"))
	require.NoError(t, err)

	outside := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	_, err = u.Update(ctx, "a", models.TransactionUpdate{Date: &outside})
	assert.Error(t, err)

	got, err := u.Get("a")
	require.NoError(t, err)
	assert.Equal(t, day(5), got.Date, "rejected update leaves the transaction unchanged")
}

func TestUnit_ReplaceExtractedKeepsManualWork(t *testing.T) {
	ctx := context.Background()
	u := newTestUnit(t, nil)

	require.NoError(t, u.ReplaceExtracted(ctx, []models.Transaction{
		extracted("x1", 15, "COFFEE SHOP", "-4.50"),
		extracted("x2", 20, "PAYROLL DEPOSIT", "2500.00"),
	}, "jan.pdf"))

	other := models.CategoryOther
	_, err := u.Update(ctx, "x2", models.TransactionUpdate{Category: &other})
	require.NoError(t, err)
	manual, err := u.Add(ctx, models.Transaction{Date: day(25), Description: "CASH TIP", Amount: decimal.NewFromInt(-5)})
	require.NoError(t, err)

	require.NoError(t, u.ReplaceExtracted(ctx, []models.Transaction{
		extracted("y1", 15, "COFFEE SHOP", "-4.50"),
		extracted("y2", 20, "PAYROLL DEPOSIT", "2500.00"),
		extracted("y3", 22, "UPS STORE", "-9.99"),
	}, "jan-corrected.pdf"))

	list := u.List()
	require.Len(t, list, 4)
	assert.Equal(t, []string{"y1", "y2", "y3", manual.ID}, []string{list[0].ID, list[1].ID, list[2].ID, list[3].ID})
	assert.Equal(t, models.CategoryOther, list[1].Category)
	assert.True(t, list[1].CategoryManual)
	assert.Equal(t, models.CategoryUncategorized, list[0].Category)
	assert.Equal(t, "jan-corrected.pdf", u.SourceRef())
}

func TestUnit_WriteThroughAndRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	u := newTestUnit(t, repo)

	_, err := u.Add(ctx, extracted("a", 5, "COFFEE SHOP", "-4.50"))
	require.NoError(t, err)
	snap, found, err := repo.LoadMonth(ctx, u.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, snap.Transactions, 1)

	repo.SaveErr = errors.New("disk full")
	_, err = u.Add(ctx, extracted("b", 6, "TEA", "-2.00"))
	assert.ErrorIs(t, err, repo.SaveErr)
	assert.Equal(t, 1, u.Len(), "failed save is rolled back")

	err = u.MarkProcessed(ctx)
	assert.ErrorIs(t, err, repo.SaveErr)
	assert.False(t, u.Processed())
}

func TestUnit_ConcurrentMutationsAreSerialized(t *testing.T) {
	ctx := context.Background()
	u := newTestUnit(t, NewMemoryRepository())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := u.Add(ctx, extracted(fmt.Sprintf("tx-%02d", i), 1+i%28, "ITEM", "-1.00"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list := u.List()
	require.Len(t, list, 50)
	sequences := map[int]bool{}
	for _, tx := range list {
		assert.False(t, sequences[tx.Sequence], "sequence %d reused", tx.Sequence)
		sequences[tx.Sequence] = true
	}
}

func TestUnit_CloseRacesWithEdits(t *testing.T) {
	ctx := context.Background()
	u := newTestUnit(t, nil)
	_, err := u.Add(ctx, extracted("seed", 1, "SEED", "-1.00"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, err := u.Add(ctx, extracted(fmt.Sprintf("late-%d", i), 2, "LATE", "-1.00"))
			if err != nil {
				assert.ErrorIs(t, err, ErrMonthClosed)
			}
		}
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, u.MarkProcessed(ctx))
	}()
	wg.Wait()

	n := u.Len()
	_, err = u.Add(ctx, extracted("after", 3, "AFTER", "-1.00"))
	assert.ErrorIs(t, err, ErrMonthClosed)
	assert.Equal(t, n, u.Len())
}

func TestUnit_StoresCanonicalTransactions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	u := newTestUnit(t, repo)

	tx := extracted("a", 5, "COFFEE   SHOP", "-4.50")
	tx.Date = time.Date(2024, time.January, 5, 9, 45, 0, 0, time.UTC)
	added, err := u.Add(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "COFFEE SHOP", added.Description)
	assert.Equal(t, day(5), added.Date)

	description := "  COFFEE \x07\t  HOUSE  "
	at := time.Date(2024, time.January, 7, 15, 30, 0, 0, time.UTC)
	_, err = u.Update(ctx, "a", models.TransactionUpdate{Description: &description, Date: &at})
	require.NoError(t, err)

	got, err := u.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "COFFEE HOUSE", got.Description)
	assert.Equal(t, day(7), got.Date)

	snap, found, err := repo.LoadMonth(ctx, u.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "COFFEE HOUSE", snap.Transactions[0].Description)
	assert.Equal(t, day(7), snap.Transactions[0].Date)
}
