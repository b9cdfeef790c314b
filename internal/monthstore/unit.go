package monthstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"

	"github.com/google/uuid"
)

// Validator checks a transaction against its month before it is stored.
type Validator interface {
	ValidateTransaction(year int, month time.Month, tx models.Transaction) error
}

// Unit is one (year, month) bucket of transactions. All mutations are
// serialized by the unit's mutex and written through to the repository;
// a failed save leaves the unit unchanged.
type Unit struct {
	key       Key
	mu        sync.Mutex
	state     Snapshot
	repo      Repository
	validator Validator
	logger    logging.Logger
}

func newUnit(state Snapshot, repo Repository, validator Validator, logger logging.Logger) *Unit {
	u := &Unit{key: state.Key, state: state, repo: repo, validator: validator, logger: logger}
	sortTransactions(u.state.Transactions)
	return u
}

// Key returns the unit's month.
func (u *Unit) Key() Key {
	return u.key
}

// Year returns the unit's year.
func (u *Unit) Year() int { return u.key.Year }

// Month returns the unit's month.
func (u *Unit) Month() time.Month { return u.key.Month }

// Processed reports whether the month is closed.
func (u *Unit) Processed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Processed
}

// SourceRef returns the reference of the document the month was extracted from.
func (u *Unit) SourceRef() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.SourceRef
}

// Len returns the number of transactions.
func (u *Unit) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.state.Transactions)
}

// List returns the transactions ordered by date, ties broken by extraction order.
func (u *Unit) List() []models.Transaction {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]models.Transaction(nil), u.state.Transactions...)
}

// Snapshot returns a copy of the unit state.
func (u *Unit) Snapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.clone()
}

// Get returns one transaction by id.
func (u *Unit) Get(id string) (models.Transaction, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	idx := u.indexOf(id)
	if idx < 0 {
		return models.Transaction{}, fmt.Errorf("month %s: transaction %s: %w", u.state.Key, id, ErrNotFound)
	}
	return u.state.Transactions[idx], nil
}

// Add stores a new transaction in canonical form. A transaction without id
// gets a fresh one.
func (u *Unit) Add(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state.Processed {
		return models.Transaction{}, u.errorf(ErrMonthClosed)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	} else if u.indexOf(tx.ID) >= 0 {
		return models.Transaction{}, fmt.Errorf("month %s: transaction %s: %w", u.state.Key, tx.ID, ErrDuplicateID)
	}
	if tx.Source == "" {
		tx.Source = models.SourceManual
	}
	if tx.Category == "" {
		tx.Category = models.CategoryUncategorized
	}
	tx = tx.Canonical()
	if err := u.validate(tx); err != nil {
		return models.Transaction{}, err
	}

	err := u.mutate(ctx, "add", func(s *Snapshot) {
		tx.Sequence = s.NextSequence
		s.NextSequence++
		s.Transactions = append(s.Transactions, tx)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// Update applies a partial change to one transaction. Setting a category
// makes it manual.
func (u *Unit) Update(ctx context.Context, id string, update models.TransactionUpdate) (models.Transaction, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state.Processed {
		return models.Transaction{}, u.errorf(ErrMonthClosed)
	}
	idx := u.indexOf(id)
	if idx < 0 {
		return models.Transaction{}, fmt.Errorf("month %s: transaction %s: %w", u.state.Key, id, ErrNotFound)
	}
	updated := update.Apply(u.state.Transactions[idx])
	if err := u.validate(updated); err != nil {
		return models.Transaction{}, err
	}

	err := u.mutate(ctx, "update", func(s *Snapshot) {
		s.Transactions[idx] = updated
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return updated, nil
}

// Delete removes one transaction.
func (u *Unit) Delete(ctx context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state.Processed {
		return u.errorf(ErrMonthClosed)
	}
	idx := u.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("month %s: transaction %s: %w", u.state.Key, id, ErrNotFound)
	}

	return u.mutate(ctx, "delete", func(s *Snapshot) {
		s.Transactions = append(s.Transactions[:idx:idx], s.Transactions[idx+1:]...)
	})
}

// MarkProcessed closes the month. It fails on an empty or already closed month.
func (u *Unit) MarkProcessed(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state.Processed {
		return u.errorf(ErrAlreadyProcessed)
	}
	if len(u.state.Transactions) == 0 {
		return u.errorf(ErrEmptyMonth)
	}

	if err := u.mutate(ctx, "mark processed", func(s *Snapshot) { s.Processed = true }); err != nil {
		return err
	}
	u.logger.Info("Month marked as processed",
		logging.Field{Key: logging.FieldYear, Value: u.state.Key.Year},
		logging.Field{Key: logging.FieldMonth, Value: int(u.state.Key.Month)},
		logging.Field{Key: logging.FieldCount, Value: len(u.state.Transactions)})
	return nil
}

// ReplaceExtracted swaps the extracted transactions for a fresh extraction of
// the month's statement. Manually added transactions are kept, and a manual
// category on an old row carries over to the new row with the same fingerprint.
func (u *Unit) ReplaceExtracted(ctx context.Context, txs []models.Transaction, sourceRef string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state.Processed {
		return u.errorf(ErrMonthClosed)
	}

	manualCategories := map[string][]models.Category{}
	var kept []models.Transaction
	for _, tx := range u.state.Transactions {
		if tx.Source == models.SourceManual {
			kept = append(kept, tx)
			continue
		}
		if tx.CategoryManual {
			fp := tx.Fingerprint()
			manualCategories[fp] = append(manualCategories[fp], tx.Category)
		}
	}

	seen := map[string]bool{}
	for _, tx := range kept {
		seen[tx.ID] = true
	}
	incoming := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" || seen[tx.ID] {
			tx.ID = uuid.NewString()
		}
		seen[tx.ID] = true
		tx.Source = models.SourceExtracted
		if queue := manualCategories[tx.Fingerprint()]; len(queue) > 0 {
			tx.Category = queue[0]
			tx.CategoryManual = true
			manualCategories[tx.Fingerprint()] = queue[1:]
		}
		if tx.Category == "" {
			tx.Category = models.CategoryUncategorized
		}
		incoming = append(incoming, tx)
	}

	return u.mutate(ctx, "replace extracted", func(s *Snapshot) {
		s.Transactions = s.Transactions[:0:0]
		s.NextSequence = 0
		for _, tx := range incoming {
			tx.Sequence = s.NextSequence
			s.NextSequence++
			s.Transactions = append(s.Transactions, tx)
		}
		for _, tx := range kept {
			tx.Sequence = s.NextSequence
			s.NextSequence++
			s.Transactions = append(s.Transactions, tx)
		}
		s.SourceRef = sourceRef
	})
}

// mutate applies change to a copy of the state, persists it and only then
// makes it current. Callers hold u.mu.
func (u *Unit) mutate(ctx context.Context, op string, change func(*Snapshot)) error {
	next := u.state.clone()
	change(&next)
	sortTransactions(next.Transactions)

	if u.repo != nil {
		if err := u.repo.SaveMonth(ctx, next); err != nil {
			u.logger.WithError(err).Error("Failed to persist month",
				logging.Field{Key: logging.FieldOperation, Value: op},
				logging.Field{Key: logging.FieldYear, Value: next.Key.Year},
				logging.Field{Key: logging.FieldMonth, Value: int(next.Key.Month)})
			return fmt.Errorf("month %s: %s: %w", next.Key, op, err)
		}
	}
	u.state = next
	return nil
}

func (u *Unit) validate(tx models.Transaction) error {
	if u.validator == nil {
		return nil
	}
	if err := u.validator.ValidateTransaction(u.state.Key.Year, u.state.Key.Month, tx); err != nil {
		return fmt.Errorf("month %s: %w", u.state.Key, err)
	}
	return nil
}

func (u *Unit) indexOf(id string) int {
	for i, tx := range u.state.Transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (u *Unit) errorf(err error) error {
	return fmt.Errorf("month %s: %w", u.state.Key, err)
}

func sortTransactions(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].Sequence < txs[j].Sequence
	})
}
