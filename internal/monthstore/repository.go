package monthstore

import (
	"context"
	"sort"
	"sync"

	"fjacquet/statement-ledger/internal/models"
)

// Snapshot is the persisted state of one month.
type Snapshot struct {
	Key          Key
	Transactions []models.Transaction
	Processed    bool
	SourceRef    string
	NextSequence int
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Transactions = append([]models.Transaction(nil), s.Transactions...)
	return out
}

// Repository persists month snapshots. Implementations own all I/O, including
// any retry policy; the store never retries.
type Repository interface {
	// LoadMonth returns the snapshot of key; the bool is false when the month
	// was never saved.
	LoadMonth(ctx context.Context, key Key) (Snapshot, bool, error)
	// SaveMonth replaces the stored snapshot of snap.Key.
	SaveMonth(ctx context.Context, snap Snapshot) error
	// ListMonths returns the saved months of a year in ascending order.
	ListMonths(ctx context.Context, year int) ([]Key, error)
	// ListYears returns the years with at least one saved month, ascending.
	ListYears(ctx context.Context) ([]int, error)
}

// MemoryRepository keeps snapshots in process memory. SaveErr, when set,
// makes every save fail.
type MemoryRepository struct {
	mu        sync.Mutex
	snapshots map[Key]Snapshot
	SaveErr   error
	Saves     int
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{snapshots: map[Key]Snapshot{}}
}

// LoadMonth implements Repository.
func (r *MemoryRepository) LoadMonth(_ context.Context, key Key) (Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[key]
	if !ok {
		return Snapshot{}, false, nil
	}
	return snap.clone(), true, nil
}

// SaveMonth implements Repository.
func (r *MemoryRepository) SaveMonth(_ context.Context, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	if r.snapshots == nil {
		r.snapshots = map[Key]Snapshot{}
	}
	r.snapshots[snap.Key] = snap.clone()
	r.Saves++
	return nil
}

// ListMonths implements Repository.
func (r *MemoryRepository) ListMonths(_ context.Context, year int) ([]Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []Key
	for k := range r.snapshots {
		if k.Year == year {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys, nil
}

// ListYears implements Repository.
func (r *MemoryRepository) ListYears(_ context.Context) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[int]bool{}
	var years []int
	for k := range r.snapshots {
		if !seen[k.Year] {
			seen[k.Year] = true
			years = append(years, k.Year)
		}
	}
	sort.Ints(years)
	return years, nil
}

var _ Repository = (*MemoryRepository)(nil)
