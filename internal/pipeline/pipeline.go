// Package pipeline turns statement documents into stored month units:
// parse, normalize, categorize, then replace the month's extracted rows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fjacquet/statement-ledger/internal/categorizer"
	"fjacquet/statement-ledger/internal/fileutils"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/monthstore"
	"fjacquet/statement-ledger/internal/normalizer"
	"fjacquet/statement-ledger/internal/parsererror"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the ingestion parallelism when none is configured.
const DefaultWorkers = 4

var (
	ErrMonthUnknown      = errors.New("statement month unknown")
	ErrYearUnknown       = errors.New("statement year unknown")
	ErrDuplicateDocument = errors.New("another document in the batch targets the same month")
)

// Parser extracts raw rows from a statement document.
type Parser interface {
	ParseDocument(ctx context.Context, name string, data []byte) ([]models.RawRow, error)
}

// Document is one statement to ingest. A zero Year or Month is taken from
// the file name when it carries one.
type Document struct {
	Name  string
	Data  []byte
	Year  int
	Month int
}

// Result reports what one document produced.
type Result struct {
	Document     string
	Key          monthstore.Key
	Transactions []models.Transaction
	Rejections   []parsererror.Rejection
	Err          error
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	parser     Parser
	normalizer *normalizer.Normalizer
	engine     *categorizer.Engine
	store      *monthstore.Store
	workers    int
	logger     logging.Logger
}

// New creates a Pipeline. Workers below one fall back to DefaultWorkers.
func New(parser Parser, norm *normalizer.Normalizer, engine *categorizer.Engine, store *monthstore.Store, workers int, logger logging.Logger) *Pipeline {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		parser:     parser,
		normalizer: norm,
		engine:     engine,
		store:      store,
		workers:    workers,
		logger:     logging.OrDiscard(logger),
	}
}

// ReadDocument loads a statement from disk.
func ReadDocument(path string, year, month int) (Document, error) {
	data, err := fileutils.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: filepath.Base(path), Data: data, Year: year, Month: month}, nil
}

// ResolveKey returns the target month of doc, falling back to the hints in
// its file name.
func ResolveKey(doc Document) (monthstore.Key, error) {
	year, month := doc.Year, doc.Month
	if month == 0 {
		hint, ok := fileutils.MonthHint(doc.Name)
		if !ok {
			return monthstore.Key{}, fmt.Errorf("%s: %w", doc.Name, ErrMonthUnknown)
		}
		month = hint
	}
	if year == 0 {
		hint, ok := fileutils.YearHint(doc.Name)
		if !ok {
			return monthstore.Key{}, fmt.Errorf("%s: %w", doc.Name, ErrYearUnknown)
		}
		year = hint
	}
	return monthstore.NewKey(year, month)
}

// Ingest runs one document through the pipeline and replaces the extracted
// transactions of its month. A closed month, or one before a closed month, is
// refused before parsing; the month is only created once parsing succeeded.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) (Result, error) {
	res := Result{Document: doc.Name}
	key, err := ResolveKey(doc)
	if err != nil {
		return res, err
	}
	res.Key = key

	if err := p.store.Editable(ctx, key.Year, int(key.Month)); err != nil {
		return res, fmt.Errorf("%s: %w", doc.Name, err)
	}

	start := time.Now()
	rows, err := p.parser.ParseDocument(ctx, doc.Name, doc.Data)
	if err != nil {
		return res, err
	}

	normalized := p.normalizer.NormalizeAll(rows, key.Year, key.Month)
	res.Rejections = normalized.Rejections
	txs := p.engine.ApplyAll(normalized.Transactions)

	unit, err := p.store.OpenForEdit(ctx, key.Year, int(key.Month))
	if err != nil {
		return res, fmt.Errorf("%s: %w", doc.Name, err)
	}
	if err := unit.ReplaceExtracted(ctx, txs, doc.Name); err != nil {
		return res, err
	}
	res.Transactions = unit.List()

	p.logger.Info("Statement ingested",
		logging.Field{Key: logging.FieldFile, Value: doc.Name},
		logging.Field{Key: logging.FieldYear, Value: key.Year},
		logging.Field{Key: logging.FieldMonth, Value: int(key.Month)},
		logging.Field{Key: logging.FieldCount, Value: len(txs)},
		logging.Field{Key: "rejected", Value: len(res.Rejections)},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
	return res, nil
}

// IngestAll ingests documents on a bounded worker group. Every document gets
// a Result in input order; a failing document does not stop the others.
// Documents aimed at a month already claimed earlier in the batch fail with
// ErrDuplicateDocument.
func (p *Pipeline) IngestAll(ctx context.Context, docs []Document) []Result {
	results := make([]Result, len(docs))
	claimed := map[monthstore.Key]string{}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, doc := range docs {
		key, err := ResolveKey(doc)
		if err == nil {
			if first, dup := claimed[key]; dup {
				err = fmt.Errorf("%s and %s: %w", first, doc.Name, ErrDuplicateDocument)
			} else {
				claimed[key] = doc.Name
			}
		}
		if err != nil {
			results[i] = Result{Document: doc.Name, Key: key, Err: err}
			p.logger.WithError(err).Warn("Statement skipped",
				logging.Field{Key: logging.FieldFile, Value: doc.Name})
			continue
		}

		g.Go(func() error {
			res, err := p.Ingest(ctx, doc)
			if err != nil {
				res.Err = err
				p.logger.WithError(err).Error("Statement ingestion failed",
					logging.Field{Key: logging.FieldFile, Value: doc.Name})
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Errors collects the failures of a batch.
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
