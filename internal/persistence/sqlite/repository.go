// Package sqlite stores month snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/monthstore"
	"fjacquet/statement-ledger/internal/persistence"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Repository implements monthstore.Repository on SQLite.
type Repository struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger logging.Logger
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string, logger logging.Logger) (*Repository, error) {
	logger = logging.OrDiscard(logger)
	if err := os.MkdirAll(filepath.Dir(dbPath), models.PermissionDirectory); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under parallel ingestion.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("SQLite database ready",
		logging.Field{Key: logging.FieldFile, Value: dbPath},
		logging.Field{Key: logging.FieldDriver, Value: driverName})

	return &Repository{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: logger,
	}, nil
}

// Close releases the database.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadMonth implements monthstore.Repository.
func (r *Repository) LoadMonth(ctx context.Context, key monthstore.Key) (monthstore.Snapshot, bool, error) {
	query, args, err := r.sq.Select(persistence.MonthColumns...).
		From(persistence.MonthsTable).
		Where(squirrel.Eq{"year": key.Year, "month": int(key.Month)}).
		ToSql()
	if err != nil {
		return monthstore.Snapshot{}, false, fmt.Errorf("build month query: %w", err)
	}

	var month persistence.MonthRow
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(month.Targets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return monthstore.Snapshot{}, false, nil
		}
		return monthstore.Snapshot{}, false, fmt.Errorf("load month %s: %w", key, err)
	}

	query, args, err = r.sq.Select(persistence.TransactionColumns...).
		From(persistence.TransactionsTable).
		Where(squirrel.Eq{"year": key.Year, "month": int(key.Month)}).
		OrderBy("sequence").
		ToSql()
	if err != nil {
		return monthstore.Snapshot{}, false, fmt.Errorf("build transactions query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return monthstore.Snapshot{}, false, fmt.Errorf("load transactions of %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	var txs []models.Transaction
	for rows.Next() {
		var row persistence.TransactionRow
		if err := rows.Scan(row.Targets()...); err != nil {
			return monthstore.Snapshot{}, false, fmt.Errorf("scan transaction of %s: %w", key, err)
		}
		tx, err := row.Transaction()
		if err != nil {
			return monthstore.Snapshot{}, false, fmt.Errorf("month %s: %w", key, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return monthstore.Snapshot{}, false, fmt.Errorf("read transactions of %s: %w", key, err)
	}
	return persistence.Snapshot(key, month, txs), true, nil
}

// SaveMonth implements monthstore.Repository. The month row and all its
// transactions are replaced in one transaction.
func (r *Repository) SaveMonth(ctx context.Context, snap monthstore.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save of %s: %w", snap.Key, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := r.sq.Insert(persistence.MonthsTable).
		Columns(persistence.MonthColumns...).
		Values(persistence.MonthValues(snap)...).
		Suffix("ON CONFLICT (year, month) DO UPDATE SET processed = excluded.processed, source_ref = excluded.source_ref, next_sequence = excluded.next_sequence").
		ToSql()
	if err != nil {
		return fmt.Errorf("build month upsert: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save month %s: %w", snap.Key, err)
	}

	query, args, err = r.sq.Delete(persistence.TransactionsTable).
		Where(squirrel.Eq{"year": snap.Key.Year, "month": int(snap.Key.Month)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build transactions delete: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear transactions of %s: %w", snap.Key, err)
	}

	for _, batch := range persistence.Batches(snap.Transactions) {
		insert := r.sq.Insert(persistence.TransactionsTable).Columns(persistence.InsertColumns...)
		for _, t := range batch {
			insert = insert.Values(persistence.TransactionValues(snap.Key, t)...)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build transactions insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert transactions of %s: %w", snap.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save of %s: %w", snap.Key, err)
	}
	return nil
}

// ListMonths implements monthstore.Repository.
func (r *Repository) ListMonths(ctx context.Context, year int) ([]monthstore.Key, error) {
	query, args, err := r.sq.Select("month").
		From(persistence.MonthsTable).
		Where(squirrel.Eq{"year": year}).
		OrderBy("month").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build months query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list months of %d: %w", year, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []monthstore.Key
	for rows.Next() {
		var month int
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		key, err := monthstore.NewKey(year, month)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ListYears implements monthstore.Repository.
func (r *Repository) ListYears(ctx context.Context) ([]int, error) {
	query, args, err := r.sq.Select("DISTINCT year").
		From(persistence.MonthsTable).
		OrderBy("year").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build years query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

var _ monthstore.Repository = (*Repository)(nil)
