package postgres

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/monthstore"
	"fjacquet/statement-ledger/internal/persistence"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repository implements monthstore.Repository on a pgx pool.
type Repository struct {
	db     *pgxpool.Pool
	logger logging.Logger
}

// NewRepository wraps an open pool. The caller owns the pool.
func NewRepository(db *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{db: db, logger: logging.OrDiscard(logger)}
}

// LoadMonth implements monthstore.Repository.
func (r *Repository) LoadMonth(ctx context.Context, key monthstore.Key) (monthstore.Snapshot, bool, error) {
	query, args, err := selectMonth(key).ToSql()
	if err != nil {
		return monthstore.Snapshot{}, false, err
	}
	var month persistence.MonthRow
	if err := r.db.QueryRow(ctx, query, args...).Scan(month.Targets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return monthstore.Snapshot{}, false, nil
		}
		return monthstore.Snapshot{}, false, fmt.Errorf("load month %s: %w", key, err)
	}

	query, args, err = selectTransactions(key).ToSql()
	if err != nil {
		return monthstore.Snapshot{}, false, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return monthstore.Snapshot{}, false, fmt.Errorf("load transactions of %s: %w", key, err)
	}
	defer rows.Close()

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

// SaveMonth implements monthstore.Repository.
func (r *Repository) SaveMonth(ctx context.Context, snap monthstore.Snapshot) error {
	statements := []squirrel.Sqlizer{upsertMonth(snap), deleteTransactions(snap.Key)}
	for _, insert := range insertTransactions(snap) {
		statements = append(statements, insert)
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, stmt := range statements {
			query, args, err := stmt.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save month %s: %w", snap.Key, err)
	}
	r.logger.Debug("Saved month",
		logging.Field{Key: logging.FieldYear, Value: snap.Key.Year},
		logging.Field{Key: logging.FieldMonth, Value: int(snap.Key.Month)},
		logging.Field{Key: logging.FieldCount, Value: len(snap.Transactions)})
	return nil
}

// ListMonths implements monthstore.Repository.
func (r *Repository) ListMonths(ctx context.Context, year int) ([]monthstore.Key, error) {
	query, args, err := psql.Select("month").
		From(persistence.MonthsTable).
		Where(squirrel.Eq{"year": year}).
		OrderBy("month").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list months of %d: %w", year, err)
	}
	months, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, fmt.Errorf("list months of %d: %w", year, err)
	}

	keys := make([]monthstore.Key, 0, len(months))
	for _, m := range months {
		key, err := monthstore.NewKey(year, int(m))
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ListYears implements monthstore.Repository.
func (r *Repository) ListYears(ctx context.Context) ([]int, error) {
	query, args, err := psql.Select("DISTINCT year").
		From(persistence.MonthsTable).
		OrderBy("year").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	years, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	out := make([]int, len(years))
	for i, y := range years {
		out[i] = int(y)
	}
	return out, nil
}

func selectMonth(key monthstore.Key) squirrel.SelectBuilder {
	return psql.Select(persistence.MonthColumns...).
		From(persistence.MonthsTable).
		Where(squirrel.Eq{"year": key.Year, "month": int(key.Month)})
}

func selectTransactions(key monthstore.Key) squirrel.SelectBuilder {
	return psql.Select(persistence.TransactionColumns...).
		From(persistence.TransactionsTable).
		Where(squirrel.Eq{"year": key.Year, "month": int(key.Month)}).
		OrderBy("sequence")
}

func upsertMonth(snap monthstore.Snapshot) squirrel.InsertBuilder {
	return psql.Insert(persistence.MonthsTable).
		Columns(persistence.MonthColumns...).
		Values(persistence.MonthValues(snap)...).
		Suffix("ON CONFLICT (year, month) DO UPDATE SET processed = EXCLUDED.processed, source_ref = EXCLUDED.source_ref, next_sequence = EXCLUDED.next_sequence")
}

func deleteTransactions(key monthstore.Key) squirrel.DeleteBuilder {
	return psql.Delete(persistence.TransactionsTable).
		Where(squirrel.Eq{"year": key.Year, "month": int(key.Month)})
}

func insertTransactions(snap monthstore.Snapshot) []squirrel.InsertBuilder {
	var inserts []squirrel.InsertBuilder
	for _, batch := range persistence.Batches(snap.Transactions) {
		insert := psql.Insert(persistence.TransactionsTable).Columns(persistence.InsertColumns...)
		for _, t := range batch {
			insert = insert.Values(persistence.TransactionValues(snap.Key, t)...)
		}
		inserts = append(inserts, insert)
	}
	return inserts
}

var _ monthstore.Repository = (*Repository)(nil)
