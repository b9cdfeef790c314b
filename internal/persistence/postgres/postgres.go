// Package postgres stores month snapshots in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"fjacquet/statement-ledger/internal/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultConnectTimeout bounds the connection retries in NewPool.
const DefaultConnectTimeout = 30 * time.Second

// NewPool connects to dsn, retrying with exponential backoff until the
// database answers a ping or maxElapsed passes.
func NewPool(ctx context.Context, dsn string, maxElapsed time.Duration, logger logging.Logger) (*pgxpool.Pool, error) {
	logger = logging.OrDiscard(logger)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = maxElapsed
	attempt := 0
	ping := func() error {
		attempt++
		return pool.Ping(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.WithError(err).Warn("Database not reachable, retrying",
			logging.Field{Key: logging.FieldCount, Value: attempt},
			logging.Field{Key: logging.FieldDuration, Value: wait.Milliseconds()})
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(retry, ctx), notify); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		logging.Field{Key: logging.FieldDriver, Value: "postgres"},
		logging.Field{Key: "database", Value: poolConfig.ConnConfig.Database})
	return pool, nil
}

// RunMigrations brings the schema up to date through the pool. The
// database/sql view shares the pool's connections and is left open with it.
func RunMigrations(pool *pgxpool.Pool) error {
	return migrateDB(stdlib.OpenDBFromPool(pool))
}

func migrateDB(db *sql.DB) error {
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
