// Package container provides dependency injection for the statement-ledger application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"fjacquet/statement-ledger/internal/categorizer"
	"fjacquet/statement-ledger/internal/config"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/monthstore"
	"fjacquet/statement-ledger/internal/normalizer"
	"fjacquet/statement-ledger/internal/pdfparser"
	"fjacquet/statement-ledger/internal/persistence/postgres"
	"fjacquet/statement-ledger/internal/persistence/sqlite"
	"fjacquet/statement-ledger/internal/pipeline"
	"fjacquet/statement-ledger/internal/report"
	"fjacquet/statement-ledger/internal/store"
)

// Option adjusts the container before wiring.
type Option func(*options)

type options struct {
	logger    logging.Logger
	extractor pdfparser.TextExtractor
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithExtractor replaces the pdftotext extractor.
func WithExtractor(extractor pdfparser.TextExtractor) Option {
	return func(o *options) { o.extractor = extractor }
}

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	rules      ruleInfo
	engine     *categorizer.Engine
	normalizer *normalizer.Normalizer
	parser     *pdfparser.Parser
	months     *monthstore.Store
	pipeline   *pipeline.Pipeline
	reports    *report.Generator
	closers    []func() error
}

// ruleInfo records where the rule table came from.
type ruleInfo struct {
	source string
	count  int
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	table, source, err := store.NewRuleStore(cfg.Rules.File, logger).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	engine, err := categorizer.NewEngine(table, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid rule table %s: %w", source, err)
	}

	norm := normalizer.New(normalizer.Options{
		ToleranceDays: cfg.Normalizer.ToleranceDays,
		DayFirst:      cfg.Normalizer.DayFirst,
	}, logger)

	policy, err := pdfparser.PolicyByName(cfg.Parser.BalancePolicy)
	if err != nil {
		return nil, err
	}
	extractor := o.extractor
	if extractor == nil {
		extractor = pdfparser.NewPdftotextExtractor(cfg.Parser.PdftotextPath, logger)
	}
	parser := pdfparser.NewParser(extractor, policy, logger)

	c := &Container{
		logger:     logger,
		config:     cfg,
		rules:      ruleInfo{source: source, count: len(table.Rules)},
		engine:     engine,
		normalizer: norm,
		parser:     parser,
		reports:    report.NewGenerator(cfg.CSVDelimiter(), logger),
	}

	repo, err := c.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	c.months = monthstore.New(repo, norm, logger)
	c.pipeline = pipeline.New(parser, norm, engine, c.months, cfg.Ingest.Workers, logger)

	logger.Info("Container initialized successfully",
		logging.Field{Key: logging.FieldDriver, Value: cfg.Storage.Driver},
		logging.Field{Key: "rules_source", Value: source},
		logging.Field{Key: "rules_count", Value: len(table.Rules)},
		logging.Field{Key: logging.FieldPolicy, Value: cfg.Parser.BalancePolicy})

	return c, nil
}

// openRepository builds the Month Store backend selected by storage.driver.
// A nil repository keeps months in memory.
func (c *Container) openRepository(ctx context.Context) (monthstore.Repository, error) {
	cfg := c.config
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.Storage.SQLitePath, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		c.closers = append(c.closers, repo.Close)
		return repo, nil
	case config.DriverPostgres:
		timeout := time.Duration(cfg.Storage.ConnectTimeoutSeconds) * time.Second
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN, timeout, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		if err := postgres.RunMigrations(pool); err != nil {
			pool.Close()
			return nil, err
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		return postgres.NewRepository(pool, c.logger), nil
	case config.DriverMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetEngine returns the categorization engine.
func (c *Container) GetEngine() *categorizer.Engine {
	return c.engine
}

// GetNormalizer returns the transaction normalizer.
func (c *Container) GetNormalizer() *normalizer.Normalizer {
	return c.normalizer
}

// GetParser returns the statement parser.
func (c *Container) GetParser() *pdfparser.Parser {
	return c.parser
}

// GetMonthStore returns the month store.
func (c *Container) GetMonthStore() *monthstore.Store {
	return c.months
}

// GetPipeline returns the ingestion pipeline.
func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

// GetReportGenerator returns the report generator.
func (c *Container) GetReportGenerator() *report.Generator {
	return c.reports
}

// RulesSource names the file the rule table was loaded from.
func (c *Container) RulesSource() string {
	return c.rules.source
}

// RuleCount returns the number of rules in the loaded table.
func (c *Container) RuleCount() int {
	return c.rules.count
}

// Close releases storage connections.
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	c.logger.Debug("Container closed")
	return firstErr
}
