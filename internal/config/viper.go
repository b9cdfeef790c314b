// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/pdfparser"
	"fjacquet/statement-ledger/internal/report"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LEDGER_STORAGE_DRIVER.
const EnvPrefix = "LEDGER"

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Rules struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"rules" yaml:"rules"`

	Normalizer struct {
		ToleranceDays int  `mapstructure:"tolerance_days" yaml:"tolerance_days"`
		DayFirst      bool `mapstructure:"day_first" yaml:"day_first"`
	} `mapstructure:"normalizer" yaml:"normalizer"`

	Parser struct {
		PdftotextPath string `mapstructure:"pdftotext_path" yaml:"pdftotext_path"`
		BalancePolicy string `mapstructure:"balance_policy" yaml:"balance_policy"`
	} `mapstructure:"parser" yaml:"parser"`

	Storage struct {
		Driver                string `mapstructure:"driver" yaml:"driver"`
		SQLitePath            string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
		PostgresDSN           string `mapstructure:"postgres_dsn" yaml:"-"` // Never serialize credentials
		ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds" yaml:"connect_timeout_seconds"`
	} `mapstructure:"storage" yaml:"storage"`

	Ingest struct {
		Workers int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"ingest" yaml:"ingest"`

	Report struct {
		Format       string `mapstructure:"format" yaml:"format"`
		CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
		Currency     string `mapstructure:"currency" yaml:"currency"`
	} `mapstructure:"report" yaml:"report"`
}

// InitializeConfig loads defaults, then the config file, then LEDGER_*
// environment variables. An explicit configFile must exist; otherwise
// config.yaml is looked up in $HOME/.statement-ledger, .statement-ledger and
// the working directory.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.statement-ledger")
		v.AddConfigPath(".statement-ledger")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless explicit)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 5. LOG_LEVEL is honored without prefix, as .env files commonly set it
	if err := v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rules.file", "")

	v.SetDefault("normalizer.tolerance_days", 3)
	v.SetDefault("normalizer.day_first", false)

	v.SetDefault("parser.pdftotext_path", pdfparser.DefaultPdftotextPath)
	v.SetDefault("parser.balance_policy", "monotonic")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "statement-ledger.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.connect_timeout_seconds", 30)

	v.SetDefault("ingest.workers", 4)

	v.SetDefault("report.format", "json")
	v.SetDefault("report.csv_delimiter", ",")
	v.SetDefault("report.currency", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Normalizer.ToleranceDays < 0 || config.Normalizer.ToleranceDays > 15 {
		return fmt.Errorf("normalizer.tolerance_days must be between 0 and 15, got: %d", config.Normalizer.ToleranceDays)
	}

	if _, err := pdfparser.PolicyByName(config.Parser.BalancePolicy); err != nil {
		return err
	}

	switch config.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if config.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path required for the sqlite driver")
		}
	case DriverPostgres:
		if config.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be memory, sqlite or postgres)", config.Storage.Driver)
	}

	if config.Storage.ConnectTimeoutSeconds < 1 {
		return fmt.Errorf("storage.connect_timeout_seconds must be positive, got: %d", config.Storage.ConnectTimeoutSeconds)
	}

	if config.Ingest.Workers < 1 || config.Ingest.Workers > 64 {
		return fmt.Errorf("ingest.workers must be between 1 and 64, got: %d", config.Ingest.Workers)
	}

	if _, err := report.ParseFormat(config.Report.Format); err != nil {
		return err
	}

	if len([]rune(config.Report.CSVDelimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.Report.CSVDelimiter)
	}

	return nil
}

// CSVDelimiter returns the report CSV delimiter as a rune.
func (c *Config) CSVDelimiter() rune {
	return []rune(c.Report.CSVDelimiter)[0]
}

// ConfigureLoggingFromConfig builds the application logger from the Config struct
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
