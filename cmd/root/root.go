// Package root contains the root command for the application
package root

import (
	"fmt"
	"io"
	"time"

	"fjacquet/statement-ledger/internal/config"
	"fjacquet/statement-ledger/internal/container"
	"fjacquet/statement-ledger/internal/fileutils"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Storage    string
	Database   string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewDiscardLogger()

	// AppContainer is built before any subcommand runs
	AppContainer *container.Container

	// ContainerOptions are applied when AppContainer is built
	ContainerOptions []container.Option

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "statement-ledger",
		Short: "A CLI tool to extract, categorize and review PDF bank statements month by month.",
		Long: `statement-ledger reads text-layer PDF bank statements, turns their lines into
categorized transactions, stores them per month and walks a year of months
through review in calendar order before producing an annual summary.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if AppContainer == nil {
				return nil
			}
			err := AppContainer.Close()
			AppContainer = nil
			return err
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}
)

func init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in $HOME/.statement-ledger, .statement-ledger or .)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text or json)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Storage, "storage", "", "Storage driver (memory, sqlite or postgres)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Database, "db", "", "SQLite database path")
}

// setup loads the configuration, applies flag overrides and wires the container.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.InitializeConfig(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if SharedFlags.Storage != "" {
		cfg.Storage.Driver = SharedFlags.Storage
	}
	if SharedFlags.Database != "" {
		cfg.Storage.SQLitePath = SharedFlags.Database
	}

	// a failed run skips PersistentPostRunE
	if AppContainer != nil {
		_ = AppContainer.Close()
		AppContainer = nil
	}

	c, err := container.NewContainer(cmd.Context(), cfg, ContainerOptions...)
	if err != nil {
		return err
	}
	AppContainer = c
	Log = c.GetLogger()
	return nil
}

// YearMonth validates the --year and --month flags of a command.
func YearMonth(year, month int) (int, time.Month, error) {
	if year < 1 {
		return 0, 0, fmt.Errorf("--year is required")
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("--month must be between 1 and 12, got %d", month)
	}
	return year, time.Month(month), nil
}

// WriteOutput writes data to path, or to w when path is empty.
func WriteOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		if err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
			_, err = fmt.Fprintln(w)
		}
		return err
	}
	if err := fileutils.WriteFile(path, data, models.PermissionReportFile); err != nil {
		return err
	}
	Log.Info("Report written", logging.Field{Key: logging.FieldFile, Value: path})
	return nil
}
