// Package store loads the categorization rule table from YAML.
package store

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"

	"gopkg.in/yaml.v3"
)

// DefaultRulesFile is looked up when no rule file is configured.
const DefaultRulesFile = "rules.yaml"

// EmbeddedSource is reported as the source of the built-in rule table.
const EmbeddedSource = "embedded"

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// DefaultRuleTableYAML returns the built-in rule table document.
func DefaultRuleTableYAML() []byte {
	out := make([]byte, len(defaultRulesYAML))
	copy(out, defaultRulesYAML)
	return out
}

// DefaultRuleTable decodes the built-in rule table.
func DefaultRuleTable() (models.RuleTable, error) {
	return DecodeRuleTable(defaultRulesYAML)
}

// DecodeRuleTable parses and validates a YAML rule table. Unknown fields and
// unknown categories are errors.
func DecodeRuleTable(data []byte) (models.RuleTable, error) {
	var table models.RuleTable
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&table); err != nil {
		return models.RuleTable{}, fmt.Errorf("error parsing rule table: %w", err)
	}
	if table.Default == "" {
		table.Default = models.CategoryUncategorized
	}
	if err := table.Validate(); err != nil {
		return models.RuleTable{}, err
	}
	return table, nil
}

// RuleStore locates and loads the rule table.
type RuleStore struct {
	RulesFile string
	logger    logging.Logger
}

// NewRuleStore creates a store for the given rule file. An empty name means
// DefaultRulesFile in the standard locations.
func NewRuleStore(rulesFile string, logger logging.Logger) *RuleStore {
	return &RuleStore{RulesFile: rulesFile, logger: logging.OrDiscard(logger)}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *RuleStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "statement-ledger", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// Load returns the rule table and where it came from. A missing file falls
// back to the embedded table; a file that exists but does not parse is an error.
func (s *RuleStore) Load() (models.RuleTable, string, error) {
	filename := s.RulesFile
	explicit := filename != ""
	if !explicit {
		filename = DefaultRulesFile
	}

	path, err := s.FindConfigFile(filename)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return models.RuleTable{}, "", fmt.Errorf("error resolving rule file: %w", err)
		}
		if explicit {
			s.logger.Warn("Rule file not found, using built-in rules",
				logging.Field{Key: logging.FieldFile, Value: filename})
		}
		table, err := DefaultRuleTable()
		return table, EmbeddedSource, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return models.RuleTable{}, "", fmt.Errorf("error reading rule file: %w", err)
	}
	table, err := DecodeRuleTable(data)
	if err != nil {
		return models.RuleTable{}, "", fmt.Errorf("%s: %w", path, err)
	}

	s.logger.Debug("Loaded rule table",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(table.Rules)})
	return table, path, nil
}

// Save writes a rule table as YAML.
func (s *RuleStore) Save(path string, table models.RuleTable) error {
	if err := table.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(table)
	if err != nil {
		return fmt.Errorf("error encoding rule table: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error writing rule file: %w", err)
	}
	return nil
}
