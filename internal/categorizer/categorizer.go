// Package categorizer assigns categories to transactions from an ordered rule
// table. The first matching rule wins; there is no scoring.
package categorizer

import (
	"fmt"
	"regexp"
	"strings"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"

	"github.com/shopspring/decimal"
)

type compiledRule struct {
	index     int
	category  models.Category
	keywords  []string
	patterns  []*regexp.Regexp
	direction models.Direction
}

func (r compiledRule) matches(lowered string) (string, bool) {
	for _, kw := range r.keywords {
		if strings.Contains(lowered, kw) {
			return kw, true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(lowered) {
			return re.String(), true
		}
	}
	return "", false
}

func (r compiledRule) admits(amount *decimal.Decimal) bool {
	switch r.direction {
	case models.DirectionIncome:
		return amount != nil && amount.IsPositive()
	case models.DirectionExpense:
		return amount != nil && amount.IsNegative()
	default:
		return true
	}
}

// Match describes which rule categorized a description.
type Match struct {
	Category  models.Category
	RuleIndex int
	Matcher   string
	Matched   bool
}

// Engine evaluates a compiled rule table. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	rules      []compiledRule
	defaultCat models.Category
	logger     logging.Logger
}

// NewEngine compiles a rule table. Tables with unknown categories or invalid
// patterns are rejected.
func NewEngine(table models.RuleTable, logger logging.Logger) (*Engine, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule table: %w", err)
	}

	def := table.Default
	if def == "" {
		def = models.CategoryUncategorized
	}

	e := &Engine{
		rules:      make([]compiledRule, 0, len(table.Rules)),
		defaultCat: def,
		logger:     logging.OrDiscard(logger),
	}
	for i, rule := range table.Rules {
		compiled := compiledRule{index: i, category: rule.Category, direction: rule.Direction}
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				compiled.keywords = append(compiled.keywords, kw)
			}
		}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): invalid pattern %q: %w", i, rule.Category, pattern, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		e.rules = append(e.rules, compiled)
	}
	return e, nil
}

// Categorize returns the category of the first rule matching the description,
// or the default category. Rules restricted to a direction are skipped since
// the amount is unknown.
func (e *Engine) Categorize(description string) models.Category {
	return e.Explain(description, nil).Category
}

// CategorizeAmount is Categorize with direction-restricted rules enabled.
func (e *Engine) CategorizeAmount(description string, amount decimal.Decimal) models.Category {
	return e.Explain(description, &amount).Category
}

// Explain reports the rule that decides the category. A nil amount disables
// direction-restricted rules.
func (e *Engine) Explain(description string, amount *decimal.Decimal) Match {
	lowered := strings.ToLower(description)
	for _, rule := range e.rules {
		if !rule.admits(amount) {
			continue
		}
		if matcher, ok := rule.matches(lowered); ok {
			return Match{Category: rule.category, RuleIndex: rule.index, Matcher: matcher, Matched: true}
		}
	}
	return Match{Category: e.defaultCat, RuleIndex: -1}
}

// Apply categorizes tx unless its category was set by a user.
func (e *Engine) Apply(tx models.Transaction) models.Transaction {
	if tx.CategoryManual {
		return tx
	}
	match := e.Explain(tx.Description, &tx.Amount)
	tx.Category = match.Category
	e.logger.Debug("Transaction categorized",
		logging.Field{Key: logging.FieldTransactionID, Value: tx.ID},
		logging.Field{Key: logging.FieldCategory, Value: string(match.Category)},
		logging.Field{Key: "rule", Value: match.RuleIndex})
	return tx
}

// ApplyAll categorizes a batch and returns a new slice.
func (e *Engine) ApplyAll(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = e.Apply(tx)
	}
	return out
}

// Default returns the fallback category.
func (e *Engine) Default() models.Category {
	return e.defaultCat
}
