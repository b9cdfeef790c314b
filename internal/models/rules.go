package models

import "fmt"

// Direction restricts a rule to inflows or outflows.
type Direction string

// Rule directions. DirectionAny rules match on the description alone.
const (
	DirectionAny     Direction = ""
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Rule maps keywords or patterns to a category. Keywords are matched as
// case-insensitive substrings, patterns as case-insensitive regular expressions.
type Rule struct {
	Category  Category  `yaml:"category"`
	Keywords  []string  `yaml:"keywords,omitempty"`
	Patterns  []string  `yaml:"patterns,omitempty"`
	Direction Direction `yaml:"direction,omitempty"`
}

// RuleTable is the ordered rule list evaluated first-match-wins.
type RuleTable struct {
	Default Category `yaml:"default"`
	Rules   []Rule   `yaml:"rules"`
}

// Validate checks that every rule targets a known category and carries at
// least one matcher.
func (t RuleTable) Validate() error {
	if t.Default != "" && !t.Default.Valid() {
		return fmt.Errorf("default category %q is not a known category", t.Default)
	}
	for i, r := range t.Rules {
		if !r.Category.Valid() {
			return fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
		switch r.Direction {
		case DirectionAny, DirectionIncome, DirectionExpense:
		default:
			return fmt.Errorf("rule %d (%s): unknown direction %q", i, r.Category, r.Direction)
		}
		if len(r.Keywords) == 0 && len(r.Patterns) == 0 {
			return fmt.Errorf("rule %d (%s): no keywords or patterns", i, r.Category)
		}
	}
	return nil
}
