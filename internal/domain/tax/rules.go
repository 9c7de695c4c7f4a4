package tax

import (
	"context"
	"fmt"

	"github.com/estudio/backend/internal/domain/ledger"
	"github.com/estudio/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Category is a tax summary accumulation category
type Category string

const (
	CategoryIVADebito   Category = "IVA_DEBITO"
	CategoryIVACredito  Category = "IVA_CREDITO"
	CategoryIIBB        Category = "IIBB"
	CategoryRetenciones Category = "RETENCIONES"
)

// Categories returns all categories in accumulation order
func Categories() []Category {
	return []Category{CategoryIVADebito, CategoryIVACredito, CategoryIIBB, CategoryRetenciones}
}

// IsValid checks if the category is a valid Category
func (c Category) IsValid() bool {
	switch c {
	case CategoryIVADebito, CategoryIVACredito, CategoryIIBB, CategoryRetenciones:
		return true
	}
	return false
}

// Contribution is one rule line: the fraction of an entry's converted amount
// accumulated into a category
type Contribution struct {
	Category Category
	Factor   decimal.Decimal
}

// Rule maps a (tax code, entry kind) pair to its category contributions.
// An empty Kind matches entries of any kind.
type Rule struct {
	TaxCode       string
	Kind          ledger.EntryKind
	Contributions []Contribution
}

// RuleTable classifies ledger entries into tax categories. The actual rule
// content is jurisdiction data sourced from tax-domain stakeholders, not
// fixed in code.
type RuleTable interface {
	Classify(entry ledger.Entry) (Rule, error)
}

// RuleProvider loads the current rule table. Aggregations load the table
// once per computation so table edits apply without redeploy.
type RuleProvider interface {
	Load(ctx context.Context) (RuleTable, error)
}

type ruleKey struct {
	taxCode string
	kind    ledger.EntryKind
}

type staticRuleTable struct {
	rules map[ruleKey]Rule
}

// NewRuleTable builds an immutable in-memory rule table from rule rows.
// Kind-specific rules take precedence over kind-agnostic ones.
func NewRuleTable(rules []Rule) RuleTable {
	t := &staticRuleTable{rules: make(map[ruleKey]Rule, len(rules))}
	for _, r := range rules {
		t.rules[ruleKey{taxCode: r.TaxCode, kind: r.Kind}] = r
	}
	return t
}

// Classify resolves the rule for an entry, falling back to a kind-agnostic
// rule for the same tax code
func (t *staticRuleTable) Classify(entry ledger.Entry) (Rule, error) {
	if r, ok := t.rules[ruleKey{taxCode: entry.TaxCode, kind: entry.Kind}]; ok {
		return r, nil
	}
	if r, ok := t.rules[ruleKey{taxCode: entry.TaxCode}]; ok {
		return r, nil
	}
	return Rule{}, shared.NewDomainError("UNKNOWN_TAX_CODE",
		fmt.Sprintf("No classification rule for tax code %q (%s)", entry.TaxCode, entry.Kind))
}
