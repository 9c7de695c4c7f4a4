package persistence

import (
	"context"
	"fmt"

	"github.com/estudio/backend/internal/domain/ledger"
	"github.com/estudio/backend/internal/domain/tax"
	"github.com/estudio/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTaxRuleRepository implements tax.RuleProvider over the tax_rules table.
// The table is jurisdiction data: seeded by migration and edited by the
// accountants, so the table is reloaded per aggregation rather than cached at
// process start.
type GormTaxRuleRepository struct {
	db *gorm.DB
}

// NewGormTaxRuleRepository creates a new GormTaxRuleRepository
func NewGormTaxRuleRepository(db *gorm.DB) *GormTaxRuleRepository {
	return &GormTaxRuleRepository{db: db}
}

// Load builds a rule table from the current tax_rules rows. Rows sharing a
// (tax code, kind) pair merge into one rule with multiple contributions.
func (r *GormTaxRuleRepository) Load(ctx context.Context) (tax.RuleTable, error) {
	var ruleModels []models.TaxRuleModel
	if err := r.db.WithContext(ctx).
		Order("tax_code ASC, kind ASC, category ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	type key struct {
		taxCode string
		kind    ledger.EntryKind
	}
	grouped := make(map[key]*tax.Rule)
	order := make([]key, 0, len(ruleModels))

	for _, model := range ruleModels {
		category := tax.Category(model.Category)
		if !category.IsValid() {
			return nil, fmt.Errorf("tax rule %s has unknown category %q", model.ID, model.Category)
		}
		k := key{taxCode: model.TaxCode, kind: ledger.EntryKind(model.Kind)}
		rule, ok := grouped[k]
		if !ok {
			rule = &tax.Rule{TaxCode: k.taxCode, Kind: k.kind}
			grouped[k] = rule
			order = append(order, k)
		}
		rule.Contributions = append(rule.Contributions, tax.Contribution{
			Category: category,
			Factor:   model.Factor,
		})
	}

	rules := make([]tax.Rule, 0, len(order))
	for _, k := range order {
		rules = append(rules, *grouped[k])
	}
	return tax.NewRuleTable(rules), nil
}
