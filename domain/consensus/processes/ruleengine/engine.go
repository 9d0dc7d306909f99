package ruleengine

import (
	"time"

	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// Category identifies one of the four rule categories.
type Category int

// Rule categories, in the order they run.
const (
	CategoryHeader Category = iota
	CategoryIntegrity
	CategoryPartial
	CategoryFull
)

var categoryStrings = map[Category]string{
	CategoryHeader:    "header",
	CategoryIntegrity: "integrity",
	CategoryPartial:   "partial",
	CategoryFull:      "full",
}

func (c Category) String() string {
	if s, ok := categoryStrings[c]; ok {
		return s
	}
	return "unknown"
}

type categoryRule struct {
	rule      Rule
	run       func(vc *ValidationContext) error
	skippable bool
}

// RuleEngine runs the registered rules category by category.
type RuleEngine struct {
	registry *Registry
	rules    map[Category][]categoryRule
}

// New initializes the rules of registry and sorts them into categories,
// keeping registration order within each category.
func New(registry *Registry) (*RuleEngine, error) {
	initPrometheusMetrics()

	err := registry.Initialize()
	if err != nil {
		return nil, err
	}

	engine := &RuleEngine{
		registry: registry,
		rules:    make(map[Category][]categoryRule),
	}
	for _, rule := range registry.rules {
		categorized := false
		if headerRule, ok := rule.(HeaderRule); ok {
			skippable := false
			if skippableRule, ok := rule.(SkippableRule); ok {
				skippable = skippableRule.CanSkipValidation()
			}
			engine.add(CategoryHeader, categoryRule{rule: rule, run: headerRule.ValidateHeader, skippable: skippable})
			categorized = true
		}
		if integrityRule, ok := rule.(IntegrityRule); ok {
			engine.add(CategoryIntegrity, categoryRule{rule: rule, run: integrityRule.CheckIntegrity})
			categorized = true
		}
		if partialRule, ok := rule.(PartialRule); ok {
			engine.add(CategoryPartial, categoryRule{rule: rule, run: partialRule.ValidatePartial})
			categorized = true
		}
		if fullRule, ok := rule.(FullRule); ok {
			engine.add(CategoryFull, categoryRule{rule: rule, run: fullRule.ValidateFull})
			categorized = true
		}
		if !categorized {
			return nil, errors.Errorf("rule %s implements no rule category", rule.Name())
		}
	}
	return engine, nil
}

func (e *RuleEngine) add(category Category, rule categoryRule) {
	e.rules[category] = append(e.rules[category], rule)
}

// Registry returns the registry the engine was built from.
func (e *RuleEngine) Registry() *Registry {
	return e.registry
}

// RuleNames returns the names of the rules of a category in execution order.
func (e *RuleEngine) RuleNames(category Category) []string {
	names := make([]string, len(e.rules[category]))
	for i, rule := range e.rules[category] {
		names[i] = rule.rule.Name()
	}
	return names
}

// ValidateHeader runs the header rules.
func (e *RuleEngine) ValidateHeader(vc *ValidationContext) error {
	return e.runCategory(vc, CategoryHeader)
}

// ValidateBlock runs header, integrity, partial and full rules in that order.
// Partial rules are skipped when a header rule set SkipValidation. The Go
// context is only checked between categories.
func (e *RuleEngine) ValidateBlock(vc *ValidationContext) error {
	for _, category := range []Category{CategoryHeader, CategoryIntegrity, CategoryPartial, CategoryFull} {
		err := vc.Context().Err()
		if err != nil {
			return errors.WithStack(err)
		}

		if category == CategoryPartial && vc.SkipValidation {
			log.Debugf("Skipping partial validation of block %s at height %d",
				vc.ChainedHeader.Hash, vc.ChainedHeader.Height)
			continue
		}

		err = e.runCategory(vc, category)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *RuleEngine) runCategory(vc *ValidationContext, category Category) error {
	start := time.Now()
	defer func() {
		prometheusCategoryDuration.WithLabelValues(category.String()).Observe(time.Since(start).Seconds())
	}()

	for _, rule := range e.rules[category] {
		if rule.skippable && vc.SkipValidation {
			continue
		}

		err := rule.run(vc)
		if err != nil {
			e.recordRejection(vc, rule.rule, err)
			return err
		}
	}
	return nil
}

func (e *RuleEngine) recordRejection(vc *ValidationContext, rule Rule, err error) {
	errorName := ruleerrors.RuleErrorName(err)
	if errorName == "" {
		errorName = "storage"
		log.Warnf("Rule %s failed on block %s for a non consensus reason: %s",
			rule.Name(), vc.ChainedHeader.Hash, err)
	} else {
		log.Debugf("Rule %s rejected block %s: %s", rule.Name(), vc.ChainedHeader.Hash, err)
	}
	prometheusRejections.WithLabelValues(rule.Name(), errorName).Inc()
}
