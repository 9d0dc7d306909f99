package ruleengine

import (
	"github.com/pkg/errors"
)

// Registry holds the rules of an engine in registration order.
type Registry struct {
	rules []Rule
}

// NewRegistry creates a registry holding rules in the given order.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// Register appends rules to the registry.
func (r *Registry) Register(rules ...Rule) {
	r.rules = append(r.rules, rules...)
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []Rule {
	rules := make([]Rule, len(r.rules))
	copy(rules, r.rules)
	return rules
}

// Initialize calls Initialize on every rule implementing Initializer.
func (r *Registry) Initialize() error {
	for _, rule := range r.rules {
		initializer, ok := rule.(Initializer)
		if !ok {
			continue
		}
		err := initializer.Initialize(r)
		if err != nil {
			return errors.Wrapf(err, "failed initializing rule %s", rule.Name())
		}
	}
	return nil
}

// FindRule returns the first registered rule of type T.
func FindRule[T Rule](r *Registry) (T, bool) {
	for _, rule := range r.rules {
		if found, ok := rule.(T); ok {
			return found, true
		}
	}
	var zero T
	return zero, false
}

// MustFindRule is like FindRule but returns an error naming the missing rule
// type.
func MustFindRule[T Rule](r *Registry) (T, error) {
	found, ok := FindRule[T](r)
	if !ok {
		return found, errors.Errorf("rule of type %T is not registered", found)
	}
	return found, nil
}
