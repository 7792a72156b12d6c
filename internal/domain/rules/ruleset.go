package rules

import (
	"fmt"
	"sort"

	"github.com/okian/brecher/internal/domain/model"
)

// RuleSet is one generation of the league rules: the ordered category
// table, the write validators, the weekly bonuses and the categories shown
// in charts. A RuleSet is immutable once built.
type RuleSet struct {
	version    string
	rules      []Rule
	byCategory map[model.Category]Rule
	validators []Validator
	bonuses    []Bonus
	charts     []model.Category
}

// Option applies a configuration option to a RuleSet under construction.
type Option func(*RuleSet)

// WithRules appends category rules in display order.
func WithRules(rules ...Rule) Option {
	return func(rs *RuleSet) {
		rs.rules = append(rs.rules, rules...)
	}
}

// WithValidators appends write validators.
func WithValidators(validators ...Validator) Option {
	return func(rs *RuleSet) {
		rs.validators = append(rs.validators, validators...)
	}
}

// WithBonuses appends weekly bonuses.
func WithBonuses(bonuses ...Bonus) Option {
	return func(rs *RuleSet) {
		rs.bonuses = append(rs.bonuses, bonuses...)
	}
}

// WithChartCategories sets the categories used for charts and leaders.
func WithChartCategories(categories ...model.Category) Option {
	return func(rs *RuleSet) {
		rs.charts = categories
	}
}

// NewRuleSet builds a rule set. Later rules for an already registered
// category replace the earlier one in place.
func NewRuleSet(version string, opts ...Option) *RuleSet {
	rs := &RuleSet{version: version}
	for _, opt := range opts {
		opt(rs)
	}

	rs.byCategory = make(map[model.Category]Rule, len(rs.rules))
	ordered := make([]Rule, 0, len(rs.rules))
	for _, r := range rs.rules {
		if _, dup := rs.byCategory[r.Category()]; dup {
			for i := range ordered {
				if ordered[i].Category() == r.Category() {
					ordered[i] = r
				}
			}
		} else {
			ordered = append(ordered, r)
		}
		rs.byCategory[r.Category()] = r
	}
	rs.rules = ordered
	return rs
}

// Version returns the rule generation identifier.
func (rs *RuleSet) Version() string { return rs.version }

// Categories lists the categories in display order.
func (rs *RuleSet) Categories() []model.Category {
	out := make([]model.Category, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.Category()
	}
	return out
}

// Rule looks up the rule for category.
func (rs *RuleSet) Rule(category model.Category) (Rule, bool) {
	r, ok := rs.byCategory[category]
	return r, ok
}

// Has reports whether category belongs to this rule set.
func (rs *RuleSet) Has(category model.Category) bool {
	_, ok := rs.byCategory[category]
	return ok
}

// Bonuses returns the weekly bonuses.
func (rs *RuleSet) Bonuses() []Bonus { return rs.bonuses }

// ChartCategories returns the categories shown in charts and leader boards.
func (rs *RuleSet) ChartCategories() []model.Category { return rs.charts }

// Validate runs every validator against w and returns the first rejection.
func (rs *RuleSet) Validate(w Write) error {
	if !rs.Has(w.Category) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, w.Category)
	}
	for _, v := range rs.validators {
		if err := v.Validate(w); err != nil {
			return err
		}
	}
	return nil
}

// Registry holds the known rule generations by version.
type Registry struct {
	sets map[string]*RuleSet
}

// NewRegistry creates a registry containing sets.
func NewRegistry(sets ...*RuleSet) *Registry {
	r := &Registry{sets: make(map[string]*RuleSet, len(sets))}
	for _, rs := range sets {
		r.Register(rs)
	}
	return r
}

// DefaultRegistry contains every rule generation shipped with the league.
func DefaultRegistry() *Registry {
	return NewRegistry(Legacy(), Current())
}

// Register adds or replaces a rule set.
func (r *Registry) Register(rs *RuleSet) {
	r.sets[rs.Version()] = rs
}

// Get returns the rule set for version.
func (r *Registry) Get(version string) (*RuleSet, error) {
	rs, ok := r.sets[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
	return rs, nil
}

// Versions lists the registered versions in ascending order.
func (r *Registry) Versions() []string {
	out := make([]string, 0, len(r.sets))
	for v := range r.sets {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
