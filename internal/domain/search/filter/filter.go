package filter

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/facet"
)

// MaxValuesPerFacet is the maximum number of accepted values per facet condition.
const MaxValuesPerFacet = 32

// Source records where constraints came from.
type Source string

// Constraint sources.
const (
	SourceNone     Source = "none"
	SourceExplicit Source = "explicit"
	SourceHinted   Source = "hinted"
)

// Expression is a conjunction of facet conditions. Each condition accepts any of its values.
type Expression struct {
	conditions []Condition
	source     Source
}

// Condition accepts a document holding any of values for facet name.
type Condition struct {
	name   facet.Name
	values []string
}

// NewCondition validates and normalises a single facet condition.
// Malformed input wraps domain.ErrInvalidFacetConstraint.
func NewCondition(name string, values []string) (Condition, error) {
	n, err := facet.Parse(name)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %v", domain.ErrInvalidFacetConstraint, err)
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("%w: facet %q has no accepted values", domain.ErrInvalidFacetConstraint, n)
	}
	if len(values) > MaxValuesPerFacet {
		return Condition{}, fmt.Errorf("%w: too many values for facet %q (max %d)",
			domain.ErrInvalidFacetConstraint, n, MaxValuesPerFacet)
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		nv, err := facet.NormalizeValue(n, v)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: %v", domain.ErrInvalidFacetConstraint, err)
		}
		if !seen[nv] {
			seen[nv] = true
			out = append(out, nv)
		}
	}
	sort.Strings(out)
	return Condition{name: n, values: out}, nil
}

// Name returns the facet this condition applies to.
func (c Condition) Name() facet.Name { return c.name }

// Values returns the accepted values, sorted.
func (c Condition) Values() []string { return c.values }

// New builds an Expression from a facet→values map.
// An empty or nil map yields the empty (unrestricted) expression.
func New(raw map[string][]string, source Source) (Expression, error) {
	if len(raw) == 0 {
		return Expression{source: SourceNone}, nil
	}
	conds := make([]Condition, 0, len(raw))
	seen := make(map[facet.Name]bool, len(raw))
	for name, vals := range raw {
		c, err := NewCondition(name, vals)
		if err != nil {
			return Expression{}, err
		}
		if seen[c.name] {
			return Expression{}, fmt.Errorf("%w: facet %q given twice", domain.ErrInvalidFacetConstraint, c.name)
		}
		seen[c.name] = true
		conds = append(conds, c)
	}
	sort.Slice(conds, func(i, j int) bool { return conds[i].name < conds[j].name })
	return Expression{conditions: conds, source: source}, nil
}

// FromConditions builds an Expression from already-validated conditions.
func FromConditions(conds []Condition, source Source) Expression {
	if len(conds) == 0 {
		return Expression{source: SourceNone}
	}
	out := append([]Condition(nil), conds...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return Expression{conditions: out, source: source}
}

// Conditions returns the conditions, sorted by facet name.
func (e Expression) Conditions() []Condition { return e.conditions }

// Source reports whether constraints were explicit, hinted or absent.
func (e Expression) Source() Source {
	if e.source == "" {
		return SourceNone
	}
	return e.source
}

// IsEmpty reports whether the expression places no restriction.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Matches evaluates the expression against a document's facets.
func (e Expression) Matches(s facet.Set) bool {
	for _, c := range e.conditions {
		ok := false
		for _, v := range c.values {
			if s.Has(c.name, v) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Raw converts the expression back to a plain map.
func (e Expression) Raw() map[string][]string {
	if e.IsEmpty() {
		return nil
	}
	out := make(map[string][]string, len(e.conditions))
	for _, c := range e.conditions {
		out[string(c.name)] = append([]string(nil), c.values...)
	}
	return out
}
