// Package facet defines the categorical attributes documents are filtered by.
package facet

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Name is a facet dimension.
type Name string

// Known facet names.
const (
	Type           Name = "type"
	IsLegendary    Name = "is_legendary"
	IsMythical     Name = "is_mythical"
	IsBaby         Name = "is_baby"
	Habitat        Name = "habitat"
	Color          Name = "color"
	EvolutionChain Name = "evolution_chain"
)

// Unknown is the bucket for documents lacking a required facet.
const Unknown = "unknown"

// Boolean facet values.
const (
	True  = "true"
	False = "false"
)

var known = map[Name]bool{
	Type: true, IsLegendary: true, IsMythical: true, IsBaby: true,
	Habitat: true, Color: true, EvolutionChain: true,
}

var booleans = map[Name]bool{IsLegendary: true, IsMythical: true, IsBaby: true}

// Indexed returns the facets every index build covers, in a stable order.
func Indexed() []Name {
	return []Name{Type, IsLegendary, IsMythical, IsBaby, Habitat, Color, EvolutionChain}
}

// Required returns the facets whose absence sends a document to the Unknown bucket.
// Boolean facets are never absent: a missing flag reads as false.
func Required() []Name {
	return []Name{Type, Habitat, Color}
}

// Parse validates a facet name.
func Parse(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if !known[n] {
		return "", fmt.Errorf("unknown facet %q", s)
	}
	return n, nil
}

// IsBoolean reports whether the facet takes only true/false values.
func (n Name) IsBoolean() bool { return booleans[n] }

// IsKnown reports whether n is a recognised facet.
func (n Name) IsKnown() bool { return known[n] }

// NormalizeValue canonicalises a facet value. Boolean facets accept any strconv.ParseBool spelling.
func NormalizeValue(n Name, v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", fmt.Errorf("empty value for facet %q", n)
	}
	if n.IsBoolean() {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return "", fmt.Errorf("facet %q expects true/false, got %q", n, v)
		}
		return strconv.FormatBool(b), nil
	}
	return v, nil
}

// Set maps facet names to the values a document holds. Values are normalised and sorted.
type Set map[Name][]string

// NewSet builds a normalised Set, deduplicating values and filling boolean defaults.
func NewSet(raw map[string][]string) (Set, error) {
	s := make(Set, len(raw)+len(booleans))
	for k, vals := range raw {
		n, err := Parse(k)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(vals))
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			nv, err := NormalizeValue(n, v)
			if err != nil {
				return nil, err
			}
			if seen[nv] {
				continue
			}
			seen[nv] = true
			out = append(out, nv)
		}
		if len(out) == 0 {
			continue
		}
		if n.IsBoolean() && len(out) > 1 {
			return nil, fmt.Errorf("boolean facet %q holds conflicting values", n)
		}
		sort.Strings(out)
		s[n] = out
	}
	for n := range booleans {
		if _, ok := s[n]; !ok {
			s[n] = []string{False}
		}
	}
	return s, nil
}

// Values returns the document's values for n, or [Unknown] when a required facet is absent.
// An optional facet that is absent yields nil.
func (s Set) Values(n Name) []string {
	if vals, ok := s[n]; ok && len(vals) > 0 {
		return vals
	}
	if n.IsBoolean() {
		return []string{False}
	}
	for _, r := range Required() {
		if r == n {
			return []string{Unknown}
		}
	}
	return nil
}

// Has reports whether the set holds value v for facet n.
func (s Set) Has(n Name, v string) bool {
	for _, x := range s.Values(n) {
		if x == v {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	c := make(Set, len(s))
	for k, v := range s {
		c[k] = append([]string(nil), v...)
	}
	return c
}

// Raw converts the set back into plain string keys for serialisation.
func (s Set) Raw() map[string][]string {
	out := make(map[string][]string, len(s))
	for k, v := range s {
		out[string(k)] = append([]string(nil), v...)
	}
	return out
}
