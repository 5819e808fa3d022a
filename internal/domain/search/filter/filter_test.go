package filter

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/facet"
)

func TestNew_Empty(t *testing.T) {
	e, err := New(nil, SourceExplicit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.IsEmpty() {
		t.Fatal("expected empty expression")
	}
	if e.Source() != SourceNone {
		t.Errorf("empty expression source = %q", e.Source())
	}
}

func TestNew_NormalizesAndSorts(t *testing.T) {
	e, err := New(map[string][]string{
		"type":         {"Fire", "water", "fire"},
		"is_legendary": {"1"},
	}, SourceExplicit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conds := e.Conditions()
	if len(conds) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conds))
	}
	if conds[0].Name() != facet.IsLegendary || conds[1].Name() != facet.Type {
		t.Errorf("conditions not sorted: %v, %v", conds[0].Name(), conds[1].Name())
	}
	if !reflect.DeepEqual(conds[0].Values(), []string{"true"}) {
		t.Errorf("boolean not normalised: %v", conds[0].Values())
	}
	if !reflect.DeepEqual(conds[1].Values(), []string{"fire", "water"}) {
		t.Errorf("values = %v", conds[1].Values())
	}
}

func TestNew_Malformed(t *testing.T) {
	many := make([]string, MaxValuesPerFacet+1)
	for i := range many {
		many[i] = strings.Repeat("x", i+1)
	}
	tests := []struct {
		name string
		raw  map[string][]string
	}{
		{"unknown facet", map[string][]string{"speed": {"90"}}},
		{"no values", map[string][]string{"type": {}}},
		{"blank value", map[string][]string{"color": {""}}},
		{"bad boolean", map[string][]string{"is_baby": {"sometimes"}}},
		{"too many values", map[string][]string{"type": many}},
		{"duplicate facet", map[string][]string{"type": {"fire"}, "TYPE": {"water"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.raw, SourceExplicit)
			if !errors.Is(err, domain.ErrInvalidFacetConstraint) {
				t.Fatalf("expected ErrInvalidFacetConstraint, got %v", err)
			}
			if !errors.Is(err, domain.ErrConfigurationMismatch) {
				t.Fatalf("expected ErrConfigurationMismatch, got %v", err)
			}
		})
	}
}

func TestExpression_Matches(t *testing.T) {
	fs, _ := facet.NewSet(map[string][]string{"type": {"fire", "flying"}, "color": {"red"}})

	tests := []struct {
		name string
		raw  map[string][]string
		want bool
	}{
		{"empty", nil, true},
		{"or within facet", map[string][]string{"type": {"water", "flying"}}, true},
		{"and across facets", map[string][]string{"type": {"fire"}, "color": {"blue"}}, false},
		{"unknown bucket", map[string][]string{"habitat": {"unknown"}}, true},
		{"boolean default", map[string][]string{"is_legendary": {"false"}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := New(tc.raw, SourceExplicit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := e.Matches(fs); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFromConditions(t *testing.T) {
	c1, _ := NewCondition("type", []string{"grass"})
	c2, _ := NewCondition("color", []string{"green"})
	e := FromConditions([]Condition{c1, c2}, SourceHinted)
	if e.Source() != SourceHinted {
		t.Errorf("source = %q", e.Source())
	}
	raw := e.Raw()
	if !reflect.DeepEqual(raw["type"], []string{"grass"}) || !reflect.DeepEqual(raw["color"], []string{"green"}) {
		t.Errorf("Raw = %v", raw)
	}
	if !FromConditions(nil, SourceHinted).IsEmpty() {
		t.Error("no conditions must be empty")
	}
}
