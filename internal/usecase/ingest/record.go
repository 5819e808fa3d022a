package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/domain/facet"
)

// Record is a normalized structured Pokémon record.
type Record struct {
	Name           string         `json:"name"`
	BaseForm       string         `json:"base_form"`
	Types          []string       `json:"types"`
	Abilities      []string       `json:"abilities"`
	Stats          map[string]int `json:"stats"`
	FlavorText     string         `json:"flavor_text"`
	IsLegendary    bool           `json:"is_legendary"`
	IsMythical     bool           `json:"is_mythical"`
	IsBaby         bool           `json:"is_baby"`
	Habitat        string         `json:"habitat"`
	Color          string         `json:"color"`
	EvolutionChain string         `json:"evolution_chain"`
}

// statOrder fixes the rendering order of the six base stats.
var statOrder = []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"}

var statLabels = map[string]string{
	"hp":              "HP",
	"attack":          "Attack",
	"defense":         "Defense",
	"special-attack":  "Special Attack",
	"special-defense": "Special Defense",
	"speed":           "Speed",
}

// FormatDocument renders the body text for r, followed by the encyclopedia
// enrichment when present.
func FormatDocument(r *Record, enrichment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The Pokémon %s", r.Name)
	if r.BaseForm != "" && !strings.EqualFold(r.BaseForm, r.Name) {
		fmt.Fprintf(&b, " (form of %s)", r.BaseForm)
	}
	if len(r.Types) > 0 {
		fmt.Fprintf(&b, " is of type %s.", strings.Join(r.Types, " and "))
	} else {
		b.WriteString(".")
	}
	if len(r.Abilities) > 0 {
		fmt.Fprintf(&b, " It has the following abilities: %s.", strings.Join(r.Abilities, ", "))
	}
	if stats := formatStats(r.Stats); stats != "" {
		fmt.Fprintf(&b, " Its base stats are: %s.", stats)
	}
	if flavor := strings.Join(strings.Fields(r.FlavorText), " "); flavor != "" {
		fmt.Fprintf(&b, " Description: %s", flavor)
	}
	if enrichment = strings.TrimSpace(enrichment); enrichment != "" {
		b.WriteString("\n\nEncyclopedia:\n")
		b.WriteString(enrichment)
	}
	return b.String()
}

func formatStats(stats map[string]int) string {
	if len(stats) == 0 {
		return ""
	}
	parts := make([]string, 0, len(stats))
	seen := make(map[string]bool, len(statOrder))
	for _, name := range statOrder {
		if v, ok := stats[name]; ok {
			parts = append(parts, statLabels[name]+": "+strconv.Itoa(v))
			seen[name] = true
		}
	}
	var rest []string
	for name := range stats {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		parts = append(parts, name+": "+strconv.Itoa(stats[name]))
	}
	return strings.Join(parts, ", ")
}

// Facets derives the facet set. Absent habitat or color stays absent so the
// document lands in the unknown bucket.
func (r *Record) Facets() (facet.Set, error) {
	raw := map[string][]string{
		string(facet.IsLegendary): {strconv.FormatBool(r.IsLegendary)},
		string(facet.IsMythical):  {strconv.FormatBool(r.IsMythical)},
		string(facet.IsBaby):      {strconv.FormatBool(r.IsBaby)},
	}
	if types := nonBlank(r.Types); len(types) > 0 {
		raw[string(facet.Type)] = types
	}
	for name, v := range map[facet.Name]string{
		facet.Habitat:        r.Habitat,
		facet.Color:          r.Color,
		facet.EvolutionChain: r.EvolutionChain,
	} {
		if strings.TrimSpace(v) != "" {
			raw[string(name)] = []string{v}
		}
	}
	return facet.NewSet(raw)
}

// ToDocument builds the store document for r.
func (r *Record) ToDocument(enrichment string) (document.Document, error) {
	if strings.TrimSpace(r.Name) == "" {
		return document.Document{}, fmt.Errorf("record has no name")
	}
	facets, err := r.Facets()
	if err != nil {
		return document.Document{}, fmt.Errorf("facets of %s: %w", r.Name, err)
	}
	return document.New(document.IDFromName(r.Name), r.Name, FormatDocument(r, enrichment), facets)
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
