package search

import (
	"github.com/kailas-cloud/pokerag/internal/domain/facet"
	"github.com/kailas-cloud/pokerag/internal/domain/search/filter"
	"github.com/kailas-cloud/pokerag/internal/text"
)

// typeKeywords maps English and French type names to the canonical type value.
var typeKeywords = map[string]string{
	"fire": "fire", "feu": "fire",
	"water": "water", "eau": "water",
	"grass": "grass", "plante": "grass",
	"electric": "electric", "électrik": "electric", "electrik": "electric", "électrique": "electric",
	"ice": "ice", "glace": "ice",
	"fighting": "fighting", "combat": "fighting",
	"poison": "poison",
	"ground": "ground",
	"flying": "flying",
	"psychic": "psychic", "psy": "psychic",
	"bug": "bug", "insecte": "bug",
	"rock": "rock", "roche": "rock",
	"ghost": "ghost", "spectre": "ghost",
	"dragon": "dragon",
	"dark": "dark", "ténèbres": "dark",
	"steel": "steel", "acier": "steel",
	"fairy": "fairy", "fée": "fairy",
}

// typeWordsNeedingContext are too common to count unless next to "type".
var typeWordsNeedingContext = map[string]string{
	"normal": "normal",
	"sol":    "ground",
	"vol":    "flying",
}

var statusKeywords = map[string]facet.Name{
	"legendary": facet.IsLegendary, "legendaries": facet.IsLegendary,
	"légendaire": facet.IsLegendary, "légendaires": facet.IsLegendary, "legendaire": facet.IsLegendary,
	"mythical": facet.IsMythical, "mythique": facet.IsMythical, "mythiques": facet.IsMythical,
	"baby": facet.IsBaby, "bébé": facet.IsBaby, "bebe": facet.IsBaby,
}

// Hints derives facet constraints from keywords in the question. Best
// effort: an empty expression means no keyword matched.
func Hints(question string) filter.Expression {
	words := text.Words(question)

	types := make(map[string]struct{})
	flags := make(map[facet.Name]struct{})
	for i, w := range words {
		if v, ok := typeKeywords[w]; ok {
			types[v] = struct{}{}
			continue
		}
		if v, ok := typeWordsNeedingContext[w]; ok && nextToTypeWord(words, i) {
			types[v] = struct{}{}
			continue
		}
		if n, ok := statusKeywords[w]; ok {
			flags[n] = struct{}{}
		}
	}

	var conds []filter.Condition
	if len(types) > 0 {
		values := make([]string, 0, len(types))
		for v := range types {
			values = append(values, v)
		}
		if c, err := filter.NewCondition(string(facet.Type), values); err == nil {
			conds = append(conds, c)
		}
	}
	for n := range flags {
		if c, err := filter.NewCondition(string(n), []string{facet.True}); err == nil {
			conds = append(conds, c)
		}
	}
	if len(conds) == 0 {
		return filter.Expression{}
	}
	return filter.FromConditions(conds, filter.SourceHinted)
}

func nextToTypeWord(words []string, i int) bool {
	return (i > 0 && isTypeWord(words[i-1])) || (i+1 < len(words) && isTypeWord(words[i+1]))
}

func isTypeWord(w string) bool {
	return w == "type" || w == "types" || w == "typé" || w == "pokémon" || w == "pokemon"
}
