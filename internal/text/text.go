// Package text provides the lexical primitives shared by prompt budgeting, confidence scoring and evaluation.
package text

import (
	"strings"
	"unicode"
)

// Words lowercases text and splits it on anything that is not a letter or digit.
func Words(s string) []string {
	var words []string
	var current strings.Builder

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

// ContentWords returns Words with stopwords and single letters removed.
func ContentWords(s string) []string {
	words := Words(s)
	out := words[:0]
	for _, w := range words {
		if isContent(w) {
			out = append(out, w)
		}
	}
	return out
}

// DistinctContentWords returns the set of content words in s.
func DistinctContentWords(s string) map[string]struct{} {
	words := ContentWords(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Normalize lowercases, strips punctuation and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(Words(s), " ")
}

// EstimateTokens approximates an LLM token count: about 1.3 tokens per word.
func EstimateTokens(s string) int {
	n := len(Words(s))
	if n == 0 {
		return 0
	}
	return int(float64(n)*1.3 + 0.5)
}

// IsStopword reports whether w (lowercase) is a stopword.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

func isContent(w string) bool {
	if len([]rune(w)) < 2 {
		return false
	}
	return !IsStopword(w)
}

// English function words plus the French ones the source corpus carries.
var stopwords = func() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"these", "those", "there", "here", "into", "about", "any",
		"them", "him", "me", "my", "i", "am", "then", "only",
		"le", "la", "les", "un", "une", "des", "du", "de", "et",
		"est", "il", "elle", "en", "au", "aux", "ce", "ces", "qui",
		"que", "quoi", "dans", "sur", "par", "pour", "pas", "ne",
		"sont", "son", "sa", "ses", "se", "avec", "quel", "quelle",
		"quels", "quelles",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}()
