package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand resolves glob patterns (with ** support) to a sorted, deduplicated file list.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadRecords decodes a file holding one record or an array of records.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var recs []Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return recs, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []Record{rec}, nil
}

// Enrichment maps lowercased Pokémon names to encyclopedia text.
type Enrichment map[string]string

// Lookup returns the text for name, ignoring case.
func (e Enrichment) Lookup(name string) string {
	return e[strings.ToLower(strings.TrimSpace(name))]
}

// ReadEnrichment merges every {"name": "text"} JSON file matching patterns.
// Later files win on duplicate names.
func ReadEnrichment(patterns []string) (Enrichment, error) {
	files, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	out := make(Enrichment)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		for k, v := range m {
			out[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return out, nil
}
