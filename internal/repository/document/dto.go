package document

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/pokerag/internal/domain"
	domdoc "github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/domain/facet"
)

// record is the persisted JSON form of a document.
type record struct {
	Title  string                `json:"title"`
	Body   string                `json:"body"`
	Facets map[string][]string   `json:"facets"`
	Vector []byte                `json:"vector,omitempty"`
	Space  domain.EmbeddingSpace `json:"space,omitzero"`
}

func toRecord(doc *domdoc.Document) record {
	r := record{
		Title:  doc.Title(),
		Body:   doc.Body(),
		Facets: doc.Facets().Raw(),
	}
	if len(doc.Vector()) > 0 {
		r.Vector = vectorToBytes(doc.Vector())
		r.Space = doc.Space()
	}
	return r
}

func fromRecord(id string, r record) (domdoc.Document, error) {
	facets, err := facet.NewSet(r.Facets)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("decode facets of %s: %w", id, err)
	}
	return domdoc.Reconstruct(id, r.Title, r.Body, facets, bytesToVector(r.Vector), r.Space), nil
}

// vectorToBytes serializes []float32 to 4 little-endian bytes per component.
func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
