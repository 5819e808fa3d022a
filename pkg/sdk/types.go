package pokerag

import (
	"time"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	dombatch "github.com/kailas-cloud/pokerag/internal/domain/batch"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	askuc "github.com/kailas-cloud/pokerag/internal/usecase/ask"
	indexuc "github.com/kailas-cloud/pokerag/internal/usecase/index"
	ingestuc "github.com/kailas-cloud/pokerag/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/pokerag/internal/usecase/search"
)

// Question is a retrieval or ask request.
type Question struct {
	Text string
	// Filters maps facet names (type, color, habitat, ...) to accepted values.
	Filters map[string][]string
	// Mode is "normal" (default) or "engaged".
	Mode string
	// TopK overrides the per-mode default when positive.
	TopK int
}

func (q Question) toInternal() askuc.Question {
	return askuc.Question{Text: q.Text, Filters: q.Filters, Mode: q.Mode, TopK: q.TopK}
}

// Hit is a retrieved document in rank order.
type Hit struct {
	ID     string
	Title  string
	Text   string
	Score  float64
	Facets map[string][]string
}

// Retrieval is the outcome of a hybrid search.
type Retrieval struct {
	// Outcome is "matched", "no_facet_match" or "no_semantic_match".
	Outcome    string
	Candidates int
	Generation uint64
	Hits       []Hit
	// EmbeddingTokens is the token count spent embedding the query.
	EmbeddingTokens int
}

// Confidence scores how well an answer is supported by its context.
type Confidence struct {
	Faithfulness      float64
	ContextOverlap    float64
	HallucinationRisk float64
	OverallConfidence float64
}

// Warning is attached when the hallucination risk exceeds the threshold.
type Warning struct {
	Risk      float64
	Threshold float64
	Message   string
}

// Answer is a generated answer with its retrieval and confidence.
type Answer struct {
	Text       string
	Mode       string
	Retrieval  Retrieval
	Confidence Confidence
	Warning    *Warning
	// Dropped lists document IDs left out of the prompt by the context budget.
	Dropped          []string
	PromptTokens     int
	CompletionTokens int
}

// ItemError is a per-document failure in a batch operation.
type ItemError struct {
	ID     string
	Status string
	Err    error
}

// Source names the record and enrichment files to ingest. Glob patterns
// with ** are accepted.
type Source struct {
	Records    []string
	Enrichment []string
}

// IngestReport summarizes an ingest run.
type IngestReport struct {
	Files    int
	Created  int
	Updated  int
	OK       int
	Failed   int
	Failures []ItemError
	Duration time.Duration
}

// RebuildReport summarizes an index rebuild.
type RebuildReport struct {
	Generation uint64
	Documents  int
	Embedded   int
	Reused     int
	Excluded   int
	Failures   []ItemError
	Duration   time.Duration
}

// Stats describes the published index generation.
type Stats struct {
	Generation uint64
	Documents  int
	Excluded   []string
	Space      Space
	BuiltAt    time.Time
	// Facets maps facet name to value to document count.
	Facets map[string]map[string]int
}

func toRetrieval(ret *searchuc.Retrieval) Retrieval {
	res := &ret.Result
	hits := res.Hits()
	out := Retrieval{
		Outcome:         string(res.Outcome()),
		Candidates:      res.Candidates(),
		Generation:      res.Generation(),
		Hits:            make([]Hit, 0, len(ret.Documents)),
		EmbeddingTokens: ret.Usage,
	}
	for i := range ret.Documents {
		d := &ret.Documents[i]
		h := Hit{ID: d.ID(), Title: d.Title(), Text: d.Body(), Facets: d.Facets().Raw()}
		if i < len(hits) {
			h.Score = hits[i].Score()
		}
		out.Hits = append(out.Hits, h)
	}
	return out
}

func toConfidence(r confidence.Report) Confidence {
	return Confidence{
		Faithfulness:      r.Faithfulness,
		ContextOverlap:    r.ContextOverlap,
		HallucinationRisk: r.HallucinationRisk,
		OverallConfidence: r.OverallConfidence,
	}
}

func toWarning(w *confidence.Warning) *Warning {
	if w == nil {
		return nil
	}
	return &Warning{Risk: w.Risk, Threshold: w.Threshold, Message: w.Message}
}

func toAnswer(resp *askuc.Response) Answer {
	a := &resp.Answer
	return Answer{
		Text:             a.Text(),
		Mode:             string(a.Mode()),
		Retrieval:        toRetrieval(&resp.Retrieval),
		Confidence:       toConfidence(resp.Confidence),
		Warning:          toWarning(resp.Warning),
		Dropped:          a.Dropped(),
		PromptTokens:     a.PromptTokens(),
		CompletionTokens: a.CompletionTokens(),
	}
}

func contextDocs(contexts []string) []answer.ContextDoc {
	out := make([]answer.ContextDoc, 0, len(contexts))
	for i, c := range contexts {
		out = append(out, answer.ContextDoc{ID: contextID(i), Text: c})
	}
	return out
}

func failures(results []dombatch.Result) []ItemError {
	var out []ItemError
	for _, r := range results {
		if r.Status() == dombatch.StatusOK {
			continue
		}
		out = append(out, ItemError{ID: r.ID(), Status: string(r.Status()), Err: r.Err()})
	}
	return out
}

func toIngestReport(r *ingestuc.Report) IngestReport {
	return IngestReport{
		Files:    r.Files,
		Created:  r.Created,
		Updated:  r.Updated,
		OK:       r.Summary.OK,
		Failed:   r.Summary.Failed + r.Summary.Excluded,
		Failures: failures(r.Results),
		Duration: r.Duration,
	}
}

func toRebuildReport(r *indexuc.BuildReport) RebuildReport {
	return RebuildReport{
		Generation: r.Generation,
		Documents:  r.Documents,
		Embedded:   r.Embedded,
		Reused:     r.Reused,
		Excluded:   r.Summary.Excluded + r.Summary.Failed,
		Failures:   failures(r.Results),
		Duration:   r.Duration,
	}
}

func toStats(s *indexuc.Stats) Stats {
	facets := make(map[string]map[string]int, len(s.Facets))
	for name, buckets := range s.Facets {
		facets[string(name)] = buckets
	}
	excluded := s.Excluded
	if excluded == nil {
		excluded = []string{}
	}
	return Stats{
		Generation: s.Generation,
		Documents:  s.Documents,
		Excluded:   excluded,
		Space:      Space{Provider: s.Space.Provider, Model: s.Space.Model, Dimensions: s.Space.Dimensions},
		BuiltAt:    s.BuiltAt,
		Facets:     facets,
	}
}
