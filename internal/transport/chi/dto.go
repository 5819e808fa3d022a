package chi

import (
	"time"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/batch"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	domdoc "github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/repository/facetindex"
	"github.com/kailas-cloud/pokerag/internal/usecase/ask"
	indexuc "github.com/kailas-cloud/pokerag/internal/usecase/index"
	"github.com/kailas-cloud/pokerag/internal/usecase/search"
)

// QuestionRequest is the body of POST /v1/ask and POST /v1/retrieve.
type QuestionRequest struct {
	Question string              `json:"question"`
	Filters  map[string][]string `json:"filters,omitempty"`
	Mode     string              `json:"mode,omitempty"`
	TopK     int                 `json:"top_k,omitempty"`
}

func (q QuestionRequest) toQuestion() ask.Question {
	return ask.Question{Text: q.Question, Filters: q.Filters, Mode: q.Mode, TopK: q.TopK}
}

// HitResponse is one ranked document.
type HitResponse struct {
	ID     string              `json:"id"`
	Title  string              `json:"title"`
	Score  float64             `json:"score"`
	Facets map[string][]string `json:"facets,omitempty"`
}

// RetrievalResponse describes what retrieval returned and why.
type RetrievalResponse struct {
	Outcome      string              `json:"outcome"`
	Candidates   int                 `json:"candidates"`
	Generation   uint64              `json:"generation"`
	FilterSource string              `json:"filter_source"`
	Filters      map[string][]string `json:"filters,omitempty"`
	Hits         []HitResponse       `json:"hits"`
}

// UsageResponse reports tokens spent on a request.
type UsageResponse struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// AskResponse is the body of a successful POST /v1/ask.
type AskResponse struct {
	Answer     string              `json:"answer"`
	Mode       mode.Mode           `json:"mode"`
	Context    []answer.ContextDoc `json:"context"`
	Dropped    []string            `json:"dropped,omitempty"`
	Confidence confidence.Report   `json:"confidence"`
	Warning    *confidence.Warning `json:"warning,omitempty"`
	Retrieval  RetrievalResponse   `json:"retrieval"`
	Usage      UsageResponse       `json:"usage"`
}

// ScoreRequest is the body of POST /v1/score.
type ScoreRequest struct {
	Answer   string   `json:"answer"`
	Contexts []string `json:"contexts"`
}

// ScoreResponse is the body of a successful POST /v1/score.
type ScoreResponse struct {
	Confidence confidence.Report   `json:"confidence"`
	Warning    *confidence.Warning `json:"warning,omitempty"`
}

// IndexStatsResponse is the body of GET /v1/index.
type IndexStatsResponse struct {
	Generation uint64                `json:"generation"`
	Documents  int                   `json:"documents"`
	Excluded   []string              `json:"excluded"`
	Space      domain.EmbeddingSpace `json:"space"`
	BuiltAt    time.Time             `json:"built_at"`
	Facets     facetindex.Stats      `json:"facets"`
}

// ItemResultResponse is the outcome for one document of a rebuild.
type ItemResultResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RebuildResponse is the body of POST /v1/index/rebuild.
type RebuildResponse struct {
	Generation uint64               `json:"generation"`
	Documents  int                  `json:"documents"`
	Embedded   int                  `json:"embedded"`
	Reused     int                  `json:"reused"`
	Summary    batch.Summary        `json:"summary"`
	Failures   []ItemResultResponse `json:"failures,omitempty"`
	DurationMS int64                `json:"duration_ms"`
}

// DocumentResponse is the body of GET /v1/documents/{id}.
type DocumentResponse struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Facets   map[string][]string    `json:"facets"`
	Embedded bool                   `json:"embedded"`
	Space    *domain.EmbeddingSpace `json:"space,omitempty"`
}

func retrievalToResponse(ret *search.Retrieval) RetrievalResponse {
	res := &ret.Result
	hits := res.Hits()
	out := RetrievalResponse{
		Outcome:      string(res.Outcome()),
		Candidates:   res.Candidates(),
		Generation:   res.Generation(),
		FilterSource: string(res.Filters().Source()),
		Filters:      res.Filters().Raw(),
		Hits:         make([]HitResponse, 0, len(ret.Documents)),
	}
	for i := range ret.Documents {
		d := &ret.Documents[i]
		h := HitResponse{ID: d.ID(), Title: d.Title(), Facets: d.Facets().Raw()}
		if i < len(hits) {
			h.Score = hits[i].Score()
		}
		out.Hits = append(out.Hits, h)
	}
	return out
}

func askToResponse(resp *ask.Response) AskResponse {
	a := &resp.Answer
	return AskResponse{
		Answer:     a.Text(),
		Mode:       a.Mode(),
		Context:    a.Context(),
		Dropped:    a.Dropped(),
		Confidence: resp.Confidence,
		Warning:    resp.Warning,
		Retrieval:  retrievalToResponse(&resp.Retrieval),
		Usage: UsageResponse{
			EmbeddingTokens:  resp.Retrieval.Usage,
			PromptTokens:     a.PromptTokens(),
			CompletionTokens: a.CompletionTokens(),
		},
	}
}

func statsToResponse(st *indexuc.Stats) IndexStatsResponse {
	excluded := st.Excluded
	if excluded == nil {
		excluded = []string{}
	}
	return IndexStatsResponse{
		Generation: st.Generation,
		Documents:  st.Documents,
		Excluded:   excluded,
		Space:      st.Space,
		BuiltAt:    st.BuiltAt,
		Facets:     st.Facets,
	}
}

func rebuildToResponse(r *indexuc.BuildReport) RebuildResponse {
	out := RebuildResponse{
		Generation: r.Generation,
		Documents:  r.Documents,
		Embedded:   r.Embedded,
		Reused:     r.Reused,
		Summary:    r.Summary,
		DurationMS: r.Duration.Milliseconds(),
	}
	for _, res := range r.Results {
		if res.Status() == batch.StatusOK {
			continue
		}
		item := ItemResultResponse{ID: res.ID(), Status: string(res.Status())}
		if res.Err() != nil {
			item.Error = safeDomainMessage(res.Err())
		}
		out.Failures = append(out.Failures, item)
	}
	return out
}

func documentToResponse(d *domdoc.Document) DocumentResponse {
	out := DocumentResponse{
		ID:       d.ID(),
		Title:    d.Title(),
		Body:     d.Body(),
		Facets:   d.Facets().Raw(),
		Embedded: len(d.Vector()) > 0,
	}
	if !d.Space().IsZero() {
		sp := d.Space()
		out.Space = &sp
	}
	return out
}
