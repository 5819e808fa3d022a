package pokerag

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// --- Mocks ---

const testDims = 16

// wordEmbedder hashes words into a fixed number of buckets.
type wordEmbedder struct {
	calls atomic.Int32
	err   error
}

func (e *wordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls.Add(1)
	if e.err != nil {
		return EmbeddingResult{}, e.err
	}
	v := make([]float32, testDims)
	v[0] = 1
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,:?")))
		v[1+h.Sum32()%(testDims-1)]++
	}
	return EmbeddingResult{Embedding: v, PromptTokens: 3, TotalTokens: 3}, nil
}

type echoGenerator struct {
	text   string
	prompt string
}

func (g *echoGenerator) Generate(_ context.Context, req GenerationRequest) (GenerationResult, error) {
	g.prompt = req.Prompt
	return GenerationResult{Text: g.text, PromptTokens: 10, CompletionTokens: 5}, nil
}

var testSpace = Space{Provider: "test", Model: "words", Dimensions: testDims}

func writeRecords(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "records", "gen1.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := `[
  {"name": "Pikachu", "types": ["electric"], "habitat": "forest", "color": "yellow"},
  {"name": "Charmander", "types": ["fire"], "habitat": "mountain", "color": "red"},
  {"name": "Squirtle", "types": ["water"], "habitat": "waters-edge", "color": "blue"}
]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newTestClient(t *testing.T, emb Embedder, opts ...Option) (*Client, string) {
	t.Helper()
	dir := writeRecords(t)
	opts = append([]Option{
		WithStorePath(filepath.Join(dir, "pokerag.db")),
		WithEmbedder(emb, testSpace),
	}, opts...)
	c, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, dir
}

func ingestAndRebuild(t *testing.T, c *Client, dir string) {
	t.Helper()
	ctx := context.Background()
	rep, err := c.Ingest(ctx, Source{Records: []string{filepath.Join(dir, "records", "**", "*.json")}})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rep.Created != 3 {
		t.Fatalf("created = %d, want 3", rep.Created)
	}
	if _, err := c.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
}

// --- Tests ---

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no store", []Option{WithEmbedder(&wordEmbedder{}, testSpace)}},
		{"no embedder", []Option{WithStorePath(filepath.Join(t.TempDir(), "x.db"))}},
		{"empty space", []Option{
			WithStorePath(filepath.Join(t.TempDir(), "x.db")),
			WithEmbedder(&wordEmbedder{}, Space{}),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestClient_NotReadyBeforeRebuild(t *testing.T) {
	c, _ := newTestClient(t, &wordEmbedder{})
	_, err := c.Retrieve(context.Background(), Question{Text: "electric mouse"})
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("err = %v, want ErrIndexNotReady", err)
	}
	if _, err := c.Stats(); !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("stats err = %v", err)
	}
}

func TestClient_RetrieveWithFilter(t *testing.T) {
	c, dir := newTestClient(t, &wordEmbedder{})
	ingestAndRebuild(t, c, dir)

	ret, err := c.Retrieve(context.Background(), Question{
		Text:    "Which Pokémon breathes fire?",
		Filters: map[string][]string{"type": {"fire"}},
	})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if ret.Outcome != "matched" {
		t.Errorf("outcome = %q", ret.Outcome)
	}
	if len(ret.Hits) != 1 || ret.Hits[0].ID != "charmander" {
		t.Fatalf("hits = %+v", ret.Hits)
	}
	if ret.Generation != 1 {
		t.Errorf("generation = %d, want 1", ret.Generation)
	}
	if ret.EmbeddingTokens != 3 {
		t.Errorf("embedding tokens = %d", ret.EmbeddingTokens)
	}
}

func TestClient_ExplicitFilterNoMatchSkipsEmbedding(t *testing.T) {
	emb := &wordEmbedder{}
	c, dir := newTestClient(t, emb)
	ingestAndRebuild(t, c, dir)

	before := emb.calls.Load()
	ret, err := c.Retrieve(context.Background(), Question{
		Text:    "dragons",
		Filters: map[string][]string{"type": {"dragon"}},
	})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if ret.Outcome != "no_facet_match" || len(ret.Hits) != 0 {
		t.Errorf("retrieval = %+v", ret)
	}
	if emb.calls.Load() != before {
		t.Error("embedder called for an empty candidate set")
	}
}

func TestClient_Ask(t *testing.T) {
	gen := &echoGenerator{text: "Charmander is of type fire."}
	c, dir := newTestClient(t, &wordEmbedder{}, WithGenerator(gen))
	ingestAndRebuild(t, c, dir)

	ans, err := c.Ask(context.Background(), Question{
		Text:    "What type is Charmander?",
		Filters: map[string][]string{"habitat": {"mountain"}},
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if ans.Text != gen.text {
		t.Errorf("text = %q", ans.Text)
	}
	if ans.Mode != "normal" {
		t.Errorf("mode = %q", ans.Mode)
	}
	if len(ans.Retrieval.Hits) != 1 || ans.Retrieval.Hits[0].ID != "charmander" {
		t.Fatalf("hits = %+v", ans.Retrieval.Hits)
	}
	if !strings.Contains(gen.prompt, "Charmander") {
		t.Error("prompt is missing the retrieved document")
	}
	if ans.CompletionTokens != 5 {
		t.Errorf("completion tokens = %d", ans.CompletionTokens)
	}
	if ans.Confidence.HallucinationRisk < 0 || ans.Confidence.HallucinationRisk > 1 {
		t.Errorf("risk out of range: %v", ans.Confidence.HallucinationRisk)
	}
}

func TestClient_AskWithoutGenerator(t *testing.T) {
	c, dir := newTestClient(t, &wordEmbedder{})
	ingestAndRebuild(t, c, dir)

	_, err := c.Ask(context.Background(), Question{Text: "What about Pikachu?"})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestClient_InvalidQuestion(t *testing.T) {
	c, dir := newTestClient(t, &wordEmbedder{})
	ingestAndRebuild(t, c, dir)

	_, err := c.Retrieve(context.Background(), Question{Text: "   "})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestClient_Score(t *testing.T) {
	c, _ := newTestClient(t, &wordEmbedder{})

	tests := []struct {
		name        string
		answer      string
		contexts    []string
		wantWarning bool
	}{
		{"grounded", "Pikachu is an electric mouse", []string{"Pikachu is an electric mouse that lives in forests"}, false},
		{"no context", "Pikachu is an electric mouse", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, w, err := c.Score(tt.answer, tt.contexts)
			if err != nil {
				t.Fatalf("score: %v", err)
			}
			if (w != nil) != tt.wantWarning {
				t.Errorf("warning = %+v, risk = %v", w, conf.HallucinationRisk)
			}
		})
	}

	conf, w, err := c.Score("", []string{"Pikachu is an Electric type"})
	if err != nil {
		t.Fatalf("empty answer: %v", err)
	}
	if conf.HallucinationRisk != 1 || conf.Faithfulness != 0 || conf.ContextOverlap != 0 {
		t.Errorf("empty answer confidence = %+v, want maximal risk", conf)
	}
	if w == nil {
		t.Error("empty answer should carry a warning")
	}
}

func TestClient_StatsAndHealth(t *testing.T) {
	c, dir := newTestClient(t, &wordEmbedder{})

	if h := c.Health(context.Background()); h.Checks["index"] != "error" {
		t.Errorf("index check before rebuild = %q", h.Checks["index"])
	}

	ingestAndRebuild(t, c, dir)

	st, err := c.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Documents != 3 {
		t.Errorf("documents = %d", st.Documents)
	}
	if st.Space != testSpace {
		t.Errorf("space = %+v", st.Space)
	}
	if st.Facets["type"]["fire"] != 1 {
		t.Errorf("fire bucket = %d", st.Facets["type"]["fire"])
	}

	h := c.Health(context.Background())
	if h.Status != "ok" || h.Generation != 1 {
		t.Errorf("health = %+v", h)
	}
}

func TestClient_RebuildReusesStoredEmbeddings(t *testing.T) {
	emb := &wordEmbedder{}
	c, dir := newTestClient(t, emb)
	ingestAndRebuild(t, c, dir)

	rep, err := c.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if rep.Embedded != 0 || rep.Reused != 3 {
		t.Errorf("embedded = %d, reused = %d", rep.Embedded, rep.Reused)
	}
	if rep.Generation != 2 {
		t.Errorf("generation = %d, want 2", rep.Generation)
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, dir := newTestClient(t, &wordEmbedder{}, WithPrometheus(reg))
	ingestAndRebuild(t, c, dir)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "pokerag_sdk_operations_total" {
			found = true
		}
	}
	if !found {
		t.Error("pokerag_sdk_operations_total not registered")
	}

	// A second client on the same registry reuses the collectors.
	if _, err := newObserver(nil, reg); err != nil {
		t.Errorf("reuse registry: %v", err)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrIndexNotReady, "not_ready"},
		{ErrInvalidRequest, "invalid"},
		{ErrInvalidFacetConstraint, "invalid"},
		{ErrProviderTimeout, "provider"},
		{errNoGenerator, "provider"},
		{ErrGenerationFailure, "generation"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
