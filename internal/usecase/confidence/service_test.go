package confidence

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

const pikachu = "Pikachu is an Electric type Pokémon with base speed 90"

func newAnswer(text string, contexts ...string) answer.Answer {
	docs := make([]answer.ContextDoc, len(contexts))
	for i, c := range contexts {
		docs[i] = answer.ContextDoc{ID: string(rune('a' + i)), Text: c}
	}
	return answer.New(text, docs, nil, mode.Normal)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore_EmptyAnswer(t *testing.T) {
	r := Score("", pikachu)
	if r.ContextOverlap != 0 || r.Faithfulness != 0 || r.HallucinationRisk != 1 || r.OverallConfidence != 0 {
		t.Errorf("report = %+v", r)
	}
}

func TestScore_EmptyContextForcesMaxRisk(t *testing.T) {
	for _, text := range []string{pikachu, "anything at all", "Electric"} {
		r := Score(text, "")
		if r.HallucinationRisk != 1 {
			t.Errorf("Score(%q, \"\") risk = %v, want 1", text, r.HallucinationRisk)
		}
	}
}

func TestScore_VerbatimCopy(t *testing.T) {
	r := Score(pikachu, pikachu)
	if !near(r.Faithfulness, 1) || !near(r.ContextOverlap, 1) {
		t.Errorf("faithfulness = %v, overlap = %v, want 1", r.Faithfulness, r.ContextOverlap)
	}
	if !near(r.HallucinationRisk, 0) || !near(r.OverallConfidence, 1) {
		t.Errorf("risk = %v, confidence = %v", r.HallucinationRisk, r.OverallConfidence)
	}
}

func TestScore_NoOverlap(t *testing.T) {
	r := Score("Charizard breathes scorching flames", pikachu)
	if r.ContextOverlap != 0 {
		t.Errorf("overlap = %v, want 0", r.ContextOverlap)
	}
	if r.HallucinationRisk <= confidence.DefaultRiskThreshold {
		t.Errorf("risk = %v, want above threshold", r.HallucinationRisk)
	}
}

func TestScore_MentioningElectric(t *testing.T) {
	r := Score("Pikachu is Electric.", pikachu)
	if r.ContextOverlap <= 0 {
		t.Errorf("overlap = %v, want > 0", r.ContextOverlap)
	}
	if !near(r.HallucinationRisk, 1-(r.Faithfulness+r.ContextOverlap)/2) {
		t.Errorf("risk %v is not 1 - mean(%v, %v)", r.HallucinationRisk, r.Faithfulness, r.ContextOverlap)
	}
}

func TestOverlap_CaseInsensitiveAndIgnoresStopwords(t *testing.T) {
	// "the" and "is" are stopwords; pikachu and electric are grounded, fast is not
	got := Overlap("The PIKACHU is ELECTRIC and fast", pikachu)
	if !near(got, 2.0/3.0) {
		t.Errorf("Overlap = %v, want 2/3", got)
	}
}

func TestFaithfulness_RewardsPhraseReuse(t *testing.T) {
	ctx := strings.Fields("pikachu is an electric type pokémon")
	ordered := Faithfulness(strings.Fields("pikachu is an electric type"), ctx)
	shuffled := Faithfulness(strings.Fields("type electric an is pikachu"), ctx)
	if !near(ordered, 1) {
		t.Errorf("ordered = %v, want 1", ordered)
	}
	if shuffled >= ordered {
		t.Errorf("shuffled %v should score below ordered %v", shuffled, ordered)
	}
}

func TestService_ScoreUsesAnswerContext(t *testing.T) {
	svc := New(0.3, nil)
	a := newAnswer(pikachu, "Unrelated text about Squirtle.", pikachu)
	r := svc.Score(&a)
	if !near(r.Faithfulness, 1) {
		t.Errorf("faithfulness = %v, want 1", r.Faithfulness)
	}

	empty := newAnswer(pikachu)
	if r := svc.Score(&empty); r.HallucinationRisk != 1 {
		t.Errorf("risk without context = %v, want 1", r.HallucinationRisk)
	}
}

func TestService_AssessWarnsAboveThreshold(t *testing.T) {
	svc := New(0.3, nil)
	before := testutil.ToFloat64(metrics.ConfidenceWarningsTotal)

	risky := newAnswer("Mewtwo was cloned on Cinnabar Island", pikachu)
	r, w := svc.Assess(&risky)
	if w == nil {
		t.Fatalf("expected warning for risk %v", r.HallucinationRisk)
	}
	if w.Threshold != 0.3 || w.Risk != r.HallucinationRisk {
		t.Errorf("warning = %+v", w)
	}
	if !strings.Contains(w.Message, "exceeds") {
		t.Errorf("message = %q", w.Message)
	}
	if got := testutil.ToFloat64(metrics.ConfidenceWarningsTotal); got != before+1 {
		t.Errorf("warnings counter = %v, want %v", got, before+1)
	}

	grounded := newAnswer(pikachu, pikachu)
	if _, w := svc.Assess(&grounded); w != nil {
		t.Errorf("unexpected warning: %+v", w)
	}
}

func TestNew_InvalidThresholdFallsBack(t *testing.T) {
	for _, th := range []float64{0, -1, 1, 2} {
		if got := New(th, nil).Threshold(); got != confidence.DefaultRiskThreshold {
			t.Errorf("New(%v).Threshold() = %v", th, got)
		}
	}
}
