package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/answer"
)

const pikachu = "Pikachu is an Electric type Pokémon with base speed 90"

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseTestSet(t *testing.T) {
	yamlSet := []byte(`
version: 1
name: smoke
mode: engaged
cases:
  - id: pika
    question: What type is Pikachu?
    expected_answer: Electric
    question_type: exact
  - question: Who evolves into Raichu?
    expected_answer: Pikachu
`)
	set, err := ParseTestSet(yamlSet)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if set.Name != "smoke" || set.Mode != "engaged" || len(set.Cases) != 2 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if set.Cases[1].ID != "q002" {
		t.Errorf("generated id = %q, want q002", set.Cases[1].ID)
	}

	jsonSet := []byte(`{"name": "json", "cases": [{"id": "a", "question": "q", "expected_answer": "e"}]}`)
	set, err = ParseTestSet(jsonSet)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if set.Name != "json" || set.Cases[0].ExpectedAnswer != "e" {
		t.Errorf("unexpected set: %+v", set)
	}
}

func TestParseTestSet_Invalid(t *testing.T) {
	tests := map[string]string{
		"no cases":         `name: empty`,
		"missing question": `cases: [{id: a, expected_answer: e}]`,
		"missing expected": `cases: [{id: a, question: q}]`,
		"duplicate id":     `cases: [{id: a, question: q, expected_answer: e}, {id: a, question: r, expected_answer: f}]`,
		"malformed":        `cases: [`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseTestSet([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestContextPrecisionRecall(t *testing.T) {
	docs := []answer.ContextDoc{
		{ID: "a", Text: "Squirtle is a Water type Pokémon"},
		{ID: "b", Text: pikachu},
	}
	precision, recall := ContextPrecisionRecall(docs, "Pikachu is Electric", DefaultRelevanceThreshold)
	if !near(precision, 0.5) {
		t.Errorf("precision = %v, want 0.5", precision)
	}
	if !near(recall, 1) {
		t.Errorf("recall = %v, want 1", recall)
	}
	if got := ContextMRR(docs, "Pikachu is Electric", DefaultRelevanceThreshold); !near(got, 0.5) {
		t.Errorf("mrr = %v, want 0.5", got)
	}

	if p, r := ContextPrecisionRecall(nil, "Electric", DefaultRelevanceThreshold); p != 0 || r != 0 {
		t.Errorf("empty context = %v/%v", p, r)
	}
}

func TestExactMatch(t *testing.T) {
	if ExactMatch("Electric!", "  electric ") != 1 {
		t.Error("normalized strings should match")
	}
	if ExactMatch("Electric type", "Electric") != 0 {
		t.Error("different strings should not match")
	}
}

func TestSummarize(t *testing.T) {
	cases := []CaseResult{
		{ID: "a", QuestionType: "exact", F1: 1, HallucinationRisk: 0.1},
		{ID: "b", QuestionType: "exact", F1: 0.6, HallucinationRisk: 0.5, OverThreshold: true},
		{ID: "c", QuestionType: "semantic", F1: 0.8, HallucinationRisk: 0.2},
		{ID: "d", QuestionType: "semantic", Error: "boom"},
	}
	s := Summarize(cases, 0.3, false)

	if s.Cases != 4 || s.Succeeded != 3 || s.Failed != 1 || s.OverThreshold != 1 {
		t.Errorf("counts = %+v", s)
	}
	f1 := s.Metrics[MetricF1]
	if !near(f1.Mean, 0.8) || !near(f1.Median, 0.8) || f1.Min != 0.6 || f1.Max != 1 {
		t.Errorf("f1 stats = %+v", f1)
	}
	if !near(f1.Std, 0.2) {
		t.Errorf("f1 std = %v, want 0.2", f1.Std)
	}
	if f1.Buckets[BucketExcellent] != 1 || f1.Buckets[BucketGood] != 1 || f1.Buckets[BucketFair] != 1 {
		t.Errorf("buckets = %v", f1.Buckets)
	}
	if len(f1.Top) != 3 || f1.Top[0] != "a" || f1.Top[1] != "c" {
		t.Errorf("top = %v", f1.Top)
	}
	if _, ok := s.Metrics[MetricAnswerRelevancy]; ok {
		t.Error("ragas metrics present without ragas mode")
	}
	if g := s.ByQuestionType["exact"]; g.Count != 2 || !near(g.Means[MetricF1], 0.8) {
		t.Errorf("exact group = %+v", g)
	}
	if g := s.ByQuestionType["semantic"]; g.Count != 1 {
		t.Errorf("semantic group = %+v", g)
	}
}

func TestRun(t *testing.T) {
	asker := &scriptedAsker{answers: map[string]scripted{
		"What type is Pikachu?": {
			text: pikachu, context: []string{pikachu},
			filters: map[string][]string{"type": {"electric"}},
		},
		"Who is Mew?":     {text: "Mew sings on the moon.", context: []string{pikachu}},
		"Broken question": {err: domain.ErrProviderUnavailable},
	}}
	sink := &memorySink{}
	svc := New(asker, Options{Workers: 3, Ragas: true}, nil, sink)

	set := &TestSet{Name: "smoke", Mode: "engaged", Cases: []Case{
		{ID: "1", Question: "What type is Pikachu?", ExpectedAnswer: "Pikachu is Electric"},
		{ID: "2", Question: "Who is Mew?", ExpectedAnswer: "Mew is a mythical Psychic type", QuestionType: "lore"},
		{ID: "3", Question: "Broken question", ExpectedAnswer: "n/a"},
	}}
	var lastDone int
	report, err := svc.Run(context.Background(), set, func(done, total int) {
		if total != 3 {
			t.Errorf("total = %d", total)
		}
		lastDone = done
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if lastDone != 3 {
		t.Errorf("progress reached %d", lastDone)
	}
	if report.RunID == "" || report.Mode != "engaged" {
		t.Errorf("report header = %q / %q", report.RunID, report.Mode)
	}
	for i, want := range []string{"1", "2", "3"} {
		if report.Cases[i].ID != want {
			t.Fatalf("case %d = %s, input order lost", i, report.Cases[i].ID)
		}
	}

	first := report.Cases[0]
	if first.SearchType != SearchExact || first.QuestionType != SearchExact {
		t.Errorf("first case search/question type = %s/%s", first.SearchType, first.QuestionType)
	}
	if first.OverThreshold || !near(first.Faithfulness, 1) {
		t.Errorf("first case = %+v", first)
	}
	if first.AnswerRelevancy == nil || first.ContextMRR == nil || *first.ContextMRR != 1 {
		t.Errorf("ragas extras missing: %+v", first)
	}

	second := report.Cases[1]
	if second.SearchType != SearchSemantic || second.QuestionType != "lore" || !second.OverThreshold {
		t.Errorf("second case = %+v", second)
	}

	if !report.Cases[2].Failed() {
		t.Error("third case should be recorded as failed")
	}
	if report.Summary.Failed != 1 || report.Summary.OverThreshold != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if len(sink.reports) != 1 || sink.reports[0] != report {
		t.Error("report not handed to sink")
	}
	for _, m := range asker.modes {
		if m != "engaged" {
			t.Errorf("case asked with mode %q", m)
		}
	}
}

func TestRun_ModeOverrideAndSinkError(t *testing.T) {
	asker := &scriptedAsker{answers: map[string]scripted{"q": {text: "a", context: []string{"a"}}}}
	sink := &memorySink{err: fmt.Errorf("disk full")}
	svc := New(asker, Options{Mode: "normal"}, nil, sink)

	set := &TestSet{Mode: "engaged", Cases: []Case{{ID: "1", Question: "q", ExpectedAnswer: "a"}}}
	report, err := svc.Run(context.Background(), set, nil)
	if err == nil {
		t.Fatal("expected sink error")
	}
	if report == nil {
		t.Fatal("report should still be returned")
	}
	if asker.modes[0] != "normal" {
		t.Errorf("mode = %q, want override", asker.modes[0])
	}
	if report.Cases[0].ExactMatch != 1 {
		t.Errorf("exact match = %v", report.Cases[0].ExactMatch)
	}
}

func TestRun_Cancelled(t *testing.T) {
	asker := &scriptedAsker{answers: map[string]scripted{"q": {text: "a"}}}
	svc := New(asker, Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, &TestSet{Cases: []Case{{ID: "1", Question: "q", ExpectedAnswer: "a"}}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_UnknownMode(t *testing.T) {
	svc := New(&scriptedAsker{}, Options{Mode: "loud"}, nil)
	_, err := svc.Run(context.Background(), &TestSet{Cases: []Case{{ID: "1", Question: "q", ExpectedAnswer: "a"}}}, nil)
	if err == nil {
		t.Fatal("expected mode error")
	}
}
