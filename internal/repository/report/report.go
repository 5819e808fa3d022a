// Package report persists evaluation runs to files.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/pokerag/internal/usecase/evaluate"
)

// JSONSink writes the full report to <dir>/eval_<run_id>.json.
type JSONSink struct {
	Dir string
}

// Path returns the report file for r.
func (s JSONSink) Path(r *evaluate.Report) string {
	return filepath.Join(s.Dir, "eval_"+r.RunID+".json")
}

// Write implements evaluate.Sink.
func (s JSONSink) Write(_ context.Context, r *evaluate.Report) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(s.Path(r), data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// detailHeader is the per-case CSV layout.
var detailHeader = []string{
	"id", "question_type", "search_type", "question", "expected_answer", "answer", "outcome", "context_ids",
	"f1", "exact_match", "context_precision", "context_recall", "faithfulness", "context_overlap",
	"hallucination_risk", "overall_confidence", "answer_relevancy", "context_mrr",
	"over_threshold", "latency_seconds", "error",
}

// CSVSink writes one row per case to <dir>/eval_<run_id>.csv.
type CSVSink struct {
	Dir string
}

// Path returns the detail file for r.
func (s CSVSink) Path(r *evaluate.Report) string {
	return filepath.Join(s.Dir, "eval_"+r.RunID+".csv")
}

// Write implements evaluate.Sink.
func (s CSVSink) Write(_ context.Context, r *evaluate.Report) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(s.Path(r))
	if err != nil {
		return fmt.Errorf("create detail file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(detailHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range r.Cases {
		c := &r.Cases[i]
		row := []string{
			c.ID, c.QuestionType, c.SearchType, c.Question, c.ExpectedAnswer, c.Answer, c.Outcome,
			strings.Join(c.ContextIDs, ";"),
			num(c.F1), num(c.ExactMatch), num(c.ContextPrecision), num(c.ContextRecall),
			num(c.Faithfulness), num(c.ContextOverlap), num(c.HallucinationRisk), num(c.OverallConfidence),
			optional(c.AnswerRelevancy), optional(c.ContextMRR),
			strconv.FormatBool(c.OverThreshold), num(c.Latency), c.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write case %s: %w", c.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush detail file: %w", err)
	}
	return f.Close()
}

// hallucinationHeader is the hallucination log layout.
var hallucinationHeader = []string{
	"id", "timestamp", "question", "answer", "expected", "risk", "faithfulness", "search_type",
}

// HallucinationLog appends every case over the risk threshold to a CSV file
// shared across runs. The header is written when the file is new.
type HallucinationLog struct {
	path string
	mu   sync.Mutex
}

// NewHallucinationLog creates a log appending to path.
func NewHallucinationLog(path string) *HallucinationLog {
	return &HallucinationLog{path: path}
}

// Path returns the log file path.
func (l *HallucinationLog) Path() string { return l.path }

// Write implements evaluate.Sink.
func (l *HallucinationLog) Write(_ context.Context, r *evaluate.Report) error {
	var rows [][]string
	for i := range r.Cases {
		c := &r.Cases[i]
		if c.Failed() || !c.OverThreshold {
			continue
		}
		rows = append(rows, []string{
			uuid.NewString(), c.Timestamp.UTC().Format(time.RFC3339), c.Question, c.Answer, c.ExpectedAnswer,
			num(c.HallucinationRisk), num(c.Faithfulness), c.SearchType,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open hallucination log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat hallucination log: %w", err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		rows = append([][]string{hallucinationHeader}, rows...)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("append hallucination log: %w", err)
	}
	return f.Close()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
