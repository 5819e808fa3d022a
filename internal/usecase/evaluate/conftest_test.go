package evaluate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/search/filter"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/domain/search/result"
	"github.com/kailas-cloud/pokerag/internal/usecase/ask"
	confscore "github.com/kailas-cloud/pokerag/internal/usecase/confidence"
	"github.com/kailas-cloud/pokerag/internal/usecase/search"
)

// scriptedAsker answers from a fixed table keyed by question.
type scriptedAsker struct {
	mu      sync.Mutex
	answers map[string]scripted
	modes   []string
	delay   time.Duration
}

type scripted struct {
	text    string
	context []string
	filters map[string][]string
	err     error
}

func (a *scriptedAsker) Ask(_ context.Context, q ask.Question) (ask.Response, error) {
	a.mu.Lock()
	a.modes = append(a.modes, q.Mode)
	s, ok := a.answers[q.Text]
	a.mu.Unlock()
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if !ok {
		return ask.Response{}, errors.New("unexpected question")
	}
	if s.err != nil {
		return ask.Response{}, s.err
	}

	docs := make([]answer.ContextDoc, len(s.context))
	hits := make([]result.Hit, len(s.context))
	for i, c := range s.context {
		id := string(rune('a' + i))
		docs[i] = answer.ContextDoc{ID: id, Title: id, Text: c}
		hits[i] = result.NewHit(id, 1-float64(i)/10)
	}
	f, err := filter.New(s.filters, filter.SourceExplicit)
	if err != nil {
		return ask.Response{}, err
	}
	ans := answer.New(s.text, docs, nil, mode.Mode(q.Mode))
	report := confscore.Score(ans.Text(), ans.ContextText())
	return ask.Response{
		Answer:     ans,
		Retrieval:  search.Retrieval{Result: result.New(hits, len(hits), f, 1)},
		Confidence: report,
	}, nil
}

type memorySink struct {
	reports []*Report
	err     error
}

func (m *memorySink) Write(_ context.Context, r *Report) error {
	m.reports = append(m.reports, r)
	return m.err
}
