package ask

import (
	"context"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/domain/search/request"
	"github.com/kailas-cloud/pokerag/internal/usecase/search"
)

// Retriever finds the ranked context for a request.
type Retriever interface {
	Retrieve(ctx context.Context, req *request.Request) (search.Retrieval, error)
}

// Synthesizer generates an answer from ranked context.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, m mode.Mode, docs []answer.ContextDoc) (answer.Answer, error)
}

// Scorer grades an answer against its own context.
type Scorer interface {
	Assess(a *answer.Answer) (confidence.Report, *confidence.Warning)
}
