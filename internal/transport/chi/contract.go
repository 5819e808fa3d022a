package chi

import (
	"context"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/confidence"
	domdoc "github.com/kailas-cloud/pokerag/internal/domain/document"
	"github.com/kailas-cloud/pokerag/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/pokerag/internal/usecase/health"
	indexuc "github.com/kailas-cloud/pokerag/internal/usecase/index"
	"github.com/kailas-cloud/pokerag/internal/usecase/search"
)

// Asker runs the question pipeline.
type Asker interface {
	Ask(ctx context.Context, q ask.Question) (ask.Response, error)
	Retrieve(ctx context.Context, q ask.Question) (search.Retrieval, error)
}

// Scorer grades an arbitrary answer against supplied context.
type Scorer interface {
	Assess(a *answer.Answer) (confidence.Report, *confidence.Warning)
}

// Indexer rebuilds and describes the published index generation.
type Indexer interface {
	Rebuild(ctx context.Context, progress indexuc.ProgressFunc) (indexuc.BuildReport, error)
	Stats() (indexuc.Stats, error)
}

// DocumentReader loads stored documents.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
