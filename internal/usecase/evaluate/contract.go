package evaluate

import (
	"context"

	"github.com/kailas-cloud/pokerag/internal/usecase/ask"
)

// Asker runs the question pipeline for one case.
type Asker interface {
	Ask(ctx context.Context, q ask.Question) (ask.Response, error)
}

// Sink persists a finished report.
type Sink interface {
	Write(ctx context.Context, r *Report) error
}
