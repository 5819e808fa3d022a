package synthesize

import (
	"context"

	"github.com/kailas-cloud/pokerag/internal/domain"
)

// Generator is the text generation boundary the synthesizer delegates to.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
