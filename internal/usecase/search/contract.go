package search

import (
	"github.com/kailas-cloud/pokerag/internal/usecase/index"
)

// GenerationSource resolves the published index generation.
type GenerationSource interface {
	Current() (*index.Generation, error)
}
