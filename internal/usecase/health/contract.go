package health

import (
	"context"

	"github.com/kailas-cloud/pokerag/internal/usecase/index"
)

// Pinger checks storage availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks embedding or generation provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// GenerationSource exposes the published index generation.
type GenerationSource interface {
	Current() (*index.Generation, error)
}
