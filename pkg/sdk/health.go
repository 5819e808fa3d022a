package pokerag

import (
	"context"

	healthuc "github.com/kailas-cloud/pokerag/internal/usecase/health"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
	// Generation is the published index generation, 0 before the first Rebuild.
	Generation uint64
}

// Health checks the store, the providers and the index.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:     string(report.Status),
		Checks:     checks,
		Generation: report.Generation,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
