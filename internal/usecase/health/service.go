package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentStore      = "store"
	ComponentCache      = "cache"
	ComponentEmbedding  = "embedding"
	ComponentGeneration = "generation"
	ComponentIndex      = "index"
)

// Report aggregates health check results.
type Report struct {
	Status     Status                 `json:"status"`
	Checks     map[string]CheckResult `json:"checks"`
	Generation uint64                 `json:"generation,omitempty"`
}

// Deps lists the components to check. Only Store is required.
type Deps struct {
	Store      Pinger
	Cache      Pinger
	Embedding  ProviderChecker
	Generation ProviderChecker
	Index      GenerationSource
}

// Service coordinates health checks.
type Service struct {
	deps Deps
}

// New creates a Service.
func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	r := Report{Status: Healthy, Checks: checks}

	checks[ComponentStore] = result(s.deps.Store.Ping(ctx))
	if s.deps.Cache != nil {
		checks[ComponentCache] = result(s.deps.Cache.Ping(ctx))
	}
	if s.deps.Embedding != nil {
		checks[ComponentEmbedding] = result(s.deps.Embedding.HealthCheck(ctx))
	}
	if s.deps.Generation != nil {
		checks[ComponentGeneration] = result(s.deps.Generation.HealthCheck(ctx))
	}
	if s.deps.Index != nil {
		gen, err := s.deps.Index.Current()
		checks[ComponentIndex] = result(err)
		if err == nil {
			r.Generation = gen.ID
		}
	}

	for _, v := range checks {
		if v == CheckError {
			r.Status = Degraded
			break
		}
	}
	if checks[ComponentStore] == CheckError {
		r.Status = Unhealthy
	}
	return r
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
