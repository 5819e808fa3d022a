package pokerag

import "github.com/kailas-cloud/pokerag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrProviderUnavailable    = domain.ErrProviderUnavailable
	ErrProviderTimeout        = domain.ErrProviderTimeout
	ErrConfigurationMismatch  = domain.ErrConfigurationMismatch
	ErrInvalidFacetConstraint = domain.ErrInvalidFacetConstraint
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrGenerationFailure      = domain.ErrGenerationFailure
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrIndexNotReady          = domain.ErrIndexNotReady
)
