package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable signals an unreachable embedding or generation backend. Retryable.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderTimeout signals that a provider call exceeded its per-call deadline. Retryable.
	ErrProviderTimeout = errors.New("provider timeout")
	// ErrConfigurationMismatch signals a request that can never succeed as configured.
	ErrConfigurationMismatch = errors.New("configuration mismatch")
	// ErrInvalidFacetConstraint signals a malformed facet filter.
	ErrInvalidFacetConstraint = fmt.Errorf("invalid facet constraint: %w", ErrConfigurationMismatch)
	// ErrInvalidRequest signals a malformed question: empty, too long or with an unknown mode.
	ErrInvalidRequest = fmt.Errorf("invalid request: %w", ErrConfigurationMismatch)
	// ErrGenerationFailure signals an opaque upstream generation failure.
	ErrGenerationFailure = errors.New("generation failure")
	// ErrInvalidVector signals a vector containing NaN or Inf components.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDuplicateDocument signals a document id seen twice in one build.
	ErrDuplicateDocument = errors.New("duplicate document")
	// ErrIndexNotReady signals that no index generation has been published yet.
	ErrIndexNotReady = errors.New("index not ready")
)

// DimensionMismatchError wraps ErrConfigurationMismatch with the offending dimensions.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d dimensions, got %d", ErrConfigurationMismatch.Error(), e.Expected, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrConfigurationMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(expected, got int) error {
	return &DimensionMismatchError{Expected: expected, Got: got}
}

// SpaceMismatchError wraps ErrConfigurationMismatch when query and corpus embedding spaces differ.
type SpaceMismatchError struct {
	Index EmbeddingSpace
	Query EmbeddingSpace
}

func (e *SpaceMismatchError) Error() string {
	return fmt.Sprintf("%s: index built with %s, query embedded with %s",
		ErrConfigurationMismatch.Error(), e.Index, e.Query)
}

func (e *SpaceMismatchError) Unwrap() error { return ErrConfigurationMismatch }

// NewSpaceMismatch creates an embedding space mismatch error.
func NewSpaceMismatch(index, query EmbeddingSpace) error {
	return &SpaceMismatchError{Index: index, Query: query}
}

// IsRetryable reports whether err is a transient provider failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrProviderTimeout)
}
