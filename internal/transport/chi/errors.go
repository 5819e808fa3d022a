package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
	logpkg "github.com/kailas-cloud/pokerag/internal/logger"
)

// ErrorCode is the machine-readable error code returned to clients.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeInvalidRequest      ErrorCode = "invalid_request"
	CodeInvalidFilter       ErrorCode = "invalid_filter"
	CodeConfigMismatch      ErrorCode = "configuration_mismatch"
	CodeDocumentNotFound    ErrorCode = "document_not_found"
	CodeIndexNotReady       ErrorCode = "index_not_ready"
	CodeProviderUnavailable ErrorCode = "provider_unavailable"
	CodeProviderTimeout     ErrorCode = "provider_timeout"
	CodeGenerationFailure   ErrorCode = "generation_failure"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// defaultErrorHandlers is ordered most specific first: ErrInvalidRequest and
// ErrInvalidFacetConstraint wrap ErrConfigurationMismatch.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest),
		sentinelHandler(domain.ErrInvalidFacetConstraint, http.StatusBadRequest, CodeInvalidFilter),
		sentinelHandler(domain.ErrConfigurationMismatch, http.StatusBadRequest, CodeConfigMismatch),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, CodeIndexNotReady),
		sentinelHandler(domain.ErrProviderTimeout, http.StatusGatewayTimeout, CodeProviderTimeout),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusServiceUnavailable, CodeProviderUnavailable),
		sentinelHandler(domain.ErrGenerationFailure, http.StatusBadGateway, CodeGenerationFailure),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors carry their full text since it only describes the input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrInvalidFacetConstraint) {
		return err.Error()
	}
	var dme *domain.DimensionMismatchError
	var sme *domain.SpaceMismatchError
	if errors.As(err, &dme) || errors.As(err, &sme) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrConfigurationMismatch,
		domain.ErrDocumentNotFound,
		domain.ErrIndexNotReady,
		domain.ErrProviderTimeout,
		domain.ErrProviderUnavailable,
		domain.ErrGenerationFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logpkg.Annotate(r.Context(), zap.NamedError("domain_error", err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
