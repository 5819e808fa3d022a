// Package chi is the HTTP surface: a hand-routed chi router over the ask,
// index and document services.
package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/pokerag/internal/logger"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	healthuc "github.com/kailas-cloud/pokerag/internal/usecase/health"
	"github.com/kailas-cloud/pokerag/internal/usecase/search"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Deps are the services behind the HTTP surface.
type Deps struct {
	Asker     Asker
	Scorer    Scorer
	Indexer   Indexer
	Documents DocumentReader
	Health    HealthChecker
}

// Server serves the pokerag HTTP API.
type Server struct {
	deps          Deps
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		deps:          deps,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Handler builds the router with the full middleware stack.
// An empty apiKeys list disables authentication.
func (s *Server) Handler(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/retrieve", s.Retrieve)
		r.Post("/score", s.Score)
		r.Get("/index", s.IndexStats)
		r.Post("/index/rebuild", s.RebuildIndex)
		r.Get("/documents/{id}", s.GetDocument)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.deps.Asker.Ask(r.Context(), req.toQuestion())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	annotateRetrieval(r, &resp.Retrieval)
	logpkg.Annotate(r.Context(),
		zap.Float64("risk", resp.Confidence.HallucinationRisk),
		zap.Bool("warning", resp.Warning != nil),
	)
	if resp.Retrieval.Usage > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(resp.Retrieval.Usage))
	}
	writeJSON(w, http.StatusOK, askToResponse(&resp))
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ret, err := s.deps.Asker.Retrieve(r.Context(), req.toQuestion())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	annotateRetrieval(r, &ret)
	if ret.Usage > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(ret.Usage))
	}
	writeJSON(w, http.StatusOK, retrievalToResponse(&ret))
}

// Score handles POST /v1/score: grades a caller-supplied answer against the
// caller-supplied context. An empty answer scores as maximal risk.
func (s *Server) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	docs := make([]answer.ContextDoc, len(req.Contexts))
	for i, c := range req.Contexts {
		docs[i] = answer.ContextDoc{ID: "context-" + strconv.Itoa(i+1), Text: c}
	}
	a := answer.New(req.Answer, docs, nil, mode.Normal)

	report, warning := s.deps.Scorer.Assess(&a)
	writeJSON(w, http.StatusOK, ScoreResponse{Confidence: report, Warning: warning})
}

// IndexStats handles GET /v1/index.
func (s *Server) IndexStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Indexer.Stats()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(&st))
}

// RebuildIndex handles POST /v1/index/rebuild. The rebuild runs in the
// request; the previous generation keeps serving until it is published.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Indexer.Rebuild(r.Context(), nil)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logpkg.Annotate(r.Context(),
		zap.Uint64("generation", report.Generation),
		zap.Int("embedded", report.Embedded),
	)
	writeJSON(w, http.StatusOK, rebuildToResponse(&report))
}

// GetDocument handles GET /v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func annotateRetrieval(r *http.Request, ret *search.Retrieval) {
	logpkg.Annotate(r.Context(),
		zap.String("outcome", string(ret.Result.Outcome())),
		zap.Uint64("generation", ret.Result.Generation()),
		zap.Int("hits", len(ret.Documents)),
	)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
