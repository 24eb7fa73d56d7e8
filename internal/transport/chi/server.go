package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/outcome"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ragsearch/internal/logger"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
)

const maxRequestBytes = 64 << 10

// Search routes. The second path keeps clients of the edge-function URL working.
const (
	SearchPath     = "/search"
	EdgeSearchPath = "/functions/v1/rag-search"
)

// SearchService answers one query.
type SearchService interface {
	Search(ctx context.Context, query string) outcome.Outcome
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search API over a chi router.
type Server struct {
	search        SearchService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		invalidQueryHandler,
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusInternalServerError),
	}
	return s
}

// Routes registers all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post(SearchPath, s.Search)
	r.Post(EdgeSearchPath, s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(notFound)
}

type searchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the success envelope of a search.
type SearchResponse struct {
	Success bool         `json:"success"`
	Results []resultItem `json:"results"`
	Method  string       `json:"method"`
}

type resultItem struct {
	ID             string   `json:"id"`
	Content        string   `json:"content"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Similarity     *float64 `json:"similarity,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Search handles POST /search and POST /functions/v1/rag-search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	out := s.search.Search(ctx, req.Query)
	if !out.Success() {
		s.handleDomainError(w, r, out.Err())
		return
	}
	setEmbeddingHeaders(w, usage)

	writeJSON(w, http.StatusOK, NewSearchResponse(out))
}

// NewSearchResponse converts a successful outcome to its wire shape.
func NewSearchResponse(out outcome.Outcome) SearchResponse {
	results := out.Results()
	items := make([]resultItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}
	return SearchResponse{
		Success: true,
		Results: items,
		Method:  string(out.Method()),
	}
}

// HealthCheck handles GET /health.
// Degraded still answers 200: queries are served through text search.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func resultToItem(r *result.Result) resultItem {
	tags := r.Tags()
	if tags == nil {
		tags = []string{}
	}
	item := resultItem{
		ID:       r.ID(),
		Content:  r.Content(),
		Category: r.Category(),
		Tags:     tags,
	}
	if sim, ok := r.Similarity(); ok {
		item.Similarity = &sim
	}
	if rel, ok := r.RelevanceScore(); ok {
		item.RelevanceScore = &rel
	}
	return item
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// invalidQueryHandler surfaces the validation message; it never carries upstream details.
func invalidQueryHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	writeError(w, http.StatusBadRequest, err.Error())
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and responds with the sentinel's own message.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("search failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
