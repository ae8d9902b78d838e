// Package chi exposes the search subsystem over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	healthuc "github.com/kestrel-sec/detdex/internal/usecase/health"
	indexuc "github.com/kestrel-sec/detdex/internal/usecase/index"
	searchuc "github.com/kestrel-sec/detdex/internal/usecase/search"
	suggestuc "github.com/kestrel-sec/detdex/internal/usecase/suggest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers for the search API.
type Server struct {
	search        *searchuc.Service
	suggest       *suggestuc.Service
	index         *indexuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	suggest *suggestuc.Service,
	index *indexuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		suggest: suggest,
		index:   index,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrQueryRejected, http.StatusBadRequest, codeQueryRejected),
		sentinelHandler(domain.ErrIndexUnhealthy, http.StatusServiceUnavailable, codeIndexUnhealthy),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, codeUnavailable),
		sentinelHandler(domain.ErrMalformedResponse, http.StatusBadGateway, codeBadGateway),
	}
	return s
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/search", s.handleSearch)
	r.Get("/suggest", s.handleSuggest)
	r.Post("/detections", s.handleIndexDetection)
	r.Post("/index/refresh", s.handleRefresh)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
}

// handleSearch handles POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	q, err := query.New(query.Params{
		Text:       req.QueryText,
		Platforms:  req.Platforms,
		Tags:       req.Tags,
		MinQuality: req.MinQualityScore,
		Page:       req.Page,
		Size:       req.Size,
		SortField:  req.SortField,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(&res))
}

// handleSuggest handles GET /suggest?prefix=...&limit=N.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	suggestions, err := s.suggest.Suggest(r.Context(), prefix, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

// handleIndexDetection handles POST /detections.
func (s *Server) handleIndexDetection(w http.ResponseWriter, r *http.Request) {
	var doc domain.DetectionDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := s.index.IndexDetection(r.Context(), &doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, IndexResponse{ID: id})
}

// handleRefresh handles POST /index/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Refresh(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, check := range report.Checks {
		checks[name] = string(check)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// handleDomainError walks the handler chain; unmatched errors become 500s.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, handle := range s.errorHandlers {
		if handle(w, err) {
			return
		}
	}
	s.logger.Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// sentinelHandler maps a sentinel error to a status and wire code.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
