// Package api exposes the memory service over HTTP. Handlers are thin
// JSON adapters; identity is a pre-verified claim set resolved through the
// session registry, never a token (token auth lives in front of this
// service).
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/CrimsonX77/RedVerse/internal/ledger"
	"github.com/CrimsonX77/RedVerse/internal/query"
	"github.com/CrimsonX77/RedVerse/internal/session"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Server holds the HTTP handler set.
type Server struct {
	engine   *query.Engine
	resolver *session.Resolver
	registry *session.Registry
	log      *slog.Logger
}

// NewServer wires the HTTP surface over the query engine and registry.
func NewServer(engine *query.Engine, resolver *session.Resolver, registry *session.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{engine: engine, resolver: resolver, registry: registry, log: log.With("component", "api")}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/memory/store", s.handleStore)
	mux.HandleFunc("POST /api/memory/load", s.handleLoad)
	mux.HandleFunc("POST /api/memory/conversation_history", s.handleConversationHistory)
	mux.HandleFunc("POST /api/memory/cross_source_summary", s.handleCrossSourceSummary)
	mux.HandleFunc("POST /api/memory/emotions", s.handleEmotions)
	mux.HandleFunc("POST /api/memory/stats", s.handleStats)
	mux.HandleFunc("POST /api/member/validate", s.handleValidateMember)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "Aurora Memory API",
		"version": Version,
	})
}

// errorBody is the uniform error payload.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps the service error taxonomy to HTTP statuses: storage
// failures are retryable 503s, bad thread IDs are 400s, unknown identities
// 404s, capability refusals 403s. Everything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string
	switch {
	case ledger.IsStorageUnavailable(err):
		status, code = http.StatusServiceUnavailable, string(ledger.ErrCodeStorageUnavailable)
	case ledger.IsInvalidThread(err):
		status, code = http.StatusBadRequest, string(ledger.ErrCodeInvalidThread)
	case session.IsUnresolvedIdentity(err):
		status, code = http.StatusNotFound, string(session.ErrCodeUnresolvedIdentity)
	case session.IsForbidden(err):
		status, code = http.StatusForbidden, string(session.ErrCodeForbidden)
	default:
		status = http.StatusInternalServerError
	}
	s.log.Error("request failed", "path", r.URL.Path, "status", status, "err", err)
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decode parses a JSON request body into dst, rejecting unknown fields.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
