// Package httpapi exposes the agent as a JSON API over HTTP: one endpoint
// per conversation operation plus administrative thread management.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parley-ai/parley"
	"github.com/parley-ai/parley/internal/logging"
)

// Server routes HTTP requests to an agent.
type Server struct {
	agent  *parley.Agent
	logger *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the HTTP handler for an agent.
func NewHandler(agent *parley.Agent, opts ...Option) http.Handler {
	s := &Server{
		agent:  agent,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/graph", s.handleGraph)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/run", s.handleRun)
		r.Post("/stream", s.handleStream)

		r.Route("/threads", func(r chi.Router) {
			r.Get("/", s.handleListThreads)
			r.Post("/purge", s.handlePurge)
			r.Get("/search", s.handleSearch)
			r.Get("/{threadID}/entries", s.handleEntries)
			r.Get("/{threadID}/state", s.handleState)
			r.Delete("/{threadID}", s.handleDeleteThread)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// turnRequest is the body for /v1/run and /v1/stream.
type turnRequest struct {
	Message   string            `json:"message"`
	ThreadID  string            `json:"thread_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (req turnRequest) options() []parley.TurnOption {
	opts := []parley.TurnOption{
		parley.WithThread(req.ThreadID),
		parley.WithUser(req.UserID),
	}
	if req.SessionID != "" {
		opts = append(opts, parley.WithSession(req.SessionID))
	}
	if len(req.Metadata) > 0 {
		opts = append(opts, parley.WithMetadata(req.Metadata))
	}
	return opts
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	result := s.agent.Run(r.Context(), req.Message, req.options()...)
	s.writeJSON(w, http.StatusOK, result)
}

// handleStream answers with Server-Sent Events. Each engine event becomes one
// SSE message whose event name is the event type; a final "done" message
// closes the stream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := s.agent.Stream(r.Context(), req.Message, req.options()...)
	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("stream event encode failed", "error", err)
			continue
		}
		if _, err := w.Write([]byte("event: " + string(ev.Type) + "\ndata: " + string(payload) + "\n\n")); err != nil {
			// Client went away; keep draining so the turn can finish.
			s.logger.Debug("stream client disconnected", "error", err)
			for range events {
			}
			return
		}
		flusher.Flush()
	}

	w.Write([]byte("event: done\ndata: {}\n\n"))
	flusher.Flush()
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	limit := queryInt(r, "limit", 0)

	threads, err := s.agent.Log().Threads(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	limit := queryInt(r, "limit", 0)

	entries, err := s.agent.Log().Entries(r.Context(), threadID, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	state, err := s.agent.Checkpoints().Load(r.Context(), threadID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	if err := s.agent.DeleteThread(r.Context(), threadID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OlderThanHours int `json:"older_than_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OlderThanHours <= 0 {
		http.Error(w, "older_than_hours must be positive", http.StatusBadRequest)
		return
	}

	cutoff := time.Now().Add(-time.Duration(req.OlderThanHours) * time.Hour)
	purged, err := s.agent.Log().Purge(r.Context(), cutoff)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"purged": purged})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", 50)

	entries, err := s.agent.Log().Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.agent.Graph().Mermaid()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
