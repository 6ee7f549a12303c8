// Package http exposes a compiled graph over HTTP: inspection, runs and metrics.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIVersion is reported by GET /info.
const APIVersion = "0.1.0"

// DefaultHistory is how many run reports are kept for GET /runs/{id}.
const DefaultHistory = 64

// RunResponse is the body returned for a run.
type RunResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Ticks      int64          `json:"ticks"`
	Events     []domain.Event `json:"events,omitempty"`
	Blackboard map[string]any `json:"blackboard,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Server serves a ports.Runner.
type Server struct {
	Runner  ports.Runner
	Version string

	gatherer prometheus.Gatherer
	logger   *slog.Logger
	history  int

	mu    sync.Mutex
	runs  map[string]RunResponse
	order []string
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves the metrics of g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the application version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// WithHistory sets how many run reports are kept.
func WithHistory(n int) Option {
	return func(s *Server) {
		s.history = n
	}
}

// NewServer creates a server for runner.
func NewServer(runner ports.Runner, opts ...Option) *Server {
	s := &Server{
		Runner:   runner,
		Version:  "dev",
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
		history:  DefaultHistory,
		runs:     make(map[string]RunResponse),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the runner.
func NewHandler(runner ports.Runner, opts ...Option) http.Handler {
	return NewServer(runner, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/graph/mermaid", s.GetMermaid)
	r.Post("/runs", s.PostRun)
	r.Get("/runs/{id}", s.GetRun)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "arbor-http",
		"version":     s.Version,
		"api_version": APIVersion,
	})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Runner.Graph())
}

// GetMermaid handles GET /graph/mermaid. With ?run=<id> the states of that
// run are overlaid.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.Overlay
	if id := r.URL.Query().Get("run"); id != "" {
		res, ok := s.lookup(id)
		if !ok {
			http.Error(w, fmt.Sprintf("run %s not found", id), http.StatusNotFound)
			return
		}
		overlay = graph.OverlayFromEvents(res.Events)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.Runner.Graph(), overlay))
}

// PostRun handles POST /runs. The body is optional.
func (s *Server) PostRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	res, err := s.Runner.Run(r.Context(), req)
	if res == nil {
		s.logger.Error("run failed", "err", err)
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		return
	}

	resp := RunResponse{
		ID:         res.ID,
		Status:     res.Outcome.Status.String(),
		Reason:     res.Outcome.Reason,
		Ticks:      res.Ticks,
		Events:     res.Events,
		Blackboard: res.Blackboard,
	}
	if err != nil {
		resp.Status = "stopped"
		resp.Error = err.Error()
	}
	s.remember(resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, ok := s.lookup(id)
	if !ok {
		http.Error(w, fmt.Sprintf("run %s not found", id), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func decodeRunRequest(body io.Reader) (ports.RunRequest, error) {
	var req ports.RunRequest
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &req,
	})
	if err != nil {
		return req, err
	}
	if err := dec.Decode(raw); err != nil {
		return req, err
	}
	if req.TickLimit < 0 {
		return req, errors.New("tick_limit must not be negative")
	}
	return req, nil
}

func (s *Server) remember(res RunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history <= 0 {
		return
	}
	s.runs[res.ID] = res
	s.order = append(s.order, res.ID)
	for len(s.order) > s.history {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Server) lookup(id string) (RunResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.runs[id]
	return res, ok
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}
