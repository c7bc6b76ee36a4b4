package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/fabstate/internal/logging"
	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/loader"
	"github.com/aretw0/fabstate/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AllStates is the stream topic receiving every state update.
const AllStates = "*"

// Server exposes a loader and its scope over HTTP.
// Requests are serialized: the loader and its states are single-threaded.
type Server struct {
	mu      sync.Mutex
	Loader  *loader.Loader
	Scope   ports.Scope
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	last    map[string]map[string]any
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h under /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server for l, whose states are bound on scope.
func NewServer(l *loader.Loader, scope ports.Scope, opts ...Option) *Server {
	s := &Server{
		Loader:  l,
		Scope:   scope,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		last:    make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for l.
func NewHandler(l *loader.Loader, scope ports.Scope, opts ...Option) http.Handler {
	return NewServer(l, scope, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/states", s.ListStates)
	r.Get("/states/{name}", s.GetState)
	r.Post("/states/{name}/dispatch/{action}", s.Dispatch)
	r.Post("/show", s.Show)
	r.Post("/send", s.Send)
	r.Get("/output", s.GetOutput)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StateResponse is the JSON shape of a state snapshot.
type StateResponse struct {
	Name     string         `json:"name"`
	InUse    bool           `json:"in_use"`
	Snapshot map[string]any `json:"snapshot"`
}

// DispatchResponse is returned by the dispatch route.
type DispatchResponse struct {
	State    string         `json:"state"`
	Action   string         `json:"action"`
	Result   any            `json:"result"`
	Snapshot map[string]any `json:"snapshot"`
}

// SendRequest is the body of POST /send. Save defaults to true.
type SendRequest struct {
	Tag  string `json:"tag"`
	Save *bool  `json:"save"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// ListStates handles the GET /states request.
func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	var names []string
	s.locked(func() { names = s.Loader.States() })

	s.writeJSON(w, names)
}

// GetState handles the GET /states/{name} request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var (
		resp StateResponse
		ok   bool
	)
	s.locked(func() { resp, ok = s.snapshot(name) })

	if !ok {
		http.Error(w, fmt.Sprintf("state %q not found", name), http.StatusNotFound)
		return
	}
	s.writeJSON(w, resp)
}

// Dispatch handles the POST /states/{name}/dispatch/{action} request.
// The body, when present, is the JSON action value.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	action := chi.URLParam(r, "action")

	value, err := decodeValue(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Dispatch: Invalid request body", "error", err)
		return
	}

	var (
		found  bool
		result any
		snap   map[string]any
		diffs  []*domain.SnapshotDiff
	)
	s.locked(func() {
		d, ok := s.Loader.Get(name)
		if !ok {
			return
		}
		found = true
		result = resolver.Materialize(d.Dispatch(action, value))
		snap = d.View().Snapshot()
		// Dispatch may touch other states through the scope.
		diffs = s.diffs()
	})
	if !found {
		http.Error(w, fmt.Sprintf("state %q not found", name), http.StatusNotFound)
		return
	}

	s.logger.Debug("Dispatch handled", "state", name, "action", action)
	s.broadcast(diffs)

	s.writeJSON(w, DispatchResponse{State: name, Action: action, Result: result, Snapshot: snap})
}

// Show handles the POST /show request.
func (s *Server) Show(w http.ResponseWriter, r *http.Request) {
	var diffs []*domain.SnapshotDiff
	s.locked(func() {
		s.Loader.Show()
		diffs = s.diffs()
	})

	s.broadcast(diffs)
	w.WriteHeader(http.StatusNoContent)
}

// Send handles the POST /send request.
func (s *Server) Send(w http.ResponseWriter, r *http.Request) {
	var body SendRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("Send: Invalid request body", "error", err)
			return
		}
	}
	save := true
	if body.Save != nil {
		save = *body.Save
	}

	var (
		err    error
		output map[string]any
		diffs  []*domain.SnapshotDiff
	)
	s.locked(func() {
		err = s.Loader.Send(body.Tag, save)
		output = s.output()
		diffs = s.diffs()
	})

	s.broadcast(diffs)
	if err != nil {
		http.Error(w, fmt.Sprintf("Send error: %v", err), http.StatusBadGateway)
		s.logger.Error("Send failed", "tag", body.Tag, "error", err)
		return
	}
	s.writeJSON(w, output)
}

// GetOutput handles the GET /output request.
func (s *Server) GetOutput(w http.ResponseWriter, r *http.Request) {
	var output map[string]any
	s.locked(func() { output = s.output() })

	s.writeJSON(w, output)
}

// SubscribeEvents handles the GET /events request (SSE).
// Each message is a domain.SnapshotDiff. The optional state query parameter restricts the
// stream to one state.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topic := strings.TrimSpace(r.URL.Query().Get("state"))
	if topic == "" {
		topic = AllStates
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// locked runs fn while holding the server lock, releasing it if fn panics.
func (s *Server) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *Server) snapshot(name string) (StateResponse, bool) {
	d, ok := s.Loader.Get(name)
	if !ok {
		return StateResponse{}, false
	}
	return StateResponse{Name: name, InUse: d.InUse(), Snapshot: d.View().Snapshot()}, true
}

// diffs compares every registered state with the snapshot last broadcast.
// Stopped states are forgotten.
func (s *Server) diffs() []*domain.SnapshotDiff {
	var out []*domain.SnapshotDiff
	seen := make(map[string]bool)
	for _, name := range s.Loader.States() {
		d, ok := s.Loader.Get(name)
		if !ok {
			continue
		}
		seen[name] = true
		snap := d.View().Snapshot()
		if diff := domain.Diff(name, s.last[name], snap); diff != nil {
			out = append(out, diff)
		}
		s.last[name] = snap
	}
	for name := range s.last {
		if !seen[name] {
			delete(s.last, name)
		}
	}
	return out
}

func (s *Server) output() map[string]any {
	raw, ok := s.Scope.Get(s.Loader.Config().OutputProp)
	if !ok {
		return map[string]any{}
	}
	if m, ok := resolver.Materialize(raw).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func (s *Server) broadcast(diffs []*domain.SnapshotDiff) {
	for _, diff := range diffs {
		data, err := json.Marshal(diff)
		if err != nil {
			s.logger.Warn("Broadcast: encode failed", "state", diff.State, "error", err)
			continue
		}
		s.logger.Debug("Broadcasting diff", "state", diff.State, "payload_size", len(data))
		s.Streams.Broadcast(diff.State, string(data))
		s.Streams.Broadcast(AllStates, string(data))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

func decodeValue(body io.Reader) (any, error) {
	if body == nil {
		return nil, nil
	}
	var value any
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}
