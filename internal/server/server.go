package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yeahdongcn/sglang/internal/mtml"
	"github.com/yeahdongcn/sglang/internal/ops"
	"github.com/yeahdongcn/sglang/internal/platform"
)

// Server exposes the platform, device, op, and topology inventory as a
// read-only JSON API.
type Server struct {
	addr   string
	server *http.Server

	registry *ops.Registry
	platform func() (platform.Platform, error)
	topology func() (*mtml.Topology, error)
}

// NewServer creates a new HTTP server
func NewServer(addr string) *Server {
	return &Server{
		addr:     addr,
		registry: ops.Default(),
		platform: platform.Active,
		topology: defaultTopology,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handler builds the route table with middleware applied.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/platform", s.handlePlatform)
	mux.HandleFunc("/api/v1/devices", s.handleDevices)
	mux.HandleFunc("/api/v1/ops", s.handleOps)
	mux.HandleFunc("/api/v1/ops/", s.handleOpsWithBackend)
	mux.HandleFunc("/api/v1/topology", s.handleTopology)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handlePlatform handles GET /api/v1/platform
func (s *Server) handlePlatform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p, err := s.platform()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(platform.Describe(p))
}

// handleDevices handles GET /api/v1/devices
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p, err := s.platform()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	devices, err := platform.Devices(p)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if devices == nil {
		devices = []platform.DeviceInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(devices)
}

// handleOps handles GET /api/v1/ops
func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tables := map[string][]string{}
	for _, name := range s.registry.Backends() {
		backend, err := s.registry.Backend(name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		tables[name] = backend.Ops()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tables)
}

// handleOpsWithBackend handles GET /api/v1/ops/:backend
func (s *Server) handleOpsWithBackend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/ops/")
	if name == "" || strings.Contains(name, "/") {
		http.Error(w, "Backend name required", http.StatusBadRequest)
		return
	}

	backend, err := s.registry.Backend(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	response := map[string]interface{}{
		"backend": backend.Name(),
		"ops":     backend.Ops(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleTopology handles GET /api/v1/topology
func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	topology, err := s.topology()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(topology)
}

// writeError sends a JSON error body with the given status.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// defaultTopology snapshots the MtLink fabric through the vendor library.
func defaultTopology() (*mtml.Topology, error) {
	lib, err := mtml.Open("")
	if err != nil {
		return nil, err
	}
	if err := lib.Init(); err != nil {
		return nil, err
	}
	defer lib.Shutdown()

	return mtml.Snapshot(lib, mtml.DefaultMaxDevices)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
