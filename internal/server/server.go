// Package server exposes memory inspection and extraction over a JSON HTTP
// API, with extraction events streamed to clients as server-sent events.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cadre-oss/memex/internal/config"
	"github.com/cadre-oss/memex/internal/event"
	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/state"
	"github.com/cadre-oss/memex/internal/telemetry"
)

// Server is the memex HTTP API server.
type Server struct {
	cfg      *config.Config
	svc      memory.Service
	stateMgr *state.Manager
	eventBus *event.Bus
	broker   *Broker
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics

	// extractMu serializes extractions; the state manager tracks one
	// active run at a time.
	extractMu sync.Mutex
}

// New creates a server. A nil bus is replaced by an empty one so that the
// SSE broker always receives extraction events.
func New(cfg *config.Config, svc memory.Service, stateMgr *state.Manager, eventBus *event.Bus, logger *telemetry.Logger, metrics *telemetry.Metrics) *Server {
	if eventBus == nil {
		eventBus = event.NewBus(logger)
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	broker := NewBroker(logger)
	eventBus.Register(broker)

	return &Server{
		cfg:      cfg,
		svc:      svc,
		stateMgr: stateMgr,
		eventBus: eventBus,
		broker:   broker,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting memex API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.setupRoutes())
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	// Memories
	mux.HandleFunc("GET /api/memories", s.handleListMemories)
	mux.HandleFunc("GET /api/memories/{id}", s.handleGetMemory)
	mux.HandleFunc("GET /api/memories/{id}/actors", s.handleListActors)
	mux.HandleFunc("GET /api/memories/{id}/namespaces", s.handleNamespaces)
	mux.HandleFunc("GET /api/memories/{id}/records", s.handleListRecords)
	mux.HandleFunc("GET /api/memories/{id}/search", s.handleSearch)

	// Extraction
	mux.HandleFunc("POST /api/extract", s.handleExtract)

	// Saved runs
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.handleDeleteRun)

	// SSE events
	mux.HandleFunc("GET /api/events", s.handleSSEEvents)
	mux.HandleFunc("GET /api/events/{runID}", s.handleSSEEventsFiltered)

	return mux
}

func (s *Server) extractor() *extract.Extractor {
	return extract.New(s.svc,
		extract.WithLogger(s.logger),
		extract.WithMetrics(s.metrics),
		extract.WithState(s.stateMgr),
		extract.WithEventBus(s.eventBus),
		extract.WithRegion(s.cfg.AWS.Region),
	)
}

// corsMiddleware adds CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
