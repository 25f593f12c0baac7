// ABOUTME: Server orchestrator that assembles the tool registry, transports,
// ABOUTME: and health endpoints, and manages the HTTP lifecycle.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/tufesa-labs/tufesa-mcp/internal/builtins"
	"github.com/tufesa-labs/tufesa-mcp/internal/cache"
	"github.com/tufesa-labs/tufesa-mcp/internal/config"
	"github.com/tufesa-labs/tufesa-mcp/internal/mcp"
	"github.com/tufesa-labs/tufesa-mcp/internal/store"
	"github.com/tufesa-labs/tufesa-mcp/internal/tools"
	"github.com/tufesa-labs/tufesa-mcp/internal/tracking"
)

// Server wires the pieces together: tracking client, tool registry, MCP
// transports, and the health surface, all behind one HTTP listener.
type Server struct {
	config     *config.Config
	registry   *tools.Registry
	mcpServer  *mcp.Server
	httpServer *http.Server
	logger     *slog.Logger

	// journal is nil when no database path is configured
	journal *store.Journal

	// resultCache is nil when caching is disabled
	resultCache *cache.Cache
}

// initJournal opens the lookup journal when a database path is configured.
// TUFESA_DB_PATH overrides the config value.
func initJournal(cfg *config.Config) (*store.Journal, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("TUFESA_DB_PATH"); envPath != "" {
		dbPath = envPath
	}
	if dbPath == "" {
		return nil, nil
	}
	j, err := store.NewJournal(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing journal: %w", err)
	}
	return j, nil
}

// New creates a new Server instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	journal, err := initJournal(cfg)
	if err != nil {
		return nil, err
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled {
		resultCache = cache.New(cfg.Cache.TTL, cfg.Cache.MaxSize)
	}

	client := tracking.NewClient(tracking.ClientConfig{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: cfg.Upstream.Timeout,
		Logger:  logger.With("component", "tracking-client"),
	})

	registry := tools.NewRegistry(logger.With("component", "registry"))
	if err := registry.RegisterAll(builtins.Basic()); err != nil {
		return nil, fmt.Errorf("registering builtin tools: %w", err)
	}

	deps := tracking.ToolDeps{
		Client: client,
		Logger: logger.With("component", "tracking"),
	}
	// Assign optional collaborators only when present so the tool sees a
	// nil interface, not a typed nil.
	if resultCache != nil {
		deps.Cache = resultCache
	}
	if journal != nil {
		deps.Journal = journal
	}
	if err := registry.Register(tracking.NewToolDefinition(deps)); err != nil {
		return nil, fmt.Errorf("registering tracking tool: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Registry: registry,
		Logger:   logger.With("component", "mcp"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	s := &Server{
		config:      cfg,
		registry:    registry,
		mcpServer:   mcpServer,
		logger:      logger.With("component", "server"),
		journal:     journal,
		resultCache: resultCache,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/stats", s.handleStats)
	mcpServer.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler exposes the assembled mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the server and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))

	if s.resultCache != nil {
		s.resultCache.Close()
	}
	if s.journal != nil {
		errs = appendCloseError(errs, "journal close", s.journal.Close())
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// statsResponse is the JSON shape of /health/stats.
type statsResponse struct {
	Sessions int          `json:"sessions"`
	Lookups  *store.Stats `json:"lookups,omitempty"`
}

// handleHealth returns 200 ok if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleStats reports live session count and, when the journal is enabled,
// lookup counters by outcome.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Sessions: s.mcpServer.Sessions().Len(),
	}

	if s.journal != nil {
		stats, err := s.journal.Stats(r.Context())
		if err != nil {
			s.logger.Error("failed to read journal stats", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		resp.Lookups = stats
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode stats response", "error", err)
	}
}
