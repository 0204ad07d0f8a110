package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a health check function to Pinger
type PingerFunc func(ctx context.Context) error

// Ping calls f
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Services are the driving ports the API exposes. Auth may be nil, in which
// case every route is public.
type Services struct {
	Auth      driving.AuthService
	Ingest    driving.IngestService
	Retrieval driving.RetrievalService
	Answer    driving.AnswerService
	Documents driving.DocumentService
	Queries   driving.QueryLogService
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	maxUpload  int64
	logger     *slog.Logger

	services Services
	checks   map[string]Pinger // readiness checks by dependency name
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
	// MaxUploadBytes bounds one request body (multipart upload or text ingestion)
	MaxUploadBytes int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: 50 << 20,
	}
}

// NewServer creates a new HTTP server. checks are pinged by /ready.
func NewServer(cfg Config, services Services, checks map[string]Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:    http.NewServeMux(),
		version:   cfg.Version,
		maxUpload: cfg.MaxUploadBytes,
		logger:    logger.With("component", "http"),
		services:  services,
		checks:    checks,
	}
	s.setupRoutes()

	var handler http.Handler = s.router
	if len(cfg.AllowedOrigins) > 0 {
		handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	}
	handler = NewLoggingMiddleware(s.logger).Handler(handler)
	handler = NewRecoveryMiddleware(s.logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second, // generation can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.services.Auth)
	read := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireScope(domain.ScopeRead)(h))
	}
	write := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireScope(domain.ScopeWrite)(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireScope(domain.ScopeAdmin)(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth (public)
	s.router.HandleFunc("POST /api/v1/auth/token", s.handleIssueToken)

	// Documents
	s.router.Handle("POST /api/v1/documents", write(s.handleUploadDocuments))
	s.router.Handle("POST /api/v1/documents/text", write(s.handleIngestText))
	s.router.Handle("GET /api/v1/documents", read(s.handleListDocuments))
	s.router.Handle("GET /api/v1/documents/{id}", read(s.handleGetDocument))
	s.router.Handle("GET /api/v1/documents/{id}/passages", read(s.handleGetPassages))
	s.router.Handle("DELETE /api/v1/documents/{id}", write(s.handleDeleteDocument))
	s.router.Handle("GET /api/v1/stats", read(s.handleStats))

	// Retrieval and answers
	s.router.Handle("POST /api/v1/retrieve", read(s.handleRetrieve))
	s.router.Handle("POST /api/v1/query", read(s.handleQuery))

	// Query log
	s.router.Handle("GET /api/v1/queries", read(s.handleQueryHistory))
	s.router.Handle("GET /api/v1/analytics/popular", read(s.handlePopularQueries))

	// Admin
	s.router.Handle("POST /api/v1/admin/repair", admin(s.handleRepair))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
