// Package httpserver provides the HTTP REST API for the paper retrieval service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-retrieval-service/internal/cache"
	"github.com/helixir/paper-retrieval-service/internal/database"
	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/hunter"
	"github.com/helixir/paper-retrieval-service/internal/pdf"
)

// Hunter is the retrieval coordinator surface the HTTP layer depends on.
type Hunter interface {
	Hunt(ctx context.Context, raw string) *domain.PaperResult
	BatchHunt(ctx context.Context, raws []string, opts hunter.BatchOptions) []*domain.PaperResult
	Stats() *hunter.Stats
}

var _ Hunter = (*hunter.Hunter)(nil)

// PDFDownloader fetches PDFs for the download endpoint.
type PDFDownloader interface {
	Download(ctx context.Context, url string) (*pdf.DownloadResult, error)
}

var _ PDFDownloader = (*pdf.Downloader)(nil)

// Server is the HTTP REST API server.
type Server struct {
	router           chi.Router
	httpServer       *http.Server
	hunter           Hunter
	cache            *cache.Cache
	downloader       PDFDownloader
	db               *database.DB // nil when the warm store is disabled
	batchConcurrency int64
	logger           zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// BatchConcurrency is the default bound on parallel hunts in a batch
	// when the request does not choose one.
	BatchConcurrency int64
}

// NewServer creates a new HTTP server with all dependencies. db may be nil
// when the service runs without the persistent warm store; health reporting
// then covers only the in-process components.
func NewServer(
	cfg Config,
	h Hunter,
	resultCache *cache.Cache,
	downloader PDFDownloader,
	db *database.DB,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		hunter:           h,
		cache:            resultCache,
		downloader:       downloader,
		db:               db,
		batchConcurrency: cfg.BatchConcurrency,
		logger:           logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/papers/hunt", s.huntPaper)
		r.Post("/papers/batch", s.batchHunt)
		r.Post("/papers/batch/stream", s.streamBatchHunt)
		r.Post("/papers/download", s.downloadPDF)

		r.Get("/stats", s.getStats)
		r.Post("/stats/reset", s.resetStats)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "warm_store": "disabled"})
		return
	}

	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "warm_store": health.Status})
		return
	}
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":     "unhealthy",
		"warm_store": health.Status,
		"error":      health.Error,
	})
}

// readinessHandler returns readiness status. The source chain needs no
// warm-up, so readiness mirrors liveness plus warm store connectivity.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "warm_store": "disabled"})
		return
	}

	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":     "not_ready",
			"warm_store": health.Status,
			"error":      health.Error,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ready",
		"warm_store": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; the client sees a truncated body.
		s.logger.Warn().Err(err).Int("status", statusCode).Msg("failed to encode response body")
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
