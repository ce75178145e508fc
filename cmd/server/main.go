// Package main provides the entry point for the paper retrieval service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/paper-retrieval-service/internal/cache"
	"github.com/helixir/paper-retrieval-service/internal/config"
	"github.com/helixir/paper-retrieval-service/internal/database"
	"github.com/helixir/paper-retrieval-service/internal/events"
	"github.com/helixir/paper-retrieval-service/internal/hunter"
	"github.com/helixir/paper-retrieval-service/internal/observability"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
	"github.com/helixir/paper-retrieval-service/internal/papersources/arxiv"
	"github.com/helixir/paper-retrieval-service/internal/papersources/biorxiv"
	"github.com/helixir/paper-retrieval-service/internal/papersources/coreapi"
	"github.com/helixir/paper-retrieval-service/internal/papersources/crossref"
	"github.com/helixir/paper-retrieval-service/internal/papersources/doaj"
	"github.com/helixir/paper-retrieval-service/internal/papersources/openalex"
	"github.com/helixir/paper-retrieval-service/internal/papersources/pubmed"
	"github.com/helixir/paper-retrieval-service/internal/papersources/sciencedirect"
	"github.com/helixir/paper-retrieval-service/internal/papersources/scopus"
	"github.com/helixir/paper-retrieval-service/internal/papersources/semanticscholar"
	"github.com/helixir/paper-retrieval-service/internal/papersources/unpaywall"
	"github.com/helixir/paper-retrieval-service/internal/pdf"
	"github.com/helixir/paper-retrieval-service/internal/repository"
	httpserver "github.com/helixir/paper-retrieval-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paper-retrieval-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL when the warm store is enabled. The service
	// runs fine without it; every hunt then starts from the in-memory
	// cache only.
	var db *database.DB
	var warmStore hunter.WarmStore
	if cfg.Database.Enabled {
		db, err = database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info().Msg("warm store connection established")

		// Run migrations if configured.
		if cfg.Database.MigrationAutoRun {
			migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
			if err != nil {
				return fmt.Errorf("create migrator: %w", err)
			}
			defer func() {
				if closeErr := migrator.Close(); closeErr != nil {
					logger.Error().Err(closeErr).Msg("failed to close migrator")
				}
			}()

			if err := migrator.Up(); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}

		warmStore = repository.NewPgPaperCacheRepository(db)

		// Expired entries get purged on a timer; an advisory lock keeps
		// replicas from purging the same rows twice.
		if cfg.Database.PurgeInterval > 0 {
			purger := repository.NewPurger(db, cfg.Database.RetentionPeriod, cfg.Database.PurgeInterval, logger)
			go purger.Run(ctx)
		}
	}

	// In-memory result cache; the first stop of every hunt.
	resultCache := cache.New(cache.Config{
		TTL:                  cfg.Cache.TTL,
		MaxEntries:           cfg.Cache.MaxEntries,
		MaxBytes:             cfg.Cache.MaxBytes,
		CompressionThreshold: cfg.Cache.CompressionThreshold,
	})

	// Source chain in waterfall priority order.
	chain, err := buildSourceChain(cfg)
	if err != nil {
		return fmt.Errorf("build source chain: %w", err)
	}
	logger.Info().Strs("sources", chain.Names()).Msg("source chain registered")

	// PDF downloader doubles as the hunter's link verifier.
	downloader := pdf.NewDownloader(pdf.Config{
		Timeout:              cfg.PDF.Timeout,
		MaxSize:              cfg.PDF.MaxSizeBytes,
		UserAgent:            cfg.PDF.UserAgent,
		AllowPrivateNetworks: cfg.PDF.AllowPrivateHosts,
	})

	// Kafka event publisher, optional.
	var publisher hunter.EventPublisher
	var kafkaPublisher *events.Publisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = events.NewPublisher(events.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, logger)
		defer func() {
			if closeErr := kafkaPublisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close event publisher")
			}
		}()
		publisher = kafkaPublisher
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("event publisher enabled")
	}

	// Prometheus metrics.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("paper_retrieval")
	}

	// The waterfall coordinator.
	h := hunter.New(chain, hunter.Config{
		CacheTTL: cfg.Hunter.CacheTTL,
		Retry: hunter.RetryPolicy{
			MaxRetries: cfg.Hunter.MaxRetries,
			BaseDelay:  cfg.Hunter.RetryBaseDelay,
			MaxDelay:   cfg.Hunter.RetryMaxDelay,
		},
	}, hunter.Deps{
		Cache:     resultCache,
		Store:     warmStore,
		Verifier:  downloader,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})

	// HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:          cfg.Server.HTTPAddress(),
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     0, // SSE batch streams stay open; per-stream deadline applies instead.
		IdleTimeout:      2 * time.Minute,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		BatchConcurrency: int64(cfg.Hunter.BatchConcurrency),
	}
	httpSrv := httpserver.NewServer(httpCfg, h, resultCache, downloader, db, logger)

	// Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("paper-retrieval-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down paper-retrieval-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("paper-retrieval-service shutdown complete")
	return nil
}

// buildSourceChain registers every enabled source in waterfall priority
// order. Sources whose credentials are missing register anyway; the chain
// skips them at walk time via Enabled().
func buildSourceChain(cfg *config.Config) (*papersources.Chain, error) {
	src := cfg.PaperSources
	chain := papersources.NewChain()

	sources := []papersources.Source{
		scopus.New(scopus.Config{
			BaseURL:   src.Scopus.BaseURL,
			APIKey:    src.Scopus.APIKey,
			Timeout:   src.Scopus.Timeout,
			RateLimit: src.Scopus.RateLimit,
			Enabled:   src.Scopus.Enabled,
		}),
		sciencedirect.New(sciencedirect.Config{
			BaseURL:   src.ScienceDirect.BaseURL,
			APIKey:    src.ScienceDirect.APIKey,
			Timeout:   src.ScienceDirect.Timeout,
			RateLimit: src.ScienceDirect.RateLimit,
			Enabled:   src.ScienceDirect.Enabled,
		}),
		semanticscholar.NewClient(semanticscholar.Config{
			BaseURL:   src.SemanticScholar.BaseURL,
			APIKey:    src.SemanticScholar.APIKey,
			Timeout:   src.SemanticScholar.Timeout,
			RateLimit: src.SemanticScholar.RateLimit,
			Enabled:   src.SemanticScholar.Enabled,
		}, nil),
		openalex.New(openalex.Config{
			BaseURL:   src.OpenAlex.BaseURL,
			Email:     src.OpenAlex.Email,
			Timeout:   src.OpenAlex.Timeout,
			RateLimit: src.OpenAlex.RateLimit,
			Enabled:   src.OpenAlex.Enabled,
		}),
		unpaywall.New(unpaywall.Config{
			BaseURL:   src.Unpaywall.BaseURL,
			Email:     src.Unpaywall.Email,
			Timeout:   src.Unpaywall.Timeout,
			RateLimit: src.Unpaywall.RateLimit,
			Enabled:   src.Unpaywall.Enabled,
		}),
		coreapi.New(coreapi.Config{
			BaseURL:   src.CoreAPI.BaseURL,
			APIKey:    src.CoreAPI.APIKey,
			Timeout:   src.CoreAPI.Timeout,
			RateLimit: src.CoreAPI.RateLimit,
			Enabled:   src.CoreAPI.Enabled,
		}),
		crossref.New(crossref.Config{
			BaseURL:   src.Crossref.BaseURL,
			Email:     src.Crossref.Email,
			Timeout:   src.Crossref.Timeout,
			RateLimit: src.Crossref.RateLimit,
			Enabled:   src.Crossref.Enabled,
		}),
		doaj.New(doaj.Config{
			BaseURL:   src.DOAJ.BaseURL,
			Timeout:   src.DOAJ.Timeout,
			RateLimit: src.DOAJ.RateLimit,
			Enabled:   src.DOAJ.Enabled,
		}),
		arxiv.New(arxiv.Config{
			BaseURL:   src.ArXiv.BaseURL,
			Timeout:   src.ArXiv.Timeout,
			RateLimit: src.ArXiv.RateLimit,
			Enabled:   src.ArXiv.Enabled,
		}),
		biorxiv.New(biorxiv.Config{
			BaseURL:   src.BioRxiv.BaseURL,
			Timeout:   src.BioRxiv.Timeout,
			RateLimit: src.BioRxiv.RateLimit,
			Enabled:   src.BioRxiv.Enabled,
		}),
		pubmed.New(pubmed.Config{
			BaseURL:   src.PubMed.BaseURL,
			APIKey:    src.PubMed.APIKey,
			Timeout:   src.PubMed.Timeout,
			RateLimit: src.PubMed.RateLimit,
			Enabled:   src.PubMed.Enabled,
		}),
	}

	for _, source := range sources {
		if err := chain.Register(source); err != nil {
			return nil, err
		}
	}

	return chain, nil
}
