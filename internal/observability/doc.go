// Package observability provides logging, metrics, and tracing support for
// the paper retrieval service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for hunts, sources, cache, and batches
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("identifier", id).Msg("hunt started")
//
// Add hunt context to a logger:
//
//	logger = observability.WithHuntContext(logger, identifier, kind)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("paper_retrieval")
//
// Record metrics:
//
//	metrics.RecordHuntStarted()
//	metrics.RecordSourceAttempt("semanticscholar")
//	metrics.RecordCacheHit()
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - identifier: Canonical paper identifier being hunted
//   - kind: Identifier kind (doi, arxiv, pmid, title)
//   - source: Paper source (semanticscholar, openalex, etc.)
//   - full_text_source: Source that won the full-text short-circuit
//   - trace_id: Distributed trace identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
