// Package hunter implements the waterfall retrieval coordinator: classify
// an identifier, consult the cache, walk the source priority chain with
// fill-only metadata merging and full-text short-circuit, synthesize a
// virtual document when no source yields one, score, cache, and report.
package hunter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/observability"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
)

// DefaultCacheTTL is how long a cached result counts as fresh.
const DefaultCacheTTL = 24 * time.Hour

// ResultCache is the in-memory result cache consulted before any source
// call. Get returns the entry and whether it is still fresh; an expired
// entry is returned with fresh=false so the caller can seed its
// accumulator from it.
type ResultCache interface {
	Get(key string) (result *domain.PaperResult, fresh bool)
	Set(key string, result *domain.PaperResult)
}

// WarmStore is an optional persistent store consulted on in-memory miss
// and written through on every completed hunt.
type WarmStore interface {
	Load(ctx context.Context, key string) (*domain.PaperResult, error)
	Save(ctx context.Context, key string, result *domain.PaperResult) error
}

// LinkVerifier checks that a candidate PDF URL actually resolves to a PDF
// before the coordinator lets it win the full-text short-circuit.
type LinkVerifier interface {
	VerifyPDF(ctx context.Context, url string) error
}

// EventPublisher emits hunt lifecycle events. Publish failures are logged
// and never propagate into the hunt result.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// Config holds coordinator tuning knobs.
type Config struct {
	// CacheTTL bounds how old a cached or persisted result may be and
	// still count as a hit.
	CacheTTL time.Duration

	// Retry is the per-source retry policy applied during the walk.
	Retry RetryPolicy
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	c.Retry.applyDefaults()
}

// Deps bundles the coordinator's collaborators. Cache, Store, Verifier,
// Publisher, and Metrics are all optional; a nil field disables that
// behavior.
type Deps struct {
	Cache     ResultCache
	Store     WarmStore
	Verifier  LinkVerifier
	Publisher EventPublisher
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
}

// Hunter coordinates the source waterfall for single and batch hunts. It
// owns its Stats; nothing here is package-global.
type Hunter struct {
	chain     *papersources.Chain
	cache     ResultCache
	store     WarmStore
	verifier  LinkVerifier
	publisher EventPublisher
	metrics   *observability.Metrics
	logger    zerolog.Logger
	stats     *Stats
	config    Config
	flight    singleflight.Group
}

// New creates a Hunter walking the given source chain.
func New(chain *papersources.Chain, cfg Config, deps Deps) *Hunter {
	cfg.applyDefaults()

	return &Hunter{
		chain:     chain,
		cache:     deps.Cache,
		store:     deps.Store,
		verifier:  deps.Verifier,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		stats:     NewStats(),
		config:    cfg,
	}
}

// Stats returns the hunter's counter set.
func (h *Hunter) Stats() *Stats {
	return h.stats
}

// Hunt retrieves everything obtainable for a raw identifier. It never
// returns an error: garbage input degrades to a title query, and a hunt
// that finds nothing yields an empty-shell result with a synthesized
// placeholder document. Concurrent hunts for the same cache key collapse
// to a single source walk.
func (h *Hunter) Hunt(ctx context.Context, raw string) *domain.PaperResult {
	id := domain.Classify(raw)

	v, _, _ := h.flight.Do(id.CacheKey(), func() (interface{}, error) {
		return h.hunt(ctx, id), nil
	})

	// Each caller gets its own copy so nobody mutates a shared result.
	result := *(v.(*domain.PaperResult))
	return &result
}

// hunt runs the full waterfall for one classified identifier.
func (h *Hunter) hunt(ctx context.Context, id domain.PaperIdentifier) *domain.PaperResult {
	start := time.Now()
	key := id.CacheKey()
	logger := h.logger.With().
		Str("identifier", id.Canonical).
		Str("kind", string(id.Kind)).
		Logger()

	if h.metrics != nil {
		h.metrics.RecordHuntStarted()
	}

	acc := &domain.PaperResult{
		Identifier: id.Canonical,
		Kind:       id.Kind,
	}

	if cached, done := h.consultCaches(ctx, key, acc, start, logger); done {
		return cached
	}

	sourcesTried, winner, cancelled := h.walk(ctx, id, acc, logger)
	acc.SourcesTried = sourcesTried

	if winner == "" {
		text, confidence := synthesize(acc)
		acc.FullText = text
		acc.FullTextSource = domain.FullTextSourceVirtual
		acc.Confidence = confidence
	}

	acc.QualityScore = qualityScore(acc)
	acc.RetrievedAt = time.Now().UTC()
	acc.HuntDuration = time.Since(start)

	if cancelled {
		// An abandoned hunt must not leave partial results behind.
		logger.Debug().Msg("hunt abandoned, result not cached")
		return acc
	}

	if h.cache != nil {
		h.cache.Set(key, acc)
	}
	if h.store != nil {
		if err := h.store.Save(ctx, key, acc); err != nil {
			logger.Warn().Err(err).Msg("warm store write failed")
		}
	}

	h.stats.Record(acc)
	if h.metrics != nil {
		h.metrics.RecordHuntCompleted(acc.FullTextSource, acc.HuntDuration.Seconds())
	}
	h.publishHuntCompleted(ctx, acc, logger)

	logger.Info().
		Str("full_text_source", acc.FullTextSource).
		Float64("quality_score", acc.QualityScore).
		Int("sources_tried", len(sourcesTried)).
		Dur("duration", acc.HuntDuration).
		Msg("hunt completed")

	return acc
}

// consultCaches checks the in-memory cache, then the warm store. A fresh
// entry ends the hunt; a stale one seeds the accumulator. The second return
// value reports whether the hunt is done.
func (h *Hunter) consultCaches(ctx context.Context, key string, acc *domain.PaperResult, start time.Time, logger zerolog.Logger) (*domain.PaperResult, bool) {
	var stale *domain.PaperResult

	if h.cache != nil {
		if cached, fresh := h.cache.Get(key); cached != nil {
			if fresh {
				return h.finishCacheHit(cached, start, logger), true
			}
			stale = cached
		}
	}

	if stale == nil && h.store != nil {
		persisted, err := h.store.Load(ctx, key)
		switch {
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			logger.Warn().Err(err).Msg("warm store read failed")
		case persisted != nil && time.Since(persisted.RetrievedAt) < h.config.CacheTTL:
			if h.cache != nil {
				h.cache.Set(key, persisted)
			}
			return h.finishCacheHit(persisted, start, logger), true
		case persisted != nil:
			stale = persisted
		}
	}

	if h.metrics != nil {
		h.metrics.RecordCacheMiss()
	}
	if stale != nil {
		seedFromStale(acc, stale)
	}
	return nil, false
}

// finishCacheHit stamps a cached result for return. Content fields come back
// verbatim; FromCache and HuntDuration are per-call provenance and are the
// only fields that differ between a hunt and its cached replay.
func (h *Hunter) finishCacheHit(cached *domain.PaperResult, start time.Time, logger zerolog.Logger) *domain.PaperResult {
	result := *cached
	result.FromCache = true
	result.HuntDuration = time.Since(start)

	h.stats.Record(&result)
	if h.metrics != nil {
		h.metrics.RecordCacheHit()
	}
	logger.Debug().Str("full_text_source", result.FullTextSource).Msg("cache hit")
	return &result
}

// walk performs the ordered source walk. It returns the names of attempted
// sources, the name of the full-text winner (empty when none), and whether
// the walk was cut short by cancellation.
func (h *Hunter) walk(ctx context.Context, id domain.PaperIdentifier, acc *domain.PaperResult, logger zerolog.Logger) (tried []string, winner string, cancelled bool) {
	for _, src := range h.chain.Ordered() {
		if ctx.Err() != nil {
			return tried, winner, true
		}
		if !src.Accepts(id.Kind) {
			continue
		}

		tried = append(tried, src.Name())
		if h.metrics != nil {
			h.metrics.RecordSourceAttempt(src.Name())
		}

		result, err := h.fetchWithRetry(ctx, src, id)
		if err != nil {
			class := errorClass(err)
			if h.metrics != nil {
				h.metrics.RecordSourceFailed(src.Name(), class)
			}
			// Failures never propagate out of the coordinator; the
			// walk simply advances.
			logger.Debug().Err(err).
				Str("source", src.Name()).
				Str("class", class).
				Msg("source attempt failed")
			continue
		}

		mergeMetadata(acc, result)

		if result.HasFullText() && h.adoptFullText(ctx, acc, result, logger) {
			winner = src.Name()
			acc.FullTextSource = winner
			acc.Confidence = winnerConfidence(result)
			if h.metrics != nil {
				h.metrics.RecordFullTextFound(winner)
			}
			// Full text is never taken from a later source.
			break
		}
	}
	return tried, winner, ctx.Err() != nil
}

// winnerConfidence returns the winning source's declared confidence. Sources
// that do not declare one get full trust.
func winnerConfidence(result *domain.SourceResult) float64 {
	if result.Confidence > 0 && result.Confidence <= 1 {
		return result.Confidence
	}
	return 1.0
}

// adoptFullText installs a source's full text into the accumulator. Inline
// text is taken as-is; a bare PDF link must pass verification first when a
// verifier is configured.
func (h *Hunter) adoptFullText(ctx context.Context, acc *domain.PaperResult, result *domain.SourceResult, logger zerolog.Logger) bool {
	if result.FullText != "" {
		acc.FullText = result.FullText
		acc.PDFURL = result.PDFURL
		return true
	}

	if h.verifier != nil {
		if err := h.verifier.VerifyPDF(ctx, result.PDFURL); err != nil {
			logger.Debug().Err(err).
				Str("source", result.Source).
				Str("pdf_url", result.PDFURL).
				Msg("pdf link failed verification")
			return false
		}
	}

	acc.PDFURL = result.PDFURL
	return true
}

// fetchWithRetry attempts one source with bounded exponential backoff for
// rate-limited and transient failures.
func (h *Hunter) fetchWithRetry(ctx context.Context, src papersources.Source, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := src.Fetch(ctx, id)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !h.config.Retry.Retryable(err) || attempt >= h.config.Retry.MaxRetries {
			return nil, lastErr
		}
		if errors.Is(err, domain.ErrRateLimited) && h.metrics != nil {
			h.metrics.RecordSourceRateLimited(src.Name())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.config.Retry.Delay(attempt)):
		}
	}
}

// publishHuntCompleted emits the hunt.completed event when a publisher is
// configured.
func (h *Hunter) publishHuntCompleted(ctx context.Context, result *domain.PaperResult, logger zerolog.Logger) {
	if h.publisher == nil {
		return
	}

	huntID := uuid.New()
	event, err := domain.NewEvent(domain.EventTypeHuntCompleted, huntID.String(), domain.HuntCompletedPayload{
		HuntID:         huntID,
		Identifier:     result.Identifier,
		Kind:           result.Kind,
		FullTextSource: result.FullTextSource,
		QualityScore:   result.QualityScore,
		FromCache:      result.FromCache,
		SourcesTried:   len(result.SourcesTried),
		Duration:       result.HuntDuration,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("building hunt event failed")
		return
	}

	if err := h.publisher.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("publishing hunt event failed")
	}
}
