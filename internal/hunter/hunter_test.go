package hunter

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
)

// scriptedSource returns canned results for waterfall tests.
type scriptedSource struct {
	mu      sync.Mutex
	name    string
	kinds   []domain.IdentifierKind
	result  *domain.SourceResult
	errs    []error // consumed one per call; nil entry means success
	calls   int
	block   chan struct{} // when set, Fetch waits until closed
	enabled bool
}

func (s *scriptedSource) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.calls
	s.calls++

	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	if s.result == nil {
		return nil, domain.NewNotFoundError(s.name, id.Canonical)
	}
	out := *s.result
	out.Source = s.name
	return &out, nil
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) Accepts(kind domain.IdentifierKind) bool {
	for _, k := range s.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (s *scriptedSource) Enabled() bool { return s.enabled }

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func allKinds() []domain.IdentifierKind {
	return []domain.IdentifierKind{
		domain.IdentifierDOI, domain.IdentifierPreprint,
		domain.IdentifierPMID, domain.IdentifierTitle,
	}
}

// fakeCache is a map-backed ResultCache with controllable staleness.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*domain.PaperResult
	stale   map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]*domain.PaperResult),
		stale:   make(map[string]bool),
	}
}

func (c *fakeCache) Get(key string) (*domain.PaperResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry, !c.stale[key]
}

func (c *fakeCache) Set(key string, result *domain.PaperResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
	delete(c.stale, key)
}

func newTestHunter(t *testing.T, cache ResultCache, sources ...papersources.Source) *Hunter {
	t.Helper()

	chain := papersources.NewChain()
	for _, src := range sources {
		require.NoError(t, chain.Register(src))
	}

	return New(chain, Config{
		Retry: RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}, Deps{
		Cache:  cache,
		Logger: zerolog.Nop(),
	})
}

func TestHuntFullTextShortCircuit(t *testing.T) {
	first := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "Attention Is All You Need", FullText: "the real document"},
	}
	second := &scriptedSource{
		name: "beta", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Abstract: "never reached", FullText: "lower priority text"},
	}

	h := newTestHunter(t, nil, first, second)
	result := h.Hunt(context.Background(), "10.48550/arxiv.1706.03762")

	assert.Equal(t, "alpha", result.FullTextSource)
	assert.Equal(t, "the real document", result.FullText)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, []string{"alpha"}, result.SourcesTried)
	assert.Zero(t, second.callCount(), "short-circuit must stop the walk")
	assert.False(t, result.IsVirtual())
}

func TestHuntWinnerConfidenceFlowsToScore(t *testing.T) {
	preprint := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{
			Title:      "Preprint Copy",
			PDFURL:     "https://example.org/paper.pdf",
			Confidence: 0.9,
		},
	}

	h := newTestHunter(t, nil, preprint)
	result := h.Hunt(context.Background(), "10.1000/confidence.test")

	assert.Equal(t, "alpha", result.FullTextSource)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9, "winner's declared confidence must be kept")
	// 0.9 confidence at weight 0.4, plus 0.15 for a real document.
	assert.InDelta(t, 0.51, result.QualityScore, 1e-9)
}

func TestHuntFillOnlyMerge(t *testing.T) {
	first := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "First Title", Year: 2017},
	}
	second := &scriptedSource{
		name: "beta", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "Second Title", Abstract: "an abstract", Year: 2018},
	}

	h := newTestHunter(t, nil, first, second)
	result := h.Hunt(context.Background(), "10.1000/merge.test")

	assert.Equal(t, "First Title", result.Title, "earlier source must not be overwritten")
	assert.Equal(t, 2017, result.Year)
	assert.Equal(t, "an abstract", result.Abstract, "empty fields fill from later sources")
	assert.Equal(t, []string{"alpha", "beta"}, result.SourcesTried)
}

func TestHuntVirtualFallback(t *testing.T) {
	src := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "Metadata Only", Abstract: "just an abstract"},
	}

	h := newTestHunter(t, nil, src)
	result := h.Hunt(context.Background(), "10.1000/virtual.test")

	assert.True(t, result.IsVirtual())
	assert.Equal(t, domain.FullTextSourceVirtual, result.FullTextSource)
	assert.Contains(t, result.FullText, "## ABSTRACT")
	assert.NotContains(t, result.FullText, "## CITATION CONTEXTS")
	assert.InDelta(t, 0.6, result.Confidence, 1e-9)
}

func TestHuntNeverErrorsOnGarbage(t *testing.T) {
	src := &scriptedSource{name: "alpha", kinds: allKinds(), enabled: true}

	h := newTestHunter(t, nil, src)
	result := h.Hunt(context.Background(), "%%% total garbage %%%")

	require.NotNil(t, result)
	assert.Equal(t, domain.IdentifierTitle, result.Kind)
	assert.True(t, result.IsVirtual())
	assert.Contains(t, result.FullText, "## NO METADATA AVAILABLE")
}

func TestHuntSkipsNonAcceptingSources(t *testing.T) {
	doiOnly := &scriptedSource{name: "doi-only", kinds: []domain.IdentifierKind{domain.IdentifierDOI}, enabled: true}
	titleSource := &scriptedSource{
		name: "titles", kinds: []domain.IdentifierKind{domain.IdentifierTitle}, enabled: true,
		result: &domain.SourceResult{Title: "Found By Title"},
	}

	h := newTestHunter(t, nil, doiOnly, titleSource)
	result := h.Hunt(context.Background(), "Some Paper Title")

	assert.Zero(t, doiOnly.callCount())
	assert.Equal(t, []string{"titles"}, result.SourcesTried)
	assert.Equal(t, "Found By Title", result.Title)
}

func TestHuntCacheRoundTrip(t *testing.T) {
	src := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "Cached Paper", FullText: "text"},
	}
	cache := newFakeCache()

	h := newTestHunter(t, cache, src)

	first := h.Hunt(context.Background(), "10.1000/cache.test")
	require.False(t, first.FromCache)
	require.Equal(t, 1, src.callCount())

	second := h.Hunt(context.Background(), "10.1000/cache.test")
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, src.callCount(), "cache hit must issue zero source calls")

	// Apart from the per-call provenance fields, the replay is the first
	// result verbatim.
	replay := *second
	replay.FromCache = first.FromCache
	replay.HuntDuration = first.HuntDuration
	assert.Equal(t, *first, replay)
}

func TestHuntStaleCacheSeedsAccumulator(t *testing.T) {
	src := &scriptedSource{name: "alpha", kinds: allKinds(), enabled: true}
	cache := newFakeCache()

	id := domain.Classify("10.1000/stale.test")
	cache.entries[id.CacheKey()] = &domain.PaperResult{
		Identifier: id.Canonical,
		Kind:       id.Kind,
		Title:      "Stale But Useful",
		Abstract:   "old abstract",
		FullText:   "stale full text",
	}
	cache.stale[id.CacheKey()] = true

	h := newTestHunter(t, cache, src)
	result := h.Hunt(context.Background(), "10.1000/stale.test")

	assert.False(t, result.FromCache)
	assert.Equal(t, 1, src.callCount(), "stale entry still walks the chain")
	assert.Equal(t, "Stale But Useful", result.Title)
	assert.True(t, result.IsVirtual(), "stale full text must be re-earned, not reused")
}

func TestHuntRetriesTransientOnly(t *testing.T) {
	transient := domain.NewExternalAPIError("alpha", 503, "down", domain.ErrTransient)
	flaky := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		errs:   []error{transient, transient},
		result: &domain.SourceResult{Title: "Recovered"},
	}

	h := newTestHunter(t, nil, flaky)
	result := h.Hunt(context.Background(), "10.1000/retry.test")

	assert.Equal(t, 3, flaky.callCount())
	assert.Equal(t, "Recovered", result.Title)
}

func TestHuntDoesNotRetryNotFound(t *testing.T) {
	missing := &scriptedSource{name: "alpha", kinds: allKinds(), enabled: true}
	fallback := &scriptedSource{
		name: "beta", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "From Fallback"},
	}

	h := newTestHunter(t, nil, missing, fallback)
	result := h.Hunt(context.Background(), "10.1000/notfound.test")

	assert.Equal(t, 1, missing.callCount(), "not-found must not be retried")
	assert.Equal(t, "From Fallback", result.Title)
}

func TestHuntGivesUpAfterRetryBudget(t *testing.T) {
	transient := domain.NewExternalAPIError("alpha", 502, "bad gateway", domain.ErrTransient)
	broken := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		errs: []error{transient, transient, transient, transient},
	}

	h := newTestHunter(t, nil, broken)
	result := h.Hunt(context.Background(), "10.1000/giveup.test")

	assert.Equal(t, 3, broken.callCount(), "initial attempt plus two retries")
	assert.True(t, result.IsVirtual())
}

func TestHuntSingleflightCollapse(t *testing.T) {
	gate := make(chan struct{})
	src := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "Collapsed", FullText: "text"},
		block:  gate,
	}

	h := newTestHunter(t, newFakeCache(), src)

	var wg sync.WaitGroup
	results := make([]*domain.PaperResult, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.Hunt(context.Background(), "10.1000/collapse.test")
		}(i)
	}

	// Let the in-flight hunts pile up on the gate, then release.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, src.callCount(), "concurrent same-key hunts must collapse")
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, "Collapsed", result.Title)
	}
}

func TestHuntCancelledNotCached(t *testing.T) {
	src := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "Unreachable"},
	}
	cache := newFakeCache()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newTestHunter(t, cache, src)
	result := h.Hunt(ctx, "10.1000/cancelled.test")

	require.NotNil(t, result)
	assert.Zero(t, src.callCount())
	assert.Empty(t, cache.entries, "abandoned hunts cache nothing")
	assert.Zero(t, h.Stats().Snapshot().TotalHunts)
}

func TestHuntPDFVerification(t *testing.T) {
	pdfOnly := &scriptedSource{
		name: "alpha", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{Title: "PDF Paper", PDFURL: "https://example.org/broken.pdf"},
	}
	inline := &scriptedSource{
		name: "beta", kinds: allKinds(), enabled: true,
		result: &domain.SourceResult{FullText: "inline text"},
	}

	chain := papersources.NewChain()
	require.NoError(t, chain.Register(pdfOnly))
	require.NoError(t, chain.Register(inline))

	h := New(chain, Config{Retry: RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond}}, Deps{
		Logger:   zerolog.Nop(),
		Verifier: verifierFunc(func(ctx context.Context, url string) error { return domain.ErrNotFound }),
	})

	result := h.Hunt(context.Background(), "10.1000/pdfcheck.test")

	assert.Equal(t, "beta", result.FullTextSource, "unverifiable PDF link must not win")
	assert.Equal(t, "inline text", result.FullText)
}

type verifierFunc func(ctx context.Context, url string) error

func (f verifierFunc) VerifyPDF(ctx context.Context, url string) error { return f(ctx, url) }

func TestHuntStats(t *testing.T) {
	src := &scriptedSource{
		name: "alpha", kinds: []domain.IdentifierKind{domain.IdentifierDOI}, enabled: true,
		result: &domain.SourceResult{Title: "Paper", FullText: "text"},
	}
	cache := newFakeCache()
	h := newTestHunter(t, cache, src)

	h.Hunt(context.Background(), "10.1000/stats.test")
	h.Hunt(context.Background(), "10.1000/stats.test")
	h.Hunt(context.Background(), strings.Repeat("unfindable title ", 2))

	snap := h.Stats().Snapshot()
	assert.Equal(t, int64(3), snap.TotalHunts)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(2), snap.FullTextBySource["alpha"])
	assert.Equal(t, int64(1), snap.VirtualFullText)

	h.Stats().Reset()
	assert.Zero(t, h.Stats().Snapshot().TotalHunts)
}
