package hunter

import (
	"sync"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

// Stats tracks hunt outcomes for a single Hunter instance. It is owned by
// the Hunter it was constructed with, never package-global, and is safe for
// concurrent use.
type Stats struct {
	mu sync.Mutex

	totalHunts       int64
	cacheHits        int64
	virtualFullText  int64
	noMetadata       int64
	fullTextBySource map[string]int64
}

// StatsSnapshot is an immutable view of hunt counters.
type StatsSnapshot struct {
	TotalHunts       int64            `json:"total_hunts"`
	CacheHits        int64            `json:"cache_hits"`
	VirtualFullText  int64            `json:"virtual_full_text"`
	NoMetadata       int64            `json:"no_metadata"`
	FullTextBySource map[string]int64 `json:"full_text_by_source"`
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{
		fullTextBySource: make(map[string]int64),
	}
}

// Record folds one completed hunt into the counters.
func (s *Stats) Record(result *domain.PaperResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalHunts++
	if result.FromCache {
		s.cacheHits++
	}
	if result.IsVirtual() {
		s.virtualFullText++
		if !result.HasMetadata() {
			s.noMetadata++
		}
	} else if result.FullTextSource != "" {
		s.fullTextBySource[result.FullTextSource]++
	}
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySource := make(map[string]int64, len(s.fullTextBySource))
	for source, count := range s.fullTextBySource {
		bySource[source] = count
	}

	return StatsSnapshot{
		TotalHunts:       s.totalHunts,
		CacheHits:        s.cacheHits,
		VirtualFullText:  s.virtualFullText,
		NoMetadata:       s.noMetadata,
		FullTextBySource: bySource,
	}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalHunts = 0
	s.cacheHits = 0
	s.virtualFullText = 0
	s.noMetadata = 0
	s.fullTextBySource = make(map[string]int64)
}
