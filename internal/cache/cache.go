// Package cache provides the in-memory hunt result cache: TTL staleness,
// a hybrid recency/frequency eviction policy under a byte budget, and
// transparent compression of large entries.
package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"math"
	"sync"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

const (
	// DefaultTTL is how long an entry counts as fresh.
	DefaultTTL = 24 * time.Hour

	// DefaultMaxEntries caps the number of cached results.
	DefaultMaxEntries = 10000

	// DefaultMaxBytes is the default byte budget (500MB).
	DefaultMaxBytes = 500 << 20

	// DefaultCompressionThreshold is the payload size above which
	// compression is attempted.
	DefaultCompressionThreshold = 10 << 10

	// compressionMinSavings is the fraction of the payload compression
	// must save to be kept.
	compressionMinSavings = 0.2
)

// Config holds cache tuning knobs.
type Config struct {
	// TTL bounds entry freshness.
	TTL time.Duration

	// MaxEntries caps the entry count.
	MaxEntries int

	// MaxBytes caps the total payload bytes held.
	MaxBytes int64

	// CompressionThreshold is the payload size above which gzip is tried.
	CompressionThreshold int
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.CompressionThreshold == 0 {
		c.CompressionThreshold = DefaultCompressionThreshold
	}
}

// entry is one cached result. Payload is the JSON-serialized PaperResult,
// gzipped when that paid off.
type entry struct {
	payload    []byte
	compressed bool
	createdAt  time.Time
	lastAccess time.Time
	frequency  int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries      int   `json:"entries"`
	Bytes        int64 `json:"bytes"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Evictions    int64 `json:"evictions"`
	Expirations  int64 `json:"expirations"`
	Compressions int64 `json:"compressions"`
	BytesSaved   int64 `json:"bytes_saved"`
}

// Cache is a mutex-guarded TTL cache with hybrid LRU/LFU eviction. It is
// safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	config     Config
	entries    map[string]*entry
	totalBytes int64

	hits         int64
	misses       int64
	evictions    int64
	expirations  int64
	compressions int64
	bytesSaved   int64

	// now is swappable for tests.
	now func() time.Time
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	cfg.applyDefaults()

	return &Cache{
		config:  cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get returns the cached result for a key and whether it is still fresh.
// An expired entry is removed from the cache but its value is still
// returned with fresh=false, so the caller can seed a new hunt from it.
// A miss returns (nil, false).
func (c *Cache) Get(key string) (*domain.PaperResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	result, err := decode(e)
	if err != nil {
		// A payload that no longer decodes is useless; drop it.
		c.removeLocked(key, e)
		c.misses++
		return nil, false
	}

	if c.now().Sub(e.createdAt) >= c.config.TTL {
		c.removeLocked(key, e)
		c.expirations++
		c.misses++
		return result, false
	}

	e.lastAccess = c.now()
	e.frequency++
	c.hits++
	return result, true
}

// Set stores a result under a key, compressing large payloads and evicting
// low-value entries when over budget.
func (c *Cache) Set(key string, result *domain.PaperResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}

	compressed := false
	if len(payload) > c.config.CompressionThreshold {
		if packed, ok := compress(payload); ok {
			c.mu.Lock()
			c.compressions++
			c.bytesSaved += int64(len(payload) - len(packed))
			c.mu.Unlock()
			payload = packed
			compressed = true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(key, old)
	}

	now := c.now()
	c.entries[key] = &entry{
		payload:    payload,
		compressed: compressed,
		createdAt:  now,
		lastAccess: now,
		frequency:  1,
	}
	c.totalBytes += int64(len(payload))

	c.evictLocked()
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeLocked(key, e)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:      len(c.entries),
		Bytes:        c.totalBytes,
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
		Expirations:  c.expirations,
		Compressions: c.compressions,
		BytesSaved:   c.bytesSaved,
	}
}

// evictLocked removes lowest-scoring entries until the cache fits its
// entry and byte budgets. Score blends frequency against age, so rarely
// used old entries go first.
func (c *Cache) evictLocked() {
	for len(c.entries) > c.config.MaxEntries || c.totalBytes > c.config.MaxBytes {
		victim := ""
		lowest := math.Inf(1)
		for key, e := range c.entries {
			if score := c.scoreLocked(e); score < lowest {
				lowest = score
				victim = key
			}
		}
		if victim == "" {
			return
		}
		c.removeLocked(victim, c.entries[victim])
		c.evictions++
	}
}

// scoreLocked computes the retention score: frequency / ln(age + 2).
func (c *Cache) scoreLocked(e *entry) float64 {
	age := c.now().Sub(e.createdAt).Seconds()
	if age < 0 {
		age = 0
	}
	return float64(e.frequency) / math.Log(age+2)
}

// removeLocked drops an entry and its byte accounting.
func (c *Cache) removeLocked(key string, e *entry) {
	delete(c.entries, key)
	c.totalBytes -= int64(len(e.payload))
}

// compress gzips a payload. Returns ok=false when compression does not
// save enough to be worth the decompression cost on read.
func compress(payload []byte) ([]byte, bool) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}

	if float64(buf.Len()) > float64(len(payload))*(1-compressionMinSavings) {
		return nil, false
	}
	return buf.Bytes(), true
}

// decode deserializes an entry back into a PaperResult.
func decode(e *entry) (*domain.PaperResult, error) {
	payload := e.payload
	if e.compressed {
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()

		payload, err = io.ReadAll(r)
		if err != nil {
			return nil, err
		}
	}

	var result domain.PaperResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
