package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

func testResult(title string) *domain.PaperResult {
	return &domain.PaperResult{
		Identifier:     "10.1/" + title,
		Kind:           domain.IdentifierDOI,
		Title:          title,
		FullTextSource: "semanticscholar",
	}
}

func TestGetMiss(t *testing.T) {
	c := New(Config{})

	result, fresh := c.Get("missing")
	assert.Nil(t, result)
	assert.False(t, fresh)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestSetGetRoundTrip(t *testing.T) {
	c := New(Config{})
	c.Set("key", testResult("Round Trip"))

	result, fresh := c.Get("key")
	require.NotNil(t, result)
	assert.True(t, fresh)
	assert.Equal(t, "Round Trip", result.Title)
	assert.Equal(t, int64(1), c.Stats().Hits)
}

func TestExpiredEntryReturnedStale(t *testing.T) {
	c := New(Config{TTL: time.Hour})

	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Set("key", testResult("Going Stale"))
	clock = clock.Add(2 * time.Hour)

	result, fresh := c.Get("key")
	require.NotNil(t, result, "expired value must still be handed back for seeding")
	assert.False(t, fresh)
	assert.Equal(t, "Going Stale", result.Title)
	assert.Zero(t, c.Len(), "expired entry must be removed")
	assert.Equal(t, int64(1), c.Stats().Expirations)

	result, fresh = c.Get("key")
	assert.Nil(t, result)
	assert.False(t, fresh)
}

func TestCompressionOfLargeEntries(t *testing.T) {
	c := New(Config{})

	result := testResult("Big Paper")
	result.FullText = strings.Repeat("highly compressible full text. ", 2000)
	c.Set("big", result)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Compressions)
	assert.Positive(t, stats.BytesSaved)
	assert.Less(t, stats.Bytes, int64(len(result.FullText)))

	got, fresh := c.Get("big")
	require.NotNil(t, got)
	assert.True(t, fresh)
	assert.Equal(t, result.FullText, got.FullText, "compression must round-trip")
}

func TestSmallEntryNotCompressed(t *testing.T) {
	c := New(Config{})

	result := testResult("Small")
	result.Abstract = "short abstract"
	c.Set("small", result)

	assert.Zero(t, c.Stats().Compressions)

	got, fresh := c.Get("small")
	require.NotNil(t, got)
	assert.True(t, fresh)
	assert.Equal(t, "short abstract", got.Abstract)
}

func TestEvictionPrefersLowFrequencyOldEntries(t *testing.T) {
	c := New(Config{MaxEntries: 2})

	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Set("old-popular", testResult("Old Popular"))
	clock = clock.Add(time.Minute)
	c.Set("old-idle", testResult("Old Idle"))
	clock = clock.Add(time.Minute)

	// Boost the first entry's frequency.
	for i := 0; i < 5; i++ {
		_, fresh := c.Get("old-popular")
		require.True(t, fresh)
	}

	c.Set("newcomer", testResult("Newcomer"))

	assert.Equal(t, 2, c.Len())
	_, fresh := c.Get("old-popular")
	assert.True(t, fresh, "frequently used entry survives")
	result, _ := c.Get("old-idle")
	assert.Nil(t, result, "idle entry is the eviction victim")
	_, fresh = c.Get("newcomer")
	assert.True(t, fresh)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestByteBudgetEviction(t *testing.T) {
	c := New(Config{MaxBytes: 4096, CompressionThreshold: 1 << 20})

	for i := 0; i < 10; i++ {
		result := testResult(fmt.Sprintf("paper-%d", i))
		result.Abstract = strings.Repeat("x", 1024)
		c.Set(fmt.Sprintf("key-%d", i), result)
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.Bytes, int64(4096))
	assert.Positive(t, stats.Evictions)
}

func TestSetOverwritesExisting(t *testing.T) {
	c := New(Config{})
	c.Set("key", testResult("First"))
	c.Set("key", testResult("Second"))

	result, _ := c.Get("key")
	require.NotNil(t, result)
	assert.Equal(t, "Second", result.Title)
	assert.Equal(t, 1, c.Len())
}

func TestDelete(t *testing.T) {
	c := New(Config{})
	c.Set("key", testResult("Doomed"))
	c.Delete("key")

	result, _ := c.Get("key")
	assert.Nil(t, result)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			c.Set(key, testResult(key))
			c.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}
