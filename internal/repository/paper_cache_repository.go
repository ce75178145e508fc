package repository

import (
	"context"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

// PaperCacheRepository persists hunt results keyed by canonical cache key.
type PaperCacheRepository interface {
	// Load returns the persisted result for a cache key and bumps its
	// access time. Returns domain.ErrNotFound when the key is absent.
	Load(ctx context.Context, key string) (*domain.PaperResult, error)

	// Save upserts a hunt result under its cache key.
	Save(ctx context.Context, key string, result *domain.PaperResult) error

	// Delete removes a cache key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// PurgeOlderThan deletes entries retrieved before the cutoff and
	// returns how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int64, error)
}
