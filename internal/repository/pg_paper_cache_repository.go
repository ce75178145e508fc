package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

// Compile-time interface verification.
var _ PaperCacheRepository = (*PgPaperCacheRepository)(nil)

// PgPaperCacheRepository is a PostgreSQL implementation of
// PaperCacheRepository backed by the paper_cache table.
type PgPaperCacheRepository struct {
	db DBTX
}

// NewPgPaperCacheRepository creates a new PostgreSQL paper cache repository.
func NewPgPaperCacheRepository(db DBTX) *PgPaperCacheRepository {
	return &PgPaperCacheRepository{db: db}
}

// Load retrieves a persisted hunt result and bumps its access time in the
// same roundtrip.
func (r *PgPaperCacheRepository) Load(ctx context.Context, key string) (*domain.PaperResult, error) {
	query := `
		UPDATE paper_cache
		SET accessed_at = NOW()
		WHERE cache_key = $1
		RETURNING result, retrieved_at`

	var payload []byte
	var retrievedAt time.Time
	err := r.db.QueryRow(ctx, query, key).Scan(&payload, &retrievedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper_cache", key)
		}
		return nil, fmt.Errorf("failed to load cached result: %w", err)
	}

	var result domain.PaperResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	result.RetrievedAt = retrievedAt

	return &result, nil
}

// Save upserts a hunt result under its cache key.
func (r *PgPaperCacheRepository) Save(ctx context.Context, key string, result *domain.PaperResult) error {
	if key == "" {
		return domain.NewValidationError("key", "cache key cannot be empty")
	}
	if result == nil {
		return domain.NewValidationError("result", "result cannot be nil")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	retrievedAt := result.RetrievedAt
	if retrievedAt.IsZero() {
		retrievedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO paper_cache (cache_key, result, retrieved_at, accessed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (cache_key) DO UPDATE SET
			result = EXCLUDED.result,
			retrieved_at = EXCLUDED.retrieved_at,
			accessed_at = NOW()`

	if _, err := r.db.Exec(ctx, query, key, payload, retrievedAt); err != nil {
		return fmt.Errorf("failed to save cached result: %w", err)
	}

	return nil
}

// Delete removes a cache key.
func (r *PgPaperCacheRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM paper_cache WHERE cache_key = $1`

	if _, err := r.db.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete cached result: %w", err)
	}

	return nil
}

// PurgeOlderThan deletes entries retrieved before the cutoff.
func (r *PgPaperCacheRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM paper_cache WHERE retrieved_at < $1`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cached results: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Count returns the number of persisted entries.
func (r *PgPaperCacheRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM paper_cache`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cached results: %w", err)
	}

	return count, nil
}
