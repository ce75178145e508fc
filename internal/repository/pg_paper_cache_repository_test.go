package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

func cachedResult(title string) *domain.PaperResult {
	return &domain.PaperResult{
		Identifier:     "10.1234/warm",
		Kind:           domain.IdentifierDOI,
		Title:          title,
		FullTextSource: "unpaywall",
		RetrievedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPgPaperCacheRepository_Load(t *testing.T) {
	t.Run("returns decoded result and bumps access time", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperCacheRepository(mock)
		ctx := context.Background()

		stored := cachedResult("Warm Hit")
		payload, err := json.Marshal(stored)
		require.NoError(t, err)

		retrievedAt := time.Now().UTC().Add(-time.Hour)
		mock.ExpectQuery(`UPDATE paper_cache\s+SET accessed_at = NOW\(\)\s+WHERE cache_key = \$1\s+RETURNING result, retrieved_at`).
			WithArgs("doi:10.1234/warm").
			WillReturnRows(pgxmock.NewRows([]string{"result", "retrieved_at"}).
				AddRow(payload, retrievedAt))

		result, err := repo.Load(ctx, "doi:10.1234/warm")
		require.NoError(t, err)
		assert.Equal(t, "Warm Hit", result.Title)
		assert.Equal(t, "unpaywall", result.FullTextSource)
		assert.Equal(t, retrievedAt, result.RetrievedAt, "retrieved_at column wins over the JSON payload")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found error for absent key", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperCacheRepository(mock)
		ctx := context.Background()

		mock.ExpectQuery(`UPDATE paper_cache`).
			WithArgs("doi:10.0000/missing").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.Load(ctx, "doi:10.0000/missing")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails on undecodable payload", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperCacheRepository(mock)
		ctx := context.Background()

		mock.ExpectQuery(`UPDATE paper_cache`).
			WithArgs("doi:10.1234/corrupt").
			WillReturnRows(pgxmock.NewRows([]string{"result", "retrieved_at"}).
				AddRow([]byte("{not json"), time.Now().UTC()))

		_, err = repo.Load(ctx, "doi:10.1234/corrupt")
		assert.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperCacheRepository_Save(t *testing.T) {
	t.Run("upserts result under its key", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperCacheRepository(mock)
		ctx := context.Background()

		result := cachedResult("Persisted Paper")
		mock.ExpectExec(`INSERT INTO paper_cache \(cache_key, result, retrieved_at, accessed_at\)`).
			WithArgs("doi:10.1234/warm", pgxmock.AnyArg(), result.RetrievedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.Save(ctx, "doi:10.1234/warm", result)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults a zero retrieved_at", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperCacheRepository(mock)
		ctx := context.Background()

		result := cachedResult("No Timestamp")
		result.RetrievedAt = time.Time{}
		mock.ExpectExec(`INSERT INTO paper_cache`).
			WithArgs("doi:10.1234/warm", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.Save(ctx, "doi:10.1234/warm", result)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects empty key", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperCacheRepository(mock)

		err = repo.Save(context.Background(), "", cachedResult("x"))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("rejects nil result", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperCacheRepository(mock)

		err = repo.Save(context.Background(), "doi:10.1/x", nil)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgPaperCacheRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperCacheRepository(mock)

	mock.ExpectExec(`DELETE FROM paper_cache WHERE cache_key = \$1`).
		WithArgs("doi:10.1234/warm").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = repo.Delete(context.Background(), "doi:10.1234/warm")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperCacheRepository_PurgeOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperCacheRepository(mock)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	mock.ExpectExec(`DELETE FROM paper_cache WHERE retrieved_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 42))

	purged, err := repo.PurgeOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperCacheRepository_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperCacheRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM paper_cache`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
