//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/repository"
)

func newWarmStore() *repository.PgPaperCacheRepository {
	return repository.NewPgPaperCacheRepository(testPool)
}

func sampleResult(identifier string) *domain.PaperResult {
	return &domain.PaperResult{
		Identifier:  identifier,
		Kind:        domain.IdentifierDOI,
		Title:       "Integration Test Paper",
		Authors:     []domain.Author{{Name: "Ada Lovelace"}},
		Year:        2024,
		Abstract:    "A paper used to exercise the warm store.",
		DOI:         "10.1234/integration",
		RetrievedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestWarmStore_SaveAndLoad(t *testing.T) {
	cleanTable(t, "paper_cache")
	repo := newWarmStore()
	ctx := context.Background()

	result := sampleResult("doi:10.1234/integration")
	if err := repo.Save(ctx, "doi:10.1234/integration", result); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := repo.Load(ctx, "doi:10.1234/integration")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Title != result.Title {
		t.Errorf("expected title %q, got %q", result.Title, loaded.Title)
	}
	if !loaded.RetrievedAt.Equal(result.RetrievedAt) {
		t.Errorf("expected retrieved_at %v, got %v", result.RetrievedAt, loaded.RetrievedAt)
	}
}

func TestWarmStore_LoadMissReturnsNotFound(t *testing.T) {
	cleanTable(t, "paper_cache")
	repo := newWarmStore()

	_, err := repo.Load(context.Background(), "doi:10.1234/missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWarmStore_SaveUpserts(t *testing.T) {
	cleanTable(t, "paper_cache")
	repo := newWarmStore()
	ctx := context.Background()

	first := sampleResult("doi:10.1234/upsert")
	if err := repo.Save(ctx, "doi:10.1234/upsert", first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second := sampleResult("doi:10.1234/upsert")
	second.Title = "Revised Title"
	if err := repo.Save(ctx, "doi:10.1234/upsert", second); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := repo.Load(ctx, "doi:10.1234/upsert")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Title != "Revised Title" {
		t.Errorf("expected upserted title, got %q", loaded.Title)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after upsert, got %d", count)
	}
}

func TestWarmStore_PurgeOlderThan(t *testing.T) {
	cleanTable(t, "paper_cache")
	repo := newWarmStore()
	ctx := context.Background()

	old := sampleResult("doi:10.1234/old")
	old.RetrievedAt = time.Now().UTC().Add(-48 * time.Hour)
	if err := repo.Save(ctx, "doi:10.1234/old", old); err != nil {
		t.Fatalf("save old failed: %v", err)
	}

	fresh := sampleResult("doi:10.1234/fresh")
	if err := repo.Save(ctx, "doi:10.1234/fresh", fresh); err != nil {
		t.Fatalf("save fresh failed: %v", err)
	}

	purged, err := repo.PurgeOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged row, got %d", purged)
	}

	if _, err := repo.Load(ctx, "doi:10.1234/old"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected old entry purged, got %v", err)
	}
	if _, err := repo.Load(ctx, "doi:10.1234/fresh"); err != nil {
		t.Errorf("expected fresh entry kept, got %v", err)
	}
}

func TestWarmStore_Delete(t *testing.T) {
	cleanTable(t, "paper_cache")
	repo := newWarmStore()
	ctx := context.Background()

	if err := repo.Save(ctx, "doi:10.1234/gone", sampleResult("doi:10.1234/gone")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := repo.Delete(ctx, "doi:10.1234/gone"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Load(ctx, "doi:10.1234/gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
