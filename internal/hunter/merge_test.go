package hunter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

func TestMergeMetadataFillOnly(t *testing.T) {
	acc := &domain.PaperResult{
		Title: "Existing Title",
		Year:  2017,
	}

	mergeMetadata(acc, &domain.SourceResult{
		Title:         "Other Title",
		Year:          2019,
		Abstract:      "new abstract",
		DOI:           "10.1/x",
		CitationCount: 42,
		TLDR:          "summary",
	})

	assert.Equal(t, "Existing Title", acc.Title)
	assert.Equal(t, 2017, acc.Year)
	assert.Equal(t, "new abstract", acc.Abstract)
	assert.Equal(t, "10.1/x", acc.DOI)
	assert.Equal(t, 42, acc.CitationCount)
	assert.Equal(t, "summary", acc.TLDR)
}

func TestMergeMetadataListsNotAppended(t *testing.T) {
	acc := &domain.PaperResult{
		CitationContexts: []domain.CitationContext{{Snippet: "first"}},
	}

	mergeMetadata(acc, &domain.SourceResult{
		CitationContexts: []domain.CitationContext{{Snippet: "second"}},
		RelatedPapers:    []domain.RelatedPaper{{Title: "related"}},
	})

	assert.Len(t, acc.CitationContexts, 1)
	assert.Equal(t, "first", acc.CitationContexts[0].Snippet)
	assert.Len(t, acc.RelatedPapers, 1)
}

func TestMergeMetadataIgnoresFullText(t *testing.T) {
	acc := &domain.PaperResult{}

	mergeMetadata(acc, &domain.SourceResult{FullText: "doc", PDFURL: "https://x/p.pdf"})

	assert.Empty(t, acc.FullText)
	assert.Empty(t, acc.PDFURL)
}

func TestSeedFromStaleSkipsFullText(t *testing.T) {
	acc := &domain.PaperResult{}
	seedFromStale(acc, &domain.PaperResult{
		Title:    "Old Title",
		Abstract: "old abstract",
		FullText: "old document",
		PDFURL:   "https://x/old.pdf",
	})

	assert.Equal(t, "Old Title", acc.Title)
	assert.Equal(t, "old abstract", acc.Abstract)
	assert.Empty(t, acc.FullText)
	assert.Empty(t, acc.PDFURL)
}
