package hunter

import "github.com/helixir/paper-retrieval-service/internal/domain"

// mergeMetadata folds one source result into the accumulator. Policy is
// fill-only: a later source never overwrites a field an earlier source
// already populated. Full-text fields are handled separately by the
// short-circuit and are deliberately not touched here.
func mergeMetadata(acc *domain.PaperResult, sr *domain.SourceResult) {
	if acc.Title == "" {
		acc.Title = sr.Title
	}
	if len(acc.Authors) == 0 {
		acc.Authors = sr.Authors
	}
	if acc.Year == 0 {
		acc.Year = sr.Year
	}
	if acc.Abstract == "" {
		acc.Abstract = sr.Abstract
	}
	if acc.Venue == "" {
		acc.Venue = sr.Venue
	}

	if acc.DOI == "" {
		acc.DOI = sr.DOI
	}
	if acc.PreprintID == "" {
		acc.PreprintID = sr.PreprintID
	}
	if acc.PMID == "" {
		acc.PMID = sr.PMID
	}

	if acc.CitationCount == 0 {
		acc.CitationCount = sr.CitationCount
	}

	if acc.TLDR == "" {
		acc.TLDR = sr.TLDR
	}
	if len(acc.CitationContexts) == 0 {
		acc.CitationContexts = sr.CitationContexts
	}
	if len(acc.RelatedPapers) == 0 {
		acc.RelatedPapers = sr.RelatedPapers
	}
	if len(acc.KeyReferences) == 0 {
		acc.KeyReferences = sr.KeyReferences
	}
}

// seedFromStale pre-populates the accumulator with metadata from a stale
// cache entry. Full text is not carried over: a stale document must be
// re-earned from a live source or re-synthesized from current metadata.
func seedFromStale(acc *domain.PaperResult, stale *domain.PaperResult) {
	acc.Title = stale.Title
	acc.Authors = stale.Authors
	acc.Year = stale.Year
	acc.Abstract = stale.Abstract
	acc.Venue = stale.Venue
	acc.DOI = stale.DOI
	acc.PreprintID = stale.PreprintID
	acc.PMID = stale.PMID
	acc.CitationCount = stale.CitationCount
	acc.TLDR = stale.TLDR
	acc.CitationContexts = stale.CitationContexts
	acc.RelatedPapers = stale.RelatedPapers
	acc.KeyReferences = stale.KeyReferences
}
