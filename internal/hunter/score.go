package hunter

import "github.com/helixir/paper-retrieval-service/internal/domain"

// qualityScore computes the deterministic retrieval quality score in [0, 1].
// It weighs the confidence of the winning (or synthesized) full text,
// citation impact, metadata completeness, and whether a real document was
// obtained.
func qualityScore(acc *domain.PaperResult) float64 {
	score := acc.Confidence * 0.4

	citations := float64(acc.CitationCount) / 100
	if citations > 1 {
		citations = 1
	}
	score += citations * 0.2

	if acc.Abstract != "" {
		score += 0.1
	}
	if acc.TLDR != "" {
		score += 0.05
	}

	switch {
	case len(acc.CitationContexts) > 5:
		score += 0.1
	case len(acc.CitationContexts) > 0:
		score += 0.05
	}

	if !acc.IsVirtual() {
		score += 0.15
	}

	if score > 1 {
		score = 1
	}
	return score
}
