package hunter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name     string
		result   *domain.PaperResult
		expected float64
	}{
		{
			name: "empty virtual shell",
			result: &domain.PaperResult{
				FullTextSource: domain.FullTextSourceVirtual,
				Confidence:     0.5,
			},
			expected: 0.2,
		},
		{
			name: "real full text with everything",
			result: &domain.PaperResult{
				FullTextSource: "semanticscholar",
				Confidence:     1.0,
				CitationCount:  100,
				Abstract:       "a",
				TLDR:           "t",
				CitationContexts: []domain.CitationContext{
					{}, {}, {}, {}, {}, {},
				},
			},
			expected: 1.0,
		},
		{
			name: "virtual with rich metadata",
			result: &domain.PaperResult{
				FullTextSource:   domain.FullTextSourceVirtual,
				Confidence:       0.85,
				CitationCount:    50,
				Abstract:         "a",
				CitationContexts: []domain.CitationContext{{}},
			},
			expected: 0.85*0.4 + 0.5*0.2 + 0.1 + 0.05,
		},
		{
			name: "real full text bonus",
			result: &domain.PaperResult{
				FullTextSource: "unpaywall",
				Confidence:     1.0,
			},
			expected: 0.4 + 0.15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, qualityScore(tt.result), 1e-9)
		})
	}
}

func TestQualityScoreCitationImpactCapped(t *testing.T) {
	low := qualityScore(&domain.PaperResult{FullTextSource: "crossref", Confidence: 1, CitationCount: 100})
	high := qualityScore(&domain.PaperResult{FullTextSource: "crossref", Confidence: 1, CitationCount: 100000})
	assert.Equal(t, low, high, "citation impact saturates at 100 citations")
}

func TestQualityScoreDeterministic(t *testing.T) {
	result := &domain.PaperResult{
		FullTextSource: "openalex",
		Confidence:     1.0,
		CitationCount:  37,
		Abstract:       "a",
	}
	assert.Equal(t, qualityScore(result), qualityScore(result))
}
