package hunter

import (
	"fmt"
	"strings"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

const (
	// maxContextSnippets bounds the citation-context section.
	maxContextSnippets = 15

	// maxRelatedPapers bounds the related-papers section.
	maxRelatedPapers = 5

	// maxKeyReferences bounds the key-references section.
	maxKeyReferences = 8

	// synthesisBaseConfidence is the floor for a synthesized document.
	synthesisBaseConfidence = 0.5

	// synthesisMaxConfidence caps synthesis confidence; a virtual document
	// is never as trustworthy as a retrieved one.
	synthesisMaxConfidence = 0.85
)

// synthesize assembles a virtual full-text document from accumulated
// metadata. Assembly is pure template work in a fixed section order, so
// identical input always yields an identical document. Returns the document
// and its synthesis confidence.
func synthesize(acc *domain.PaperResult) (string, float64) {
	if acc.TLDR == "" && acc.Abstract == "" &&
		len(acc.CitationContexts) == 0 && len(acc.RelatedPapers) == 0 &&
		len(acc.KeyReferences) == 0 {
		return "## NO METADATA AVAILABLE\n\nNo metadata could be retrieved for this identifier from any configured source.\n", synthesisBaseConfidence
	}

	var sb strings.Builder
	confidence := synthesisBaseConfidence

	if acc.TLDR != "" {
		sb.WriteString("## TL;DR\n\n")
		sb.WriteString(acc.TLDR)
		sb.WriteString("\n\n")
		confidence += 0.1
	}

	if acc.Abstract != "" {
		sb.WriteString("## ABSTRACT\n\n")
		sb.WriteString(acc.Abstract)
		sb.WriteString("\n\n")
		confidence += 0.1
	}

	if len(acc.CitationContexts) > 0 {
		contexts := acc.CitationContexts
		if len(contexts) > maxContextSnippets {
			contexts = contexts[:maxContextSnippets]
		}
		sb.WriteString("## CITATION CONTEXTS\n\n")
		for i, cc := range contexts {
			fmt.Fprintf(&sb, "%d. %q", i+1, cc.Snippet)
			if cc.CitingTitle != "" {
				if cc.CitingYear > 0 {
					fmt.Fprintf(&sb, " (cited in: %s, %d)", cc.CitingTitle, cc.CitingYear)
				} else {
					fmt.Fprintf(&sb, " (cited in: %s)", cc.CitingTitle)
				}
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		confidence += min(0.2, 0.02*float64(len(acc.CitationContexts)))
	}

	if len(acc.RelatedPapers) > 0 {
		related := acc.RelatedPapers
		if len(related) > maxRelatedPapers {
			related = related[:maxRelatedPapers]
		}
		sb.WriteString("## RELATED PAPERS\n\n")
		for _, rp := range related {
			writePaperLine(&sb, rp)
		}
		sb.WriteString("\n")
		confidence += 0.1
	}

	if len(acc.KeyReferences) > 0 {
		refs := acc.KeyReferences
		if len(refs) > maxKeyReferences {
			refs = refs[:maxKeyReferences]
		}
		sb.WriteString("## KEY REFERENCES\n\n")
		for _, rp := range refs {
			writePaperLine(&sb, rp)
		}
		sb.WriteString("\n")
	}

	if confidence > synthesisMaxConfidence {
		confidence = synthesisMaxConfidence
	}

	return sb.String(), confidence
}

// writePaperLine formats one related-paper or reference bullet.
func writePaperLine(sb *strings.Builder, rp domain.RelatedPaper) {
	sb.WriteString("- ")
	sb.WriteString(rp.Title)
	if rp.Year > 0 {
		fmt.Fprintf(sb, " (%d)", rp.Year)
	}
	sb.WriteString("\n")
}
