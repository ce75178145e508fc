package domain

import (
	"strings"
	"time"
)

// FullTextSourceVirtual is the full-text source label used when no real full
// text or PDF was obtained and the document was synthesized from metadata.
const FullTextSourceVirtual = "virtual_fulltext"

// Author represents a paper author with optional affiliation and ORCID.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)

	if a.Affiliation != "" {
		sb.WriteString(" (")
		sb.WriteString(a.Affiliation)
		sb.WriteString(")")
	}

	if a.ORCID != "" {
		sb.WriteString(" [")
		sb.WriteString(a.ORCID)
		sb.WriteString("]")
	}

	return sb.String()
}

// CitationContext is a snippet of text from a citing paper surrounding the
// citation of the hunted paper.
type CitationContext struct {
	CitingTitle string `json:"citing_title"`
	CitingYear  int    `json:"citing_year,omitempty"`
	Snippet     string `json:"snippet"`
}

// RelatedPaper is a recommendation or reference attached to the hunted paper.
type RelatedPaper struct {
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	DOI           string `json:"doi,omitempty"`
	CitationCount int    `json:"citation_count,omitempty"`
}

// SourceResult is what a single source client returns for one lookup. Zero
// values mean "this source does not know"; the coordinator merges fill-only,
// so a source never has to worry about clobbering earlier answers.
type SourceResult struct {
	Source string `json:"source"`

	Title    string   `json:"title,omitempty"`
	Authors  []Author `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Venue    string   `json:"venue,omitempty"`

	DOI        string `json:"doi,omitempty"`
	PreprintID string `json:"preprint_id,omitempty"`
	PMID       string `json:"pmid,omitempty"`

	CitationCount int `json:"citation_count,omitempty"`

	TLDR             string            `json:"tldr,omitempty"`
	CitationContexts []CitationContext `json:"citation_contexts,omitempty"`
	RelatedPapers    []RelatedPaper    `json:"related_papers,omitempty"`
	KeyReferences    []RelatedPaper    `json:"key_references,omitempty"`

	// FullText is the actual document text when the source returns it inline.
	FullText string `json:"full_text,omitempty"`

	// PDFURL is a candidate link to a PDF of the paper. The coordinator
	// treats a verified PDF link as full text for short-circuit purposes.
	PDFURL string `json:"pdf_url,omitempty"`

	// Confidence is the source's own trust in its full-text claim, in
	// (0, 1]. A publisher serving the document of record declares 1.0; a
	// source guessing a PDF path declares less. Zero means the source did
	// not declare one and the coordinator assumes 1.0.
	Confidence float64 `json:"confidence,omitempty"`

	OpenAccess bool `json:"open_access,omitempty"`
}

// HasFullText reports whether this result carries inline full text or a PDF
// candidate that can satisfy the hunt.
func (r *SourceResult) HasFullText() bool {
	return r.FullText != "" || r.PDFURL != ""
}

// PaperResult is the final outcome of a hunt: everything learned about the
// paper across the source walk, plus provenance and scoring.
type PaperResult struct {
	Identifier string         `json:"identifier"`
	Kind       IdentifierKind `json:"identifier_kind"`

	Title    string   `json:"title,omitempty"`
	Authors  []Author `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Venue    string   `json:"venue,omitempty"`

	DOI        string `json:"doi,omitempty"`
	PreprintID string `json:"preprint_id,omitempty"`
	PMID       string `json:"pmid,omitempty"`

	CitationCount int `json:"citation_count,omitempty"`

	TLDR             string            `json:"tldr,omitempty"`
	CitationContexts []CitationContext `json:"citation_contexts,omitempty"`
	RelatedPapers    []RelatedPaper    `json:"related_papers,omitempty"`
	KeyReferences    []RelatedPaper    `json:"key_references,omitempty"`

	FullText string `json:"full_text,omitempty"`
	PDFURL   string `json:"pdf_url,omitempty"`

	// FullTextSource names the source that won the full-text short-circuit,
	// or FullTextSourceVirtual when the text was synthesized.
	FullTextSource string `json:"full_text_source"`

	// Confidence reflects how the full text was obtained: the winning
	// source's declared confidence for a real document, the synthesis
	// formula otherwise.
	Confidence float64 `json:"confidence"`

	// QualityScore is the deterministic completeness score in [0, 1].
	QualityScore float64 `json:"quality_score"`

	SourcesTried []string      `json:"sources_tried,omitempty"`
	FromCache    bool          `json:"from_cache"`
	RetrievedAt  time.Time     `json:"retrieved_at"`
	HuntDuration time.Duration `json:"hunt_duration_ns"`
}

// IsVirtual reports whether the result's full text was synthesized rather
// than retrieved.
func (p *PaperResult) IsVirtual() bool {
	return p.FullTextSource == FullTextSourceVirtual
}

// HasMetadata reports whether the walk produced any real metadata at all.
// Used to decide between a populated synthesis and the empty placeholder.
func (p *PaperResult) HasMetadata() bool {
	return p.Title != "" || p.Abstract != "" || p.TLDR != "" ||
		len(p.CitationContexts) > 0 || len(p.RelatedPapers) > 0 ||
		len(p.KeyReferences) > 0
}
