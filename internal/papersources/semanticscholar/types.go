// Package semanticscholar provides a client for the Semantic Scholar API.
//
// Semantic Scholar is a free, AI-powered research tool for scientific
// literature. It serves every identifier kind and is the only source that
// supplies TL;DR summaries, citation contexts, and recommendation data, which
// makes it the backbone of virtual full-text synthesis.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// SearchResponse represents the response from the paper search endpoint.
type SearchResponse struct {
	// Total is the total number of papers matching the query.
	Total int `json:"total"`

	// Data contains the list of papers returned by the search.
	Data []PaperRecord `json:"data"`
}

// PaperRecord represents a single paper in the Semantic Scholar API response.
type PaperRecord struct {
	// PaperID is the Semantic Scholar unique identifier for the paper.
	PaperID string `json:"paperId"`

	// Title is the title of the paper.
	Title string `json:"title"`

	// Abstract is the paper's abstract text.
	Abstract string `json:"abstract"`

	// Year is the publication year.
	Year int `json:"year"`

	// Venue is the publication venue (conference, journal name, etc.).
	Venue string `json:"venue"`

	// Authors is the list of paper authors.
	Authors []Author `json:"authors"`

	// CitationCount is the number of citations this paper has received.
	CitationCount int `json:"citationCount"`

	// IsOpenAccess indicates whether the paper is open access.
	IsOpenAccess bool `json:"isOpenAccess"`

	// OpenAccessPDF contains information about the open access PDF if available.
	OpenAccessPDF *OpenAccessPDF `json:"openAccessPdf,omitempty"`

	// ExternalIDs contains external identifiers for the paper (DOI, ArXiv, etc.).
	ExternalIDs *ExternalIDs `json:"externalIds,omitempty"`

	// TLDR is the machine-generated one-sentence summary.
	TLDR *TLDR `json:"tldr,omitempty"`

	// Citations lists citing papers, including citation context snippets.
	Citations []Citation `json:"citations,omitempty"`

	// References lists papers this paper cites.
	References []Reference `json:"references,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	// DOI is the Digital Object Identifier.
	DOI string `json:"DOI,omitempty"`

	// ArXiv is the arXiv identifier.
	ArXiv string `json:"ArXiv,omitempty"`

	// PubMed is the PubMed identifier.
	PubMed string `json:"PubMed,omitempty"`
}

// Author represents a paper author in the Semantic Scholar API.
type Author struct {
	// AuthorID is the Semantic Scholar unique identifier for the author.
	AuthorID string `json:"authorId,omitempty"`

	// Name is the author's name.
	Name string `json:"name"`
}

// OpenAccessPDF contains information about an open access PDF.
type OpenAccessPDF struct {
	// URL is the direct URL to the PDF.
	URL string `json:"url,omitempty"`

	// Status indicates the open access status (e.g., "HYBRID", "GOLD", "GREEN").
	Status string `json:"status,omitempty"`
}

// TLDR is the machine-generated summary attached to a paper.
type TLDR struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Citation is a citing paper, optionally with context snippets.
type Citation struct {
	Title    string   `json:"title,omitempty"`
	Year     int      `json:"year,omitempty"`
	Contexts []string `json:"contexts,omitempty"`
}

// Reference is a cited paper.
type Reference struct {
	Title         string       `json:"title,omitempty"`
	Year          int          `json:"year,omitempty"`
	CitationCount int          `json:"citationCount,omitempty"`
	ExternalIDs   *ExternalIDs `json:"externalIds,omitempty"`
}

// RecommendationResponse is the response from the recommendations endpoint.
type RecommendationResponse struct {
	RecommendedPapers []PaperRecord `json:"recommendedPapers"`
}

// ErrorResponse represents an error response from the Semantic Scholar API.
type ErrorResponse struct {
	// Error is the error message from the API.
	Error string `json:"error,omitempty"`

	// Message is an alternative error message field.
	Message string `json:"message,omitempty"`
}
