// Package crossref provides a client for the Crossref REST API.
//
// Crossref is the DOI registration agency for most scholarly publishers, so
// it is the authority for DOI metadata. Its link and license fields
// occasionally point at publisher-hosted PDFs.
//
// API Documentation: https://api.crossref.org
package crossref

// WorkResponse wraps a single-work lookup.
type WorkResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// SearchResponse wraps a works search.
type SearchResponse struct {
	Status  string        `json:"status"`
	Message SearchMessage `json:"message"`
}

// SearchMessage holds the items of a works search.
type SearchMessage struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// Work represents a registered work in the Crossref API.
type Work struct {
	DOI            string    `json:"DOI"`
	Title          []string  `json:"title"`
	ContainerTitle []string  `json:"container-title"`
	Author         []Author  `json:"author"`
	Issued         DateParts `json:"issued"`
	ReferencedBy   int       `json:"is-referenced-by-count"`
	Abstract       string    `json:"abstract"` // JATS XML fragments
	Link           []Link    `json:"link"`
	License        []License `json:"license"`
}

// Author is a Crossref author entry.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	ORCID  string `json:"ORCID"`
}

// DateParts is Crossref's date representation: [[year, month, day]].
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or zero when absent.
func (d DateParts) Year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}

// Link is a full-text link advertised by the publisher.
type Link struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
	Application string `json:"intended-application"`
}

// License describes a content license attached to the work.
type License struct {
	URL string `json:"URL"`
}
