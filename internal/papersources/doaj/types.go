// Package doaj provides a client for the Directory of Open Access Journals API.
//
// DOAJ indexes peer-reviewed open-access journal articles. Every article it
// returns has at least one full-text link by the directory's admission
// criteria.
//
// API Documentation: https://doaj.org/api/docs
package doaj

// SearchResponse is the DOAJ article search response.
type SearchResponse struct {
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// Result wraps a single article hit.
type Result struct {
	ID      string  `json:"id"`
	BibJSON BibJSON `json:"bibjson"`
}

// BibJSON is DOAJ's bibliographic record format.
type BibJSON struct {
	Title      string       `json:"title"`
	Abstract   string       `json:"abstract"`
	Year       string       `json:"year"`
	Journal    Journal      `json:"journal"`
	Author     []Author     `json:"author"`
	Link       []Link       `json:"link"`
	Identifier []Identifier `json:"identifier"`
}

// Journal holds the publishing journal's details.
type Journal struct {
	Title     string   `json:"title"`
	Publisher string   `json:"publisher"`
	Language  []string `json:"language"`
}

// Author is an article author entry.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	ORCID       string `json:"orcid_id"`
}

// Link is a full-text link attached to the article.
type Link struct {
	Type        string `json:"type"` // "fulltext"
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// Identifier is an external identifier attached to the article.
type Identifier struct {
	Type string `json:"type"` // "doi", "pissn", "eissn"
	ID   string `json:"id"`
}
