// Package unpaywall provides a client for the Unpaywall API.
//
// Unpaywall tracks open-access availability for DOI-registered papers. It is
// a pure PDF-resolution source: it contributes little metadata but often
// turns a paywalled DOI into a legal open-access PDF link.
//
// API Documentation: https://unpaywall.org/products/api
package unpaywall

// Response is the Unpaywall DOI lookup response.
type Response struct {
	DOI            string       `json:"doi"`
	Title          string       `json:"title"`
	Year           int          `json:"year"`
	JournalName    string       `json:"journal_name"`
	IsOA           bool         `json:"is_oa"`
	BestOALocation *OALocation  `json:"best_oa_location"`
	OALocations    []OALocation `json:"oa_locations"`
	ZAuthors       []ZAuthor    `json:"z_authors"`
}

// OALocation describes one place an open-access copy is hosted.
type OALocation struct {
	URL       string `json:"url"`
	URLForPDF string `json:"url_for_pdf"`
	HostType  string `json:"host_type"` // "publisher" or "repository"
	Version   string `json:"version"`
	License   string `json:"license"`
}

// ZAuthor is a Crossref-style author entry.
type ZAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}
