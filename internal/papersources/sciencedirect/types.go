// Package sciencedirect provides a client for the Elsevier ScienceDirect
// Article Retrieval API.
//
// ScienceDirect can return the actual article text for institutions with an
// entitlement, which makes it one of the few sources that satisfies a hunt
// with inline full text rather than a PDF link.
//
// API Documentation: https://dev.elsevier.com/documentation/ArticleRetrievalAPI
package sciencedirect

// RetrievalResponse is the top-level article retrieval response.
type RetrievalResponse struct {
	FullTextRetrieval FullTextRetrieval `json:"full-text-retrieval-response"`
}

// FullTextRetrieval contains article metadata and, when entitled, the text.
type FullTextRetrieval struct {
	CoreData CoreData `json:"coredata"`

	// OriginalText holds the article body when the API key's institution
	// is entitled to the article. Absent otherwise.
	OriginalText string `json:"originalText,omitempty"`
}

// CoreData contains the Dublin Core metadata for the article.
type CoreData struct {
	DOI             string    `json:"prism:doi"`
	Title           string    `json:"dc:title"`
	Description     string    `json:"dc:description"` // abstract
	PublicationName string    `json:"prism:publicationName"`
	CoverDate       string    `json:"prism:coverDate"` // "2024-01-15"
	OpenAccess      string    `json:"openaccess"`      // "0" or "1"
	Creators        []Creator `json:"dc:creator"`
}

// Creator is a single author entry in coredata.
type Creator struct {
	Name string `json:"$"` // "Surname, Given"
}
