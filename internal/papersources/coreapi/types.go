// Package coreapi provides a client for the CORE v3 API.
//
// CORE aggregates open-access research papers from repositories worldwide.
// Besides metadata it often carries a download URL and sometimes the
// extracted full text of a paper.
//
// API Documentation: https://api.core.ac.uk/docs/v3
package coreapi

// SearchResponse is the CORE v3 works search response.
type SearchResponse struct {
	TotalHits int    `json:"totalHits"`
	Results   []Work `json:"results"`
}

// Work represents a single work in the CORE search results.
type Work struct {
	ID            int64    `json:"id"`
	DOI           string   `json:"doi"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	YearPublished int      `json:"yearPublished"`
	Publisher     string   `json:"publisher"`
	DownloadURL   string   `json:"downloadUrl"`
	FullText      string   `json:"fullText"`
	Authors       []Author `json:"authors"`
	CitationCount int      `json:"citationCount"`
}

// Author is a work author entry.
type Author struct {
	Name string `json:"name"`
}
