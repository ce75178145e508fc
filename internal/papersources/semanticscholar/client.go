package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRecsBaseURL is the default base URL for the recommendations API.
	DefaultRecsBaseURL = "https://api.semanticscholar.org/recommendations/v1"

	// DefaultRateLimit is the default rate limit for unauthenticated requests.
	// With an API key, this can be increased.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of fields requested for a paper lookup.
	// Citations are requested with contexts so a single call covers both
	// metadata and synthesis inputs.
	paperFields = "paperId,externalIds,title,abstract,year,venue,authors,citationCount,isOpenAccess,openAccessPdf,tldr,citations.title,citations.year,citations.contexts,references.title,references.year,references.citationCount"

	// recommendationLimit bounds the related-paper lookup.
	recommendationLimit = 5

	// SourceName is the stable identifier for this source.
	SourceName = "semanticscholar"

	// FullTextConfidence is the trust placed in Semantic Scholar's
	// openAccessPdf links, which point at the hosted document directly.
	FullTextConfidence = 1.0
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the Graph API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// RecsBaseURL is the base URL for the recommendations API.
	// Defaults to DefaultRecsBaseURL if empty.
	RecsBaseURL string

	// APIKey is the optional API key for authenticated requests.
	// Authenticated requests have higher rate limits.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the papersources.Source interface for Semantic Scholar.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time check that Client implements papersources.Source.
var _ papersources.Source = (*Client)(nil)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RecsBaseURL == "" {
		cfg.RecsBaseURL = DefaultRecsBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Source:       SourceName,
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Fetch looks up a paper by identifier. Titles go through the search
// endpoint; everything else uses the paper endpoint with a prefixed ID.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	var record *PaperRecord
	var err error

	if id.Kind == domain.IdentifierTitle {
		record, err = c.searchByTitle(ctx, id.Canonical)
	} else {
		record, err = c.getPaper(ctx, apiPaperID(id))
	}
	if err != nil {
		return nil, err
	}

	result := c.toSourceResult(record)

	// Recommendations ride along when available; a failure here never
	// fails the fetch.
	if record.PaperID != "" {
		if related, recErr := c.fetchRecommendations(ctx, record.PaperID); recErr == nil {
			result.RelatedPapers = related
		}
	}

	return result, nil
}

// Name returns the stable identifier for this source.
func (c *Client) Name() string {
	return SourceName
}

// Accepts reports which identifier kinds this source serves. Semantic
// Scholar handles all of them.
func (c *Client) Accepts(kind domain.IdentifierKind) bool {
	return true
}

// Enabled returns whether this source is currently enabled.
func (c *Client) Enabled() bool {
	return c.config.Enabled
}

// apiPaperID converts a classified identifier to the Graph API paper ID form.
func apiPaperID(id domain.PaperIdentifier) string {
	switch id.Kind {
	case domain.IdentifierDOI:
		return "DOI:" + id.Canonical
	case domain.IdentifierPreprint:
		return "arXiv:" + id.Canonical
	case domain.IdentifierPMID:
		return "PMID:" + id.Canonical
	default:
		return id.Canonical
	}
}

// getPaper retrieves a paper record from the Graph API paper endpoint.
func (c *Client) getPaper(ctx context.Context, paperID string) (*PaperRecord, error) {
	paperURL := fmt.Sprintf("%s/paper/%s?fields=%s", c.config.BaseURL, url.PathEscape(paperID), url.QueryEscape(paperFields))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, paperURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError(SourceName, paperID)
	}
	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var record PaperRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &record, nil
}

// searchByTitle resolves a title query to the best-matching paper record.
func (c *Client) searchByTitle(ctx context.Context, title string) (*PaperRecord, error) {
	searchURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	searchURL = searchURL.JoinPath("paper", "search")

	q := searchURL.Query()
	q.Set("query", title)
	q.Set("fields", paperFields)
	q.Set("limit", "1")
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(searchResp.Data) == 0 {
		return nil, domain.NewNotFoundError(SourceName, title)
	}
	return &searchResp.Data[0], nil
}

// fetchRecommendations retrieves related papers for a known paper ID.
func (c *Client) fetchRecommendations(ctx context.Context, paperID string) ([]domain.RelatedPaper, error) {
	recURL := fmt.Sprintf("%s/papers/forpaper/%s?fields=title,year,externalIds,citationCount&limit=%d",
		c.config.RecsBaseURL, url.PathEscape(paperID), recommendationLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, "recommendations unavailable", domain.ClassifyStatus(resp.StatusCode))
	}

	var recResp RecommendationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&recResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	related := make([]domain.RelatedPaper, 0, len(recResp.RecommendedPapers))
	for _, rec := range recResp.RecommendedPapers {
		if rec.Title == "" {
			continue
		}
		rp := domain.RelatedPaper{
			Title:         rec.Title,
			Year:          rec.Year,
			CitationCount: rec.CitationCount,
		}
		if rec.ExternalIDs != nil {
			rp.DOI = rec.ExternalIDs.DOI
		}
		related = append(related, rp)
	}
	return related, nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read the error body (limit to 1MB to prevent resource exhaustion).
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(SourceName, resp.StatusCode, "failed to read error response", domain.ClassifyStatus(resp.StatusCode))
	}

	message := string(body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			message = errResp.Error
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	}

	return domain.NewExternalAPIError(SourceName, resp.StatusCode, message, domain.ClassifyStatus(resp.StatusCode))
}

// toSourceResult converts an API paper record to a source result.
func (c *Client) toSourceResult(record *PaperRecord) *domain.SourceResult {
	result := &domain.SourceResult{
		Source:        SourceName,
		Title:         record.Title,
		Abstract:      record.Abstract,
		Year:          record.Year,
		Venue:         record.Venue,
		CitationCount: record.CitationCount,
		OpenAccess:    record.IsOpenAccess,
	}

	if record.ExternalIDs != nil {
		result.DOI = record.ExternalIDs.DOI
		result.PreprintID = record.ExternalIDs.ArXiv
		result.PMID = record.ExternalIDs.PubMed
	}

	if record.TLDR != nil {
		result.TLDR = record.TLDR.Text
	}

	if record.OpenAccessPDF != nil && record.OpenAccessPDF.URL != "" {
		result.PDFURL = record.OpenAccessPDF.URL
		result.Confidence = FullTextConfidence
	}

	result.Authors = make([]domain.Author, 0, len(record.Authors))
	for _, a := range record.Authors {
		result.Authors = append(result.Authors, domain.Author{Name: a.Name})
	}

	for _, citation := range record.Citations {
		for _, snippet := range citation.Contexts {
			result.CitationContexts = append(result.CitationContexts, domain.CitationContext{
				CitingTitle: citation.Title,
				CitingYear:  citation.Year,
				Snippet:     snippet,
			})
		}
	}

	for _, ref := range record.References {
		if ref.Title == "" {
			continue
		}
		rp := domain.RelatedPaper{
			Title:         ref.Title,
			Year:          ref.Year,
			CitationCount: ref.CitationCount,
		}
		if ref.ExternalIDs != nil {
			rp.DOI = ref.ExternalIDs.DOI
		}
		result.KeyReferences = append(result.KeyReferences, rp)
	}

	return result
}
