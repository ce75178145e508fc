package doaj

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default DOAJ API base URL.
	DefaultBaseURL = "https://doaj.org/api"

	// DefaultRateLimit is the default rate limit (requests per second).
	// DOAJ asks anonymous clients to stay under 2 req/s.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// SourceName is the stable identifier for this source.
	SourceName = "doaj"

	// FullTextConfidence is the trust placed in DOAJ fulltext links,
	// which sometimes point at a landing page rather than the document.
	FullTextConfidence = 0.9
)

// Config holds configuration for the DOAJ client.
type Config struct {
	// BaseURL is the DOAJ API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements the papersources.Source interface for DOAJ.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new DOAJ client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    SourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new DOAJ client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch looks up an open-access journal article by DOI or title.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}

	var query string
	if id.Kind == domain.IdentifierDOI {
		query = fmt.Sprintf("doi:%q", id.Canonical)
	} else {
		query = fmt.Sprintf("title:%q", id.Canonical)
	}

	article, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, domain.NewNotFoundError(SourceName, id.Canonical)
	}

	return c.articleToResult(article), nil
}

// Name returns the stable identifier for this source.
func (c *Client) Name() string {
	return SourceName
}

// Accepts reports which identifier kinds this source serves.
func (c *Client) Accepts(kind domain.IdentifierKind) bool {
	return kind == domain.IdentifierDOI || kind == domain.IdentifierTitle
}

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool {
	return c.config.Enabled
}

// search runs an article search and returns the top hit, or nil when the
// query matched nothing.
func (c *Client) search(ctx context.Context, query string) (*Result, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path += "/search/articles/" + url.PathEscape(query)

	params := url.Values{}
	params.Set("pageSize", "1")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, string(body), domain.ClassifyStatus(resp.StatusCode))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(searchResp.Results) == 0 {
		return nil, nil
	}
	return &searchResp.Results[0], nil
}

// articleToResult converts a DOAJ article to a source result.
func (c *Client) articleToResult(article *Result) *domain.SourceResult {
	bib := article.BibJSON

	result := &domain.SourceResult{
		Source:     SourceName,
		Title:      strings.TrimSpace(bib.Title),
		Abstract:   strings.TrimSpace(bib.Abstract),
		Venue:      strings.TrimSpace(bib.Journal.Title),
		OpenAccess: true, // everything DOAJ indexes is open access
	}

	if year, err := strconv.Atoi(bib.Year); err == nil {
		result.Year = year
	}

	result.Authors = make([]domain.Author, 0, len(bib.Author))
	for _, a := range bib.Author {
		if a.Name == "" {
			continue
		}
		result.Authors = append(result.Authors, domain.Author{
			Name:        a.Name,
			Affiliation: a.Affiliation,
			ORCID:       strings.TrimPrefix(a.ORCID, "https://orcid.org/"),
		})
	}

	for _, ident := range bib.Identifier {
		if strings.EqualFold(ident.Type, "doi") {
			result.DOI = strings.ToLower(strings.TrimSpace(ident.ID))
			break
		}
	}

	for _, link := range bib.Link {
		if link.Type == "fulltext" && link.URL != "" {
			result.PDFURL = link.URL
			result.Confidence = FullTextConfidence
			break
		}
	}

	return result
}
