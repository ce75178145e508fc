package scopus

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
	// DefaultBaseURL is the default Scopus API base URL.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// DefaultRateLimit is the default rate limit (5 requests per second).
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// apiKeyHeader is the HTTP header name for the Scopus API key.
	apiKeyHeader = "X-ELS-APIKey"

	// SourceName is the stable identifier for this source.
	SourceName = "scopus"
)

// Config holds configuration for the Scopus client.
type Config struct {
	// BaseURL is the Scopus API base URL.
	BaseURL string

	// APIKey is the Elsevier API key for authentication.
	// Required for all Scopus API requests.
	APIKey string

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

// Client implements the papersources.Source interface for Scopus.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new Scopus client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:       SourceName,
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		UserAgent:    "Helixir-PaperRetrieval/1.0",
		APIKey:       cfg.APIKey,
		APIKeyHeader: apiKeyHeader,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Scopus client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch retrieves paper metadata by DOI or title via the Scopus search API.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}

	var scopusQuery string
	if id.Kind == domain.IdentifierDOI {
		scopusQuery = fmt.Sprintf("DOI(%s)", id.Canonical)
	} else {
		scopusQuery = fmt.Sprintf("TITLE(%s)", strings.ReplaceAll(id.Canonical, ")", ""))
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/search/scopus"

	query := url.Values{}
	query.Set("query", scopusQuery)
	query.Set("view", "COMPLETE")
	query.Set("count", "1")
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError(SourceName, id.String())
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, string(body), domain.ClassifyStatus(resp.StatusCode))
	}

	// Parse the JSON response (limit body to 10MB).
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(searchResp.SearchResults.Entries) == 0 {
		return nil, domain.NewNotFoundError(SourceName, id.String())
	}

	entry := &searchResp.SearchResults.Entries[0]
	// Scopus returns a single placeholder entry with an error field when
	// the query has no hits.
	if entry.Title == "" && entry.DOI == "" {
		return nil, domain.NewNotFoundError(SourceName, id.String())
	}

	return c.entryToResult(entry), nil
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
// Scopus requires an API key, so it returns false if the key is empty.
func (c *Client) Enabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// entryToResult converts a Scopus entry to a source result.
func (c *Client) entryToResult(entry *Entry) *domain.SourceResult {
	result := &domain.SourceResult{
		Source:     SourceName,
		Title:      strings.TrimSpace(entry.Title),
		Abstract:   strings.TrimSpace(entry.Description),
		DOI:        strings.ToLower(strings.TrimSpace(entry.DOI)),
		PMID:       strings.TrimSpace(entry.PubMedID),
		Venue:      strings.TrimSpace(entry.PublicationName),
		OpenAccess: entry.OpenAccessFlag,
	}

	if entry.CoverDate != "" {
		if t, err := time.Parse("2006-01-02", entry.CoverDate); err == nil {
			result.Year = t.Year()
		}
	}

	result.CitationCount, _ = strconv.Atoi(entry.CitedByCount)
	result.Authors = c.extractAuthors(entry)

	return result
}

// extractAuthors extracts authors from the Scopus entry.
// Uses the COMPLETE view author list when available, otherwise falls back to dc:creator.
func (c *Client) extractAuthors(entry *Entry) []domain.Author {
	if entry.Authors != nil && len(entry.Authors.Authors) > 0 {
		authors := make([]domain.Author, 0, len(entry.Authors.Authors))
		for _, sa := range entry.Authors.Authors {
			name := strings.TrimSpace(sa.Name)
			if name == "" {
				// Build name from parts
				if sa.GivenName != "" && sa.Surname != "" {
					name = sa.GivenName + " " + sa.Surname
				} else if sa.Surname != "" {
					name = sa.Surname
				}
			}
			if name == "" {
				continue
			}
			authors = append(authors, domain.Author{
				Name:  name,
				ORCID: strings.TrimSpace(sa.ORCID),
			})
		}
		return authors
	}

	// Fallback to dc:creator (first author only)
	if creator := strings.TrimSpace(entry.Creator); creator != "" {
		return []domain.Author{{Name: creator}}
	}

	return nil
}
