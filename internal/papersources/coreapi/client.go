package coreapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default CORE v3 API base URL.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultRateLimit is the default rate limit. CORE's free tier allows
	// 10 requests per minute, so the sustained rate stays well below 1/s.
	DefaultRateLimit = 0.15

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// SourceName is the stable identifier for this source.
	SourceName = "coreapi"

	// FullTextConfidence is the trust placed in CORE documents. CORE
	// aggregates repository deposits, which occasionally lag the
	// published version.
	FullTextConfidence = 0.95
)

// Config holds configuration for the CORE client.
type Config struct {
	// BaseURL is the CORE API base URL.
	BaseURL string

	// APIKey is the CORE API key, sent as a Bearer token.
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

// Client implements the papersources.Source interface for CORE.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new CORE client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:       SourceName,
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		UserAgent:    "Helixir-PaperRetrieval/1.0",
		APIKey:       "Bearer " + cfg.APIKey,
		APIKeyHeader: "Authorization",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new CORE client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch looks up a work by DOI or title through the works search endpoint.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}

	var coreQuery string
	if id.Kind == domain.IdentifierDOI {
		coreQuery = fmt.Sprintf(`doi:"%s"`, id.Canonical)
	} else {
		coreQuery = fmt.Sprintf(`title:"%s"`, strings.ReplaceAll(id.Canonical, `"`, ""))
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/search/works"

	query := url.Values{}
	query.Set("q", coreQuery)
	query.Set("limit", "1")
	baseURL.RawQuery = query.Encode()

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

	// Full-text payloads can be large; allow up to 50MB.
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 50<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(searchResp.Results) == 0 {
		return nil, domain.NewNotFoundError(SourceName, id.String())
	}

	return c.workToResult(&searchResp.Results[0]), nil
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
// CORE requires an API key, so it returns false if the key is empty.
func (c *Client) Enabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// workToResult converts a CORE work to a source result.
func (c *Client) workToResult(work *Work) *domain.SourceResult {
	result := &domain.SourceResult{
		Source:        SourceName,
		Title:         strings.TrimSpace(work.Title),
		Abstract:      strings.TrimSpace(work.Abstract),
		DOI:           strings.ToLower(strings.TrimSpace(work.DOI)),
		Year:          work.YearPublished,
		Venue:         strings.TrimSpace(work.Publisher),
		CitationCount: work.CitationCount,
		FullText:      strings.TrimSpace(work.FullText),
		PDFURL:        strings.TrimSpace(work.DownloadURL),
	}

	// Everything CORE indexes is open access by construction.
	result.OpenAccess = result.FullText != "" || result.PDFURL != ""
	if result.OpenAccess {
		result.Confidence = FullTextConfidence
	}

	result.Authors = make([]domain.Author, 0, len(work.Authors))
	for _, a := range work.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		result.Authors = append(result.Authors, domain.Author{Name: name})
	}

	return result
}
