package unpaywall

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
	// DefaultBaseURL is the default Unpaywall API base URL.
	DefaultBaseURL = "https://api.unpaywall.org/v2"

	// DefaultRateLimit is the default rate limit. Unpaywall asks for at
	// most 100k calls per day; 10/s keeps bursts polite.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// SourceName is the stable identifier for this source.
	SourceName = "unpaywall"

	// FullTextConfidence is the trust placed in Unpaywall PDF links.
	// Unpaywall indexes the publisher-declared open-access location.
	FullTextConfidence = 1.0
)

// Config holds configuration for the Unpaywall client.
type Config struct {
	// BaseURL is the Unpaywall API base URL.
	BaseURL string

	// Email is the contact email. Unpaywall requires it on every request.
	Email string

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

// Client implements the papersources.Source interface for Unpaywall.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new Unpaywall client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    SourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "Helixir-PaperRetrieval/1.0 (mailto:" + cfg.Email + ")",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Unpaywall client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch resolves a DOI to its best open-access PDF location.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/" + id.Canonical

	query := url.Values{}
	query.Set("email", c.config.Email)
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

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError(SourceName, id.Canonical)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, string(body), domain.ClassifyStatus(resp.StatusCode))
	}

	var upResp Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&upResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toSourceResult(&upResp), nil
}

// Name returns the stable identifier for this source.
func (c *Client) Name() string {
	return SourceName
}

// Accepts reports which identifier kinds this source serves. Unpaywall is
// keyed by DOI exclusively.
func (c *Client) Accepts(kind domain.IdentifierKind) bool {
	return kind == domain.IdentifierDOI
}

// Enabled returns whether this source is enabled. Unpaywall requires a
// contact email on every call.
func (c *Client) Enabled() bool {
	return c.config.Enabled && c.config.Email != ""
}

// toSourceResult converts an Unpaywall response to a source result.
func (c *Client) toSourceResult(upResp *Response) *domain.SourceResult {
	result := &domain.SourceResult{
		Source:     SourceName,
		Title:      strings.TrimSpace(upResp.Title),
		Year:       upResp.Year,
		Venue:      strings.TrimSpace(upResp.JournalName),
		DOI:        strings.ToLower(strings.TrimSpace(upResp.DOI)),
		OpenAccess: upResp.IsOA,
	}

	result.Authors = make([]domain.Author, 0, len(upResp.ZAuthors))
	for _, a := range upResp.ZAuthors {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name == "" {
			continue
		}
		result.Authors = append(result.Authors, domain.Author{Name: name})
	}

	if result.PDFURL = bestPDFURL(upResp); result.PDFURL != "" {
		result.Confidence = FullTextConfidence
	}

	return result
}

// bestPDFURL picks the best available PDF link, preferring the best_oa
// location and falling back to any location with a direct PDF URL.
func bestPDFURL(upResp *Response) string {
	if loc := upResp.BestOALocation; loc != nil {
		if loc.URLForPDF != "" {
			return loc.URLForPDF
		}
		if loc.URL != "" {
			return loc.URL
		}
	}
	for _, loc := range upResp.OALocations {
		if loc.URLForPDF != "" {
			return loc.URLForPDF
		}
	}
	return ""
}
