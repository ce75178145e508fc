package sciencedirect

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
	// DefaultBaseURL is the default ScienceDirect API base URL.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// DefaultRateLimit is the default rate limit (5 requests per second).
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// apiKeyHeader is the HTTP header name for the Elsevier API key.
	apiKeyHeader = "X-ELS-APIKey"

	// SourceName is the stable identifier for this source.
	SourceName = "sciencedirect"

	// FullTextConfidence is the trust placed in ScienceDirect full text.
	// The API serves the publisher's document of record inline.
	FullTextConfidence = 1.0
)

// Config holds configuration for the ScienceDirect client.
type Config struct {
	// BaseURL is the ScienceDirect API base URL.
	BaseURL string

	// APIKey is the Elsevier API key. Required; full-text entitlement is
	// determined by the institution behind the key.
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

// Client implements the papersources.Source interface for ScienceDirect.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new ScienceDirect client with the given configuration.
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

// NewWithHTTPClient creates a new ScienceDirect client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch retrieves an article by DOI. When the API key's institution is
// entitled, the response carries the article text inline.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/article/doi/" + id.Canonical

	query := url.Values{}
	query.Set("httpAccept", "application/json")
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
		return nil, domain.NewNotFoundError(SourceName, id.Canonical)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, string(body), domain.ClassifyStatus(resp.StatusCode))
	}

	// Full-text payloads can be large; allow up to 50MB.
	var retrieval RetrievalResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 50<<20)).Decode(&retrieval); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toSourceResult(&retrieval.FullTextRetrieval), nil
}

// Name returns the stable identifier for this source.
func (c *Client) Name() string {
	return SourceName
}

// Accepts reports which identifier kinds this source serves. The article
// retrieval endpoint is DOI-only.
func (c *Client) Accepts(kind domain.IdentifierKind) bool {
	return kind == domain.IdentifierDOI
}

// Enabled returns whether this source is enabled.
// ScienceDirect requires an API key, so it returns false if the key is empty.
func (c *Client) Enabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// toSourceResult converts a full-text retrieval payload to a source result.
func (c *Client) toSourceResult(retrieval *FullTextRetrieval) *domain.SourceResult {
	core := retrieval.CoreData

	result := &domain.SourceResult{
		Source:     SourceName,
		Title:      strings.TrimSpace(core.Title),
		Abstract:   strings.TrimSpace(core.Description),
		DOI:        strings.ToLower(strings.TrimSpace(core.DOI)),
		Venue:      strings.TrimSpace(core.PublicationName),
		OpenAccess: core.OpenAccess == "1",
		FullText:   strings.TrimSpace(retrieval.OriginalText),
	}
	if result.FullText != "" {
		result.Confidence = FullTextConfidence
	}

	if core.CoverDate != "" {
		if t, err := time.Parse("2006-01-02", core.CoverDate); err == nil {
			result.Year = t.Year()
		}
	}

	result.Authors = make([]domain.Author, 0, len(core.Creators))
	for _, creator := range core.Creators {
		name := flipName(creator.Name)
		if name == "" {
			continue
		}
		result.Authors = append(result.Authors, domain.Author{Name: name})
	}

	return result
}

// flipName converts Elsevier's "Surname, Given" form to "Given Surname".
func flipName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	parts := strings.SplitN(name, ",", 2)
	if len(parts) != 2 {
		return name
	}
	return strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
}
