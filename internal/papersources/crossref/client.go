package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default Crossref REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit. Crossref's polite pool
	// tolerates sustained traffic when a mailto is supplied.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// SourceName is the stable identifier for this source.
	SourceName = "crossref"

	// FullTextConfidence is the trust placed in Crossref link metadata.
	// Publisher-deposited links frequently sit behind a paywall.
	FullTextConfidence = 0.85
)

// jatsTagRegex strips JATS XML tags from Crossref abstract fragments.
var jatsTagRegex = regexp.MustCompile(`</?jats:[^>]+>|</?[a-zA-Z][^>]*>`)

// Config holds configuration for the Crossref client.
type Config struct {
	// BaseURL is the Crossref API base URL.
	BaseURL string

	// Email is the contact email for the polite pool.
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

// Client implements the papersources.Source interface for Crossref.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new Crossref client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	userAgent := "Helixir-PaperRetrieval/1.0"
	if cfg.Email != "" {
		userAgent += " (mailto:" + cfg.Email + ")"
	}

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    SourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: userAgent,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Crossref client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch retrieves DOI metadata or resolves a title to its registered work.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}

	var work *Work
	var err error
	if id.Kind == domain.IdentifierDOI {
		work, err = c.getWork(ctx, id.Canonical)
	} else {
		work, err = c.searchByTitle(ctx, id.Canonical)
	}
	if err != nil {
		return nil, err
	}

	return c.workToResult(work), nil
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

// getWork fetches a single work by DOI.
func (c *Client) getWork(ctx context.Context, doi string) (*Work, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works/" + doi

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
		return nil, domain.NewNotFoundError(SourceName, doi)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, string(body), domain.ClassifyStatus(resp.StatusCode))
	}

	var workResp WorkResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&workResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &workResp.Message, nil
}

// searchByTitle resolves a title to the best-matching registered work.
func (c *Client) searchByTitle(ctx context.Context, title string) (*Work, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works"

	query := url.Values{}
	query.Set("query.title", title)
	query.Set("rows", "1")
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
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

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(searchResp.Message.Items) == 0 {
		return nil, domain.NewNotFoundError(SourceName, title)
	}
	return &searchResp.Message.Items[0], nil
}

// workToResult converts a Crossref work to a source result.
func (c *Client) workToResult(work *Work) *domain.SourceResult {
	result := &domain.SourceResult{
		Source:        SourceName,
		DOI:           strings.ToLower(strings.TrimSpace(work.DOI)),
		Year:          work.Issued.Year(),
		CitationCount: work.ReferencedBy,
		Abstract:      stripJATS(work.Abstract),
	}

	if len(work.Title) > 0 {
		result.Title = strings.TrimSpace(work.Title[0])
	}
	if len(work.ContainerTitle) > 0 {
		result.Venue = strings.TrimSpace(work.ContainerTitle[0])
	}

	result.Authors = make([]domain.Author, 0, len(work.Author))
	for _, a := range work.Author {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name == "" {
			continue
		}
		result.Authors = append(result.Authors, domain.Author{
			Name:  name,
			ORCID: strings.TrimPrefix(a.ORCID, "http://orcid.org/"),
		})
	}

	// A publisher link with a PDF content type is only a hint; the
	// coordinator verifies it before treating it as full text.
	for _, link := range work.Link {
		if link.ContentType == "application/pdf" {
			result.PDFURL = link.URL
			result.Confidence = FullTextConfidence
			break
		}
	}

	return result
}

// stripJATS removes JATS XML tags from a Crossref abstract fragment.
func stripJATS(abstract string) string {
	if abstract == "" {
		return ""
	}
	cleaned := jatsTagRegex.ReplaceAllString(abstract, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}
