package biorxiv

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
	// DefaultBaseURL is the default Europe PMC API base URL. Europe PMC
	// indexes bioRxiv and medRxiv preprints and is friendlier to query than
	// the preprint servers themselves.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultRateLimit is the default rate limit (5 requests per second).
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// biorxivDOIPrefix is the Cold Spring Harbor DOI prefix shared by
	// bioRxiv and medRxiv preprints.
	biorxivDOIPrefix = "10.1101/"

	// SourceName is the stable identifier for this source.
	SourceName = "biorxiv"

	// FullTextConfidence is the trust placed in bioRxiv/medRxiv PDFs.
	// The URL is derived from the DOI rather than returned by the API.
	FullTextConfidence = 0.9
)

// Config holds configuration for the bioRxiv/medRxiv client.
type Config struct {
	// BaseURL is the Europe PMC API base URL.
	BaseURL string

	// Server is the preprint server name ("bioRxiv" or "medRxiv").
	// Used in the PUBLISHER filter for Europe PMC queries.
	Server string

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
	if c.Server == "" {
		c.Server = "bioRxiv"
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

// Client implements the papersources.Source interface for bioRxiv/medRxiv
// using the Europe PMC API as a proxy.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new bioRxiv/medRxiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    SourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "Helixir-PaperRetrieval/1.0",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new bioRxiv/medRxiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch retrieves a preprint by DOI or title. Only Cold Spring Harbor DOIs
// (10.1101/...) are served; anything else is skipped as not applicable.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}
	if id.Kind == domain.IdentifierDOI && !strings.HasPrefix(strings.ToLower(id.Canonical), biorxivDOIPrefix) {
		return nil, domain.ErrNotApplicable
	}

	var pmcQuery string
	if id.Kind == domain.IdentifierDOI {
		pmcQuery = fmt.Sprintf("DOI:%s AND (SRC:PPR)", id.Canonical)
	} else {
		pmcQuery = fmt.Sprintf(`TITLE:"%s" AND (SRC:PPR) AND (PUBLISHER:"%s")`,
			strings.ReplaceAll(id.Canonical, `"`, ""), c.config.Server)
	}

	article, err := c.search(ctx, pmcQuery)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, domain.NewNotFoundError(SourceName, id.String())
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

// search executes a Europe PMC query and returns the first hit, or nil when
// there are no hits.
func (c *Client) search(ctx context.Context, pmcQuery string) (*Article, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/search"

	query := url.Values{}
	query.Set("query", pmcQuery)
	query.Set("format", "json")
	query.Set("resultType", "core")
	query.Set("pageSize", "1")
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

	// Parse the JSON response (limit body to 10MB).
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(searchResp.ResultList.Result) == 0 {
		return nil, nil
	}
	return &searchResp.ResultList.Result[0], nil
}

// articleToResult converts a Europe PMC Article to a source result.
func (c *Client) articleToResult(article *Article) *domain.SourceResult {
	doi := strings.ToLower(strings.TrimSpace(article.DOI))

	result := &domain.SourceResult{
		Source:        SourceName,
		Title:         strings.TrimSpace(article.Title),
		Abstract:      strings.TrimSpace(article.AbstractText),
		DOI:           doi,
		PMID:          strings.TrimSpace(article.PMID),
		Venue:         strings.TrimSpace(article.JournalTitle),
		CitationCount: article.CitedByCount,
	}

	if article.FirstPublicationDate != "" {
		if t, err := time.Parse("2006-01-02", article.FirstPublicationDate); err == nil {
			result.Year = t.Year()
		}
	}
	if result.Year == 0 && article.PubYear != "" {
		result.Year, _ = strconv.Atoi(article.PubYear)
	}

	result.Authors = parseAuthorString(article.AuthorString)

	// Preprints are open access unless Europe PMC says otherwise.
	result.OpenAccess = article.IsOpenAccess != "N"

	if doi != "" {
		switch strings.ToLower(c.config.Server) {
		case "medrxiv":
			result.PDFURL = "https://www.medrxiv.org/content/" + doi + ".full.pdf"
		default:
			result.PDFURL = "https://www.biorxiv.org/content/" + doi + ".full.pdf"
		}
		result.Confidence = FullTextConfidence
	}

	return result
}

// parseAuthorString parses the Europe PMC authorString field.
// Europe PMC uses "GivenName Surname" format with authors separated by ", ".
func parseAuthorString(authorString string) []domain.Author {
	authorString = strings.TrimSpace(authorString)
	authorString = strings.TrimSuffix(authorString, ".")
	if authorString == "" {
		return nil
	}

	parts := strings.Split(authorString, ", ")
	authors := make([]domain.Author, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{Name: name})
	}

	return authors
}
