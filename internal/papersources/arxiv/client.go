package arxiv

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (3 requests per second).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// titleMatchThreshold is the minimum token overlap for a title search
	// hit to be accepted as the same paper. arXiv's relevance search is
	// fuzzy, so an unchecked first hit would routinely be a different paper.
	titleMatchThreshold = 0.6

	// SourceName is the stable identifier for this source.
	SourceName = "arxiv"

	// FullTextConfidence is the trust placed in arXiv PDFs, which are
	// author preprints rather than the version of record.
	FullTextConfidence = 0.9
)

// arxivIDRegex extracts the arXiv ID from the full URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
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

// Client implements the papersources.Source interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
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

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch retrieves a preprint by ID, or probes for a preprint version of a
// title query. Title hits must pass a similarity check before they count.
func (c *Client) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	if !c.Accepts(id.Kind) {
		return nil, domain.ErrNotApplicable
	}

	var query url.Values
	if id.Kind == domain.IdentifierPreprint {
		query = url.Values{"id_list": {id.Canonical}, "max_results": {"1"}}
	} else {
		query = url.Values{
			"search_query": {"ti:" + quoteQuery(id.Canonical)},
			"max_results":  {"3"},
		}
	}

	feed, err := c.queryFeed(ctx, query)
	if err != nil {
		return nil, err
	}

	if id.Kind == domain.IdentifierPreprint {
		if len(feed.Entries) == 0 {
			return nil, domain.NewNotFoundError(SourceName, id.Canonical)
		}
		return c.entryToResult(&feed.Entries[0]), nil
	}

	for i := range feed.Entries {
		if titleSimilarity(id.Canonical, feed.Entries[i].Title) >= titleMatchThreshold {
			return c.entryToResult(&feed.Entries[i]), nil
		}
	}
	return nil, domain.NewNotFoundError(SourceName, id.Canonical)
}

// Name returns the stable identifier for this source.
func (c *Client) Name() string {
	return SourceName
}

// Accepts reports which identifier kinds this source serves.
func (c *Client) Accepts(kind domain.IdentifierKind) bool {
	return kind == domain.IdentifierPreprint || kind == domain.IdentifierTitle
}

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool {
	return c.config.Enabled
}

// queryFeed executes a query against the arXiv Atom API.
func (c *Client) queryFeed(ctx context.Context, query url.Values) (*Feed, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"
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

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &feed, nil
}

// entryToResult converts an arXiv Atom entry to a source result.
func (c *Client) entryToResult(entry *Entry) *domain.SourceResult {
	arxivID := extractArXivID(entry.ID)

	result := &domain.SourceResult{
		Source:     SourceName,
		Title:      normalizeWhitespace(entry.Title),
		Abstract:   normalizeWhitespace(entry.Summary),
		PreprintID: arxivID,
		DOI:        strings.ToLower(strings.TrimSpace(entry.DOI)),
		OpenAccess: true, // arXiv papers are always open access
	}

	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			result.Year = t.Year()
		}
	}

	result.Authors = make([]domain.Author, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		result.Authors = append(result.Authors, domain.Author{
			Name:        name,
			Affiliation: strings.TrimSpace(a.Affiliation),
		})
	}

	if entry.JournalRef != "" {
		result.Venue = strings.TrimSpace(entry.JournalRef)
	}

	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			result.PDFURL = link.Href
			break
		}
	}
	if result.PDFURL == "" && arxivID != "" {
		result.PDFURL = "https://arxiv.org/pdf/" + arxivID
	}
	if result.PDFURL != "" {
		result.Confidence = FullTextConfidence
	}

	return result
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses multiple whitespace characters.
func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	// Collapse multiple whitespace (including newlines) into single spaces
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// quoteQuery wraps a title query in quotes for exact-phrase matching.
func quoteQuery(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

// titleSimilarity computes token-overlap similarity between a query title
// and a candidate title, both lowercased.
func titleSimilarity(query, candidate string) float64 {
	queryTokens := tokenSet(query)
	candidateTokens := tokenSet(candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	overlap := 0
	for token := range queryTokens {
		if _, ok := candidateTokens[token]; ok {
			overlap++
		}
	}

	smaller := len(queryTokens)
	if len(candidateTokens) < smaller {
		smaller = len(candidateTokens)
	}
	return float64(overlap) / float64(smaller)
}

func tokenSet(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(s)) {
		field = strings.Trim(field, ".,:;!?()[]{}\"'")
		if field != "" {
			tokens[field] = struct{}{}
		}
	}
	return tokens
}
