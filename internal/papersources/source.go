// Package papersources provides clients for academic paper source APIs.
//
// Each academic database (Semantic Scholar, OpenAlex, Crossref, arXiv, etc.)
// implements the Source interface, allowing the hunt coordinator to walk a
// configured priority order with a unified API.
//
// Example usage:
//
//	source := semanticscholar.New(cfg, httpClient)
//	id := domain.Classify("10.1038/nature14539")
//	result, err := source.Fetch(ctx, id)
package papersources

import (
	"context"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

// Source defines the interface that all paper source clients implement.
type Source interface {
	// Fetch looks up a single paper by its classified identifier.
	// Returns whatever the source knows about the paper; zero-valued fields
	// mean the source has no answer for them.
	//
	// Error classification via domain sentinels:
	//   - domain.ErrNotApplicable: the source cannot serve this identifier
	//     kind (the coordinator skips it without counting a failure)
	//   - domain.ErrNotFound: the source has no record of the paper
	//   - domain.ErrRateLimited: the source rejected the request for rate
	//   - domain.ErrTransient: network error or 5xx, retryable
	//   - domain.ErrFatal: malformed request or auth failure, not retryable
	//
	// Implementations should respect context cancellation and wrap errors
	// with source context (domain.ExternalAPIError).
	Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error)

	// Name returns the source's stable identifier, used in configuration,
	// logging, metrics, and result provenance.
	Name() string

	// Accepts reports whether this source can serve the given identifier
	// kind at all. The coordinator uses it to skip sources without spending
	// a request.
	Accepts(kind domain.IdentifierKind) bool

	// Enabled reports whether this source is available. A source may be
	// disabled by configuration or because its API key is missing.
	Enabled() bool
}
