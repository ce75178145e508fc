package papersources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

type stubSource struct {
	name    string
	enabled bool
}

func (s *stubSource) Fetch(ctx context.Context, id domain.PaperIdentifier) (*domain.SourceResult, error) {
	return &domain.SourceResult{Source: s.name}, nil
}

func (s *stubSource) Name() string                            { return s.name }
func (s *stubSource) Accepts(kind domain.IdentifierKind) bool { return true }
func (s *stubSource) Enabled() bool                           { return s.enabled }

func TestChainPreservesRegistrationOrder(t *testing.T) {
	chain := NewChain()
	require.NoError(t, chain.Register(&stubSource{name: "scopus", enabled: true}))
	require.NoError(t, chain.Register(&stubSource{name: "semanticscholar", enabled: true}))
	require.NoError(t, chain.Register(&stubSource{name: "arxiv", enabled: true}))

	ordered := chain.Ordered()
	require.Len(t, ordered, 3)
	assert.Equal(t, "scopus", ordered[0].Name())
	assert.Equal(t, "semanticscholar", ordered[1].Name())
	assert.Equal(t, "arxiv", ordered[2].Name())
}

func TestChainSkipsDisabledSources(t *testing.T) {
	chain := NewChain()
	require.NoError(t, chain.Register(&stubSource{name: "scopus", enabled: false}))
	require.NoError(t, chain.Register(&stubSource{name: "crossref", enabled: true}))

	ordered := chain.Ordered()
	require.Len(t, ordered, 1)
	assert.Equal(t, "crossref", ordered[0].Name())

	// Disabled sources remain visible by name for introspection.
	assert.Equal(t, []string{"scopus", "crossref"}, chain.Names())
	assert.Equal(t, 2, chain.Len())
}

func TestChainRejectsDuplicateNames(t *testing.T) {
	chain := NewChain()
	require.NoError(t, chain.Register(&stubSource{name: "doaj", enabled: true}))
	err := chain.Register(&stubSource{name: "doaj", enabled: true})
	assert.Error(t, err)
}

func TestChainGet(t *testing.T) {
	chain := NewChain()
	require.NoError(t, chain.Register(&stubSource{name: "unpaywall", enabled: true}))

	assert.NotNil(t, chain.Get("unpaywall"))
	assert.Nil(t, chain.Get("missing"))
}
