package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/papersources"
)

var _ papersources.Source = (*Client)(nil)

const articleSetXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>31462531</PMID>
      <Article>
        <Journal>
          <JournalIssue>
            <PubDate><Year>2019</Year><Month>Aug</Month></PubDate>
          </JournalIssue>
          <Title>Nature Medicine</Title>
        </Journal>
        <ArticleTitle>A guide to deep learning in healthcare</ArticleTitle>
        <ELocationID EIdType="doi" ValidYN="Y">10.1038/S41591-018-0316-Z</ELocationID>
        <Abstract>
          <AbstractText Label="BACKGROUND">Deep learning background.</AbstractText>
          <AbstractText Label="RESULTS">Deep learning results.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author>
            <LastName>Esteva</LastName>
            <ForeName>Andre</ForeName>
            <Identifier Source="ORCID">0000-0001-5331-9860</Identifier>
            <AffiliationInfo><Affiliation>Stanford University</Affiliation></AffiliationInfo>
          </Author>
          <Author ValidYN="N"><LastName>Invalid</LastName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">31462531</ArticleId>
        <ArticleId IdType="pmc">PMC7156061</ArticleId>
      </ArticleIdList>
      <ReferenceList>
        <Reference><Citation>LeCun Y et al. Deep learning. Nature. 2015.</Citation></Reference>
      </ReferenceList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func newTestClient(baseURL string) *Client {
	return NewWithHTTPClient(
		Config{BaseURL: baseURL, Enabled: true},
		papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 1000, BurstSize: 1000}),
	)
}

func TestAccepts(t *testing.T) {
	client := New(Config{Enabled: true})

	assert.True(t, client.Accepts(domain.IdentifierPMID))
	assert.True(t, client.Accepts(domain.IdentifierTitle))
	assert.False(t, client.Accepts(domain.IdentifierDOI))
	assert.False(t, client.Accepts(domain.IdentifierPreprint))
}

func TestDisabledByDefault(t *testing.T) {
	assert.False(t, New(Config{}).Enabled())
}

func TestFetchByPMID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/efetch.fcgi", r.URL.Path)
		assert.Equal(t, "31462531", r.URL.Query().Get("id"))
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		fmt.Fprint(w, articleSetXML)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Fetch(context.Background(), domain.Classify("PMID:31462531"))

	require.NoError(t, err)
	assert.Equal(t, "pubmed", result.Source)
	assert.Equal(t, "A guide to deep learning in healthcare", result.Title)
	assert.Equal(t, "31462531", result.PMID)
	assert.Equal(t, "10.1038/s41591-018-0316-z", result.DOI)
	assert.Equal(t, "Nature Medicine", result.Venue)
	assert.Equal(t, 2019, result.Year)
	assert.Equal(t, "BACKGROUND: Deep learning background. RESULTS: Deep learning results.", result.Abstract)
	assert.True(t, result.OpenAccess)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC7156061/pdf/", result.PDFURL)
	assert.InDelta(t, FullTextConfidence, result.Confidence, 1e-9)
	require.Len(t, result.Authors, 1)
	assert.Equal(t, "Andre Esteva", result.Authors[0].Name)
	assert.Equal(t, "0000-0001-5331-9860", result.Authors[0].ORCID)
	assert.Equal(t, "Stanford University", result.Authors[0].Affiliation)
	require.Len(t, result.KeyReferences, 1)
}

func TestFetchByTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, `A guide to deep learning in healthcare[Title]`, r.URL.Query().Get("term"))
			fmt.Fprint(w, `<?xml version="1.0"?><eSearchResult><Count>1</Count><IdList><Id>31462531</Id></IdList></eSearchResult>`)
		case "/efetch.fcgi":
			fmt.Fprint(w, articleSetXML)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Fetch(context.Background(), domain.Classify("A guide to deep learning in healthcare"))

	require.NoError(t, err)
	assert.Equal(t, "31462531", result.PMID)
}

func TestFetchTitleNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), domain.Classify("No such paper title whatsoever"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchEmptyArticleSet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><PubmedArticleSet></PubmedArticleSet>`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), domain.Classify("PMID:99999999"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtractYearMedlineDate(t *testing.T) {
	article := Article{}
	article.Journal.JournalIssue.PubDate.MedlineDate = "2020 Jan-Feb"
	assert.Equal(t, 2020, extractYear(article))
}
