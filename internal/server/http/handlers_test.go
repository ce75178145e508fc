package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-retrieval-service/internal/cache"
	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/hunter"
	"github.com/helixir/paper-retrieval-service/internal/pdf"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockHunter implements Hunter for HTTP handler tests.
type mockHunter struct {
	huntFn  func(ctx context.Context, raw string) *domain.PaperResult
	batchFn func(ctx context.Context, raws []string, opts hunter.BatchOptions) []*domain.PaperResult
	stats   *hunter.Stats
}

func (m *mockHunter) Hunt(ctx context.Context, raw string) *domain.PaperResult {
	if m.huntFn != nil {
		return m.huntFn(ctx, raw)
	}
	return &domain.PaperResult{Identifier: raw}
}

func (m *mockHunter) BatchHunt(ctx context.Context, raws []string, opts hunter.BatchOptions) []*domain.PaperResult {
	if m.batchFn != nil {
		return m.batchFn(ctx, raws, opts)
	}
	results := make([]*domain.PaperResult, len(raws))
	for i, raw := range raws {
		results[i] = &domain.PaperResult{Identifier: raw}
	}
	return results
}

func (m *mockHunter) Stats() *hunter.Stats {
	if m.stats == nil {
		m.stats = hunter.NewStats()
	}
	return m.stats
}

// mockDownloader implements PDFDownloader for HTTP handler tests.
type mockDownloader struct {
	downloadFn func(ctx context.Context, url string) (*pdf.DownloadResult, error)
}

func (m *mockDownloader) Download(ctx context.Context, url string) (*pdf.DownloadResult, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, url)
	}
	return nil, pdf.ErrDownloadFailed
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestHTTPServer builds a server with an in-memory cache and no warm store.
func newTestHTTPServer(h Hunter, d PDFDownloader) *Server {
	return NewServer(Config{Address: ":0"}, h, cache.New(cache.Config{}), d, nil, zerolog.Nop())
}

// serveHTTP routes a request through the full middleware stack.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, r)
	return rr
}

// postJSON builds a POST request with a JSON body.
func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeJSON decodes a JSON response body into the given target.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tests: huntPaper
// ---------------------------------------------------------------------------

func TestHuntPaper_Success(t *testing.T) {
	var gotRaw string
	h := &mockHunter{
		huntFn: func(_ context.Context, raw string) *domain.PaperResult {
			gotRaw = raw
			return &domain.PaperResult{
				Identifier: "doi:10.1234/example",
				Kind:       domain.IdentifierDOI,
				Title:      "An Example Paper",
			}
		},
	}

	srv := newTestHTTPServer(h, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/hunt", `{"identifier":"10.1234/example"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotRaw != "10.1234/example" {
		t.Errorf("expected raw identifier passed through, got %q", gotRaw)
	}

	var resp domain.PaperResult
	decodeJSON(t, rr, &resp)
	if resp.Identifier != "doi:10.1234/example" {
		t.Errorf("expected canonical identifier, got %q", resp.Identifier)
	}
	if resp.Title != "An Example Paper" {
		t.Errorf("unexpected title %q", resp.Title)
	}
}

func TestHuntPaper_MissingIdentifier(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/hunt", `{}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "required") {
		t.Errorf("expected validation message, got %s", rr.Body.String())
	}
}

func TestHuntPaper_InvalidJSON(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/hunt", `{not json`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHuntPaper_IdentifierTooLong(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	body := `{"identifier":"` + strings.Repeat("a", 3000) + `"}`
	rr := serveHTTP(srv, postJSON("/api/v1/papers/hunt", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Tests: batchHunt
// ---------------------------------------------------------------------------

func TestBatchHunt_Success(t *testing.T) {
	var gotOpts hunter.BatchOptions
	h := &mockHunter{
		batchFn: func(_ context.Context, raws []string, opts hunter.BatchOptions) []*domain.PaperResult {
			gotOpts = opts
			results := make([]*domain.PaperResult, len(raws))
			for i, raw := range raws {
				results[i] = &domain.PaperResult{Identifier: raw}
			}
			return results
		},
	}

	srv := newTestHTTPServer(h, &mockDownloader{})
	body := `{"identifiers":["10.1/a","arXiv:2301.00001","pmid:12345"],"max_concurrency":2}`
	rr := serveHTTP(srv, postJSON("/api/v1/papers/batch", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotOpts.MaxConcurrency != 2 {
		t.Errorf("expected max_concurrency 2, got %d", gotOpts.MaxConcurrency)
	}

	var resp batchHuntResponse
	decodeJSON(t, rr, &resp)
	if resp.Total != 3 {
		t.Fatalf("expected 3 results, got %d", resp.Total)
	}
	// Order must match the request order.
	want := []string{"10.1/a", "arXiv:2301.00001", "pmid:12345"}
	for i, w := range want {
		if resp.Results[i].Identifier != w {
			t.Errorf("result %d: expected %q, got %q", i, w, resp.Results[i].Identifier)
		}
	}
}

func TestBatchHunt_EmptyIdentifiers(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/batch", `{"identifiers":[]}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestBatchHunt_TooManyIdentifiers(t *testing.T) {
	ids := make([]string, 501)
	for i := range ids {
		ids[i] = "10.1/x"
	}
	body, _ := json.Marshal(map[string]interface{}{"identifiers": ids})

	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/batch", string(body)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Tests: downloadPDF
// ---------------------------------------------------------------------------

func TestDownloadPDF_Success(t *testing.T) {
	content := []byte("%PDF-1.7 fake content")
	d := &mockDownloader{
		downloadFn: func(_ context.Context, url string) (*pdf.DownloadResult, error) {
			if url != "https://example.org/paper.pdf" {
				t.Errorf("unexpected URL %q", url)
			}
			return &pdf.DownloadResult{
				Content:     content,
				ContentHash: "abc123",
				SizeBytes:   int64(len(content)),
				ContentType: "application/pdf",
			}, nil
		},
	}

	srv := newTestHTTPServer(&mockHunter{}, d)
	rr := serveHTTP(srv, postJSON("/api/v1/papers/download", `{"url":"https://example.org/paper.pdf"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("expected PDF content type, got %q", got)
	}
	if got := rr.Header().Get("X-Content-SHA256"); got != "abc123" {
		t.Errorf("expected content hash header, got %q", got)
	}
	if !bytes.Equal(rr.Body.Bytes(), content) {
		t.Error("response body does not match downloaded content")
	}
}

func TestDownloadPDF_InvalidURL(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/download", `{"url":"not a url"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestDownloadPDF_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"ssrf blocked", pdf.ErrSSRF, http.StatusBadRequest},
		{"not a pdf", pdf.ErrNotPDF, http.StatusUnprocessableEntity},
		{"too large", pdf.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"download failed", pdf.ErrDownloadFailed, http.StatusBadGateway},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &mockDownloader{
				downloadFn: func(_ context.Context, _ string) (*pdf.DownloadResult, error) {
					return nil, tc.err
				},
			}
			srv := newTestHTTPServer(&mockHunter{}, d)
			rr := serveHTTP(srv, postJSON("/api/v1/papers/download", `{"url":"https://example.org/x.pdf"}`))

			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests: stats
// ---------------------------------------------------------------------------

func TestGetStats(t *testing.T) {
	h := &mockHunter{stats: hunter.NewStats()}
	h.stats.Record(&domain.PaperResult{Identifier: "doi:10.1/a", FromCache: true})
	h.stats.Record(&domain.PaperResult{Identifier: "doi:10.1/b", FullTextSource: "arxiv"})

	srv := newTestHTTPServer(h, &mockDownloader{})
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Hunts hunter.StatsSnapshot `json:"hunts"`
		Cache *cache.Stats         `json:"cache"`
	}
	decodeJSON(t, rr, &resp)

	if resp.Hunts.TotalHunts != 2 {
		t.Errorf("expected 2 total hunts, got %d", resp.Hunts.TotalHunts)
	}
	if resp.Hunts.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", resp.Hunts.CacheHits)
	}
	if resp.Hunts.FullTextBySource["arxiv"] != 1 {
		t.Errorf("expected arxiv full-text count 1, got %d", resp.Hunts.FullTextBySource["arxiv"])
	}
	if resp.Cache == nil {
		t.Error("expected cache stats in response")
	}
}

func TestResetStats(t *testing.T) {
	h := &mockHunter{stats: hunter.NewStats()}
	h.stats.Record(&domain.PaperResult{Identifier: "doi:10.1/a"})

	srv := newTestHTTPServer(h, &mockDownloader{})
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/v1/stats/reset", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if snap := h.stats.Snapshot(); snap.TotalHunts != 0 {
		t.Errorf("expected counters reset, got %d total hunts", snap.TotalHunts)
	}
}

// ---------------------------------------------------------------------------
// Tests: health
// ---------------------------------------------------------------------------

func TestHealth_NoWarmStore(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
	if resp["warm_store"] != "disabled" {
		t.Errorf("expected warm_store disabled, got %q", resp["warm_store"])
	}
}

func TestReadiness_NoWarmStore(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Tests: writeDomainError
// ---------------------------------------------------------------------------

func TestWriteDomainError(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"validation error", domain.NewValidationError("identifier", "must not be empty"), http.StatusBadRequest},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"cancelled", domain.ErrCancelled, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.writeDomainError(rr, tc.err)
			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
		})
	}
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var logBuf bytes.Buffer
	srv := NewServer(Config{Address: ":0"}, &mockHunter{}, cache.New(cache.Config{}), &mockDownloader{}, nil, zerolog.New(&logBuf))

	rr := httptest.NewRecorder()
	srv.writeJSON(rr, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	if !strings.Contains(logBuf.String(), "failed to encode response body") {
		t.Errorf("expected encode failure to be logged, got %q", logBuf.String())
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	// Body larger than the 1MB limit gets truncated mid-JSON and rejected.
	big := `{"identifier":"` + strings.Repeat("x", maxRequestBodySize+1024) + `"}`
	rr := serveHTTP(srv, postJSON("/api/v1/papers/hunt", big))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
