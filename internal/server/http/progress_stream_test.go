package httpserver

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/hunter"
)

func TestStreamBatchHunt_EventsAndCompletion(t *testing.T) {
	h := &mockHunter{
		batchFn: func(_ context.Context, raws []string, opts hunter.BatchOptions) []*domain.PaperResult {
			results := make([]*domain.PaperResult, len(raws))
			for i, raw := range raws {
				results[i] = &domain.PaperResult{Identifier: raw}
				if opts.Progress != nil {
					opts.Progress(i+1, len(raws), "retrieved "+raw)
				}
			}
			return results
		},
	}

	srv := newTestHTTPServer(h, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/batch/stream", `{"identifiers":["10.1/a","10.1/b"]}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", got)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "event: stream_started") {
		t.Error("expected stream_started event")
	}
	if !strings.Contains(body, "event: completed") {
		t.Error("expected completed event")
	}
	// The terminal event carries the full result list.
	if !strings.Contains(body, `"10.1/a"`) || !strings.Contains(body, `"10.1/b"`) {
		t.Errorf("expected results in terminal event, got: %s", body)
	}
}

func TestStreamBatchHunt_ProgressEventsRelayed(t *testing.T) {
	h := &mockHunter{
		batchFn: func(_ context.Context, raws []string, opts hunter.BatchOptions) []*domain.PaperResult {
			if opts.Progress != nil {
				opts.Progress(1, len(raws), "retrieved doi:10.1/a")
			}
			return []*domain.PaperResult{{Identifier: "doi:10.1/a"}}
		},
	}

	srv := newTestHTTPServer(h, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/batch/stream", `{"identifiers":["10.1/a"]}`))

	body := rr.Body.String()
	if !strings.Contains(body, "event: progress") {
		t.Errorf("expected progress event, got: %s", body)
	}
	if !strings.Contains(body, "retrieved doi:10.1/a") {
		t.Errorf("expected progress message, got: %s", body)
	}
}

func TestStreamBatchHunt_InvalidRequest(t *testing.T) {
	srv := newTestHTTPServer(&mockHunter{}, &mockDownloader{})
	rr := serveHTTP(srv, postJSON("/api/v1/papers/batch/stream", `{"identifiers":[]}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	// Validation failures must not switch the response to an event stream.
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON content type, got %q", got)
	}
}
