package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/helixir/paper-retrieval-service/internal/observability"
)

func TestCorrelationIDMiddleware_UsesHeader(t *testing.T) {
	var gotCtxID string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtxID = observability.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "client-supplied-id")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if gotCtxID != "client-supplied-id" {
		t.Errorf("expected context correlation ID from header, got %q", gotCtxID)
	}
	if got := rr.Header().Get("X-Correlation-ID"); got != "client-supplied-id" {
		t.Errorf("expected echo of correlation ID, got %q", got)
	}
}

func TestCorrelationIDMiddleware_GeneratesWhenMissing(t *testing.T) {
	var gotCtxID string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtxID = observability.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if gotCtxID == "" {
		t.Error("expected a generated correlation ID in context")
	}
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected a generated correlation ID header")
	}
	if rr.Header().Get("X-Correlation-ID") != gotCtxID {
		t.Error("expected header and context correlation IDs to match")
	}
}

func TestJSONContentTypeMiddleware(t *testing.T) {
	handler := jsonContentTypeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}
}
