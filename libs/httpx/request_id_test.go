package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestIDKeepsClientSuppliedID(t *testing.T) {
	var fromCtx string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if fromCtx != "client-supplied" {
		t.Fatalf("expected the client id in context, got %q", fromCtx)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied" {
		t.Fatalf("expected the client id echoed in the response, got %q", got)
	}
}

func TestWithRequestIDGeneratesWhenAbsent(t *testing.T) {
	var fromCtx string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", nil))

	if fromCtx == "" {
		t.Fatal("expected a generated request id in context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != fromCtx {
		t.Fatalf("response header %q does not match context id %q", got, fromCtx)
	}
}

func TestRequestIDFromContextWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFromContext(req.Context()); got != "" {
		t.Fatalf("expected empty id without middleware, got %q", got)
	}
}
