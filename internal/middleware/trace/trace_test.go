package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budge/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := log.New(log.Config{Format: "json", Output: buf})
	return NewMiddleware(func(*http.Request) string { return "192.0.2.1" }, logger)
}

func TestMiddlewareSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/budgets", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected generated request id, got %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q does not match context id %q", rr.Header().Get(HeaderRequestID), seen)
	}
	if !strings.Contains(buf.String(), seen) {
		t.Fatalf("completion log line missing request id: %s", buf.String())
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	cases := []struct {
		header string
		keep   bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for i, c := range cases {
		m := newTestMiddleware(&bytes.Buffer{})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, c.header)
		rr := httptest.NewRecorder()
		m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, req)

		got := rr.Header().Get(HeaderRequestID)
		if (got == c.header) != c.keep {
			t.Fatalf("case %d header %q: got %q", i, c.header, got)
		}
	}
}

func TestMiddlewareMetrics(t *testing.T) {
	m := newTestMiddleware(&bytes.Buffer{})
	statuses := []int{200, 201, 404, 400, 500}
	for _, code := range statuses {
		code := code
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 5 || got.ClientErrors != 2 || got.ServerErrors != 1 {
		t.Fatalf("unexpected metrics: %+v", got)
	}
	if got.AverageResponseTime < 0 {
		t.Fatalf("negative average response time: %d", got.AverageResponseTime)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := RequestIDFromRequest(r); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}
