package security

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budge/internal/log"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	cases := []struct {
		method, target, agent string
		want                  bool
	}{
		{http.MethodGet, "/budgets", "budge-client/1.0", false},
		{http.MethodGet, "/transactions?page=2&limit=20", "", false},
		{http.MethodGet, "/../../etc/passwd", "", true},
		{http.MethodGet, "/.env", "", true},
		{http.MethodGet, "/transactions?q=1%20union%20select", "", true},
		{http.MethodGet, "/budgets", "sqlmap/1.7", true},
		{"TRACE", "/budgets", "", true},
		{http.MethodGet, "/budgets?x=" + strings.Repeat("a", 2100), "", true},
	}
	d := NewDetector()
	for i, c := range cases {
		r := httptest.NewRequest(c.method, c.target, nil)
		if c.agent != "" {
			r.Header.Set("User-Agent", c.agent)
		}
		if got := d.DetectSuspiciousRequest(r); got != c.want {
			t.Fatalf("case %d (%s %s) expected %v, got %v", i, c.method, c.target, c.want, got)
		}
	}
	if got := d.GetMetrics().SuspiciousRequests; got != 6 {
		t.Fatalf("expected 6 suspicious requests, got %d", got)
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		remote, xff, xri, want string
	}{
		{"203.0.113.5:1234", "", "", "203.0.113.5"},
		{"203.0.113.5:1234", "198.51.100.1", "", "203.0.113.5"},
		{"10.0.0.2:1234", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"127.0.0.1:1234", "", "198.51.100.7", "198.51.100.7"},
		{"127.0.0.1:1234", "not-an-ip", "", "127.0.0.1"},
	}
	d := NewDetector()
	for i, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = c.remote
		if c.xff != "" {
			r.Header.Set("X-Forwarded-For", c.xff)
		}
		if c.xri != "" {
			r.Header.Set("X-Real-IP", c.xri)
		}
		if got := d.ExtractClientIP(r); got != c.want {
			t.Fatalf("case %d expected %s, got %s", i, c.want, got)
		}
	}
	if got := d.GetMetrics().InvalidIPAttempts; got != 1 {
		t.Fatalf("expected 1 invalid ip attempt, got %d", got)
	}
}

func TestAddTrustedProxyRejectsBadCIDR(t *testing.T) {
	if err := NewDetector().AddTrustedProxy("nope"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}

func TestDetectorMiddlewareLogsButPasses(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf})
	d := NewDetector()
	h := d.Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("request should pass through, got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "Suspicious request detected") {
		t.Fatalf("expected warning log, got %s", buf.String())
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/budgets", nil))
	for name, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Cache-Control":           "no-store",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	} {
		if got := rr.Header().Get(name); got != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/budgets", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected HSTS header %q", got)
	}
}

func TestCORS(t *testing.T) {
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/budgets", nil))
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("no CORS headers expected without Origin")
	}

	req := httptest.NewRequest(http.MethodOptions, "/budgets", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("unexpected allow origin %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Fatalf("Authorization must be an allowed header")
	}

	restricted := CORS(CORSConfig{AllowedOrigins: []string{"https://ok.example"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req = httptest.NewRequest(http.MethodGet, "/budgets", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	restricted.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("disallowed origin must not be echoed")
	}
}
