package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for i, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Fatalf("case %d expected %v, got %v", i, c.want, got)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentBudget})

	logger.Info("budget saved", FieldBudgetID, "b1")
	logger.WithComponent(ComponentStorage).Debug("row written")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentBudget || lines[0][FieldBudgetID] != "b1" {
		t.Fatalf("unexpected first line: %v", lines[0])
	}
	if lines[1][FieldComponent] != ComponentStorage {
		t.Fatalf("unexpected component: %v", lines[1])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: "json", Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("expected only the warning, got %v", lines)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("expected default logger, got %+v", l)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "handled")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/budgets", nil))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldRequestID] != "req_1" {
		t.Fatalf("expected request id on log line, got %v", lines)
	}
}

func TestStructuredLoggerHTTPEndLevels(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for i, c := range cases {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
		r := httptest.NewRequest(http.MethodGet, "/transactions?page=2", nil)
		sl.LogHTTPEnd(context.Background(), r, "req_x", c.status, 3, "10.0.0.1")

		lines := decodeLines(t, &buf)
		if len(lines) != 1 {
			t.Fatalf("case %d expected 1 line, got %d", i, len(lines))
		}
		if lines[0]["level"] != c.level {
			t.Fatalf("case %d expected level %s, got %v", i, c.level, lines[0]["level"])
		}
		if lines[0][FieldComponent] != ComponentHTTP || lines[0][FieldQuery] != "page=2" {
			t.Fatalf("case %d unexpected fields: %v", i, lines[0])
		}
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogError(context.Background(), "export failed", errors.New("boom"), ComponentWorker, OpExport,
		NewFields().WithUser("u1").WithPeriod("2024-01-01", "2024-01-31"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got[FieldError] != "boom" || got[FieldOperation] != OpExport || got[FieldUserID] != "u1" || got[FieldComponent] != ComponentWorker {
		t.Fatalf("unexpected fields: %v", got)
	}
}
