package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budge/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != contentTypeJSON {
		t.Errorf("Content-Type = %q, want %q", got, contentTypeJSON)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want value", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"n":1}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_Unencodable(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]any{"ch": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
	if got := w.Body.String(); got != `{"error":"Internal server error"}` {
		t.Errorf("Body = %q", got)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *JSONResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid input"}`,
		},
		{
			name:       "unauthorized",
			builder:    UnauthorizedError(msgMissingToken),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized - Missing or invalid token"}`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("budget not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"budget not found"}`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError(),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
		{
			name:       "message",
			builder:    MessageResponse("Category deleted successfully"),
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Category deleted successfully"}`,
		},
		{
			name:       "escapes markup",
			builder:    BadRequestError("<script>"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"<script>"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("Body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestTooManyRequestsError(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequestsError().Write(w)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Status code = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind core.Kind
		want int
	}{
		{core.Unauthenticated, http.StatusUnauthorized},
		{core.NotFound, http.StatusNotFound},
		{core.Forbidden, http.StatusNotFound},
		{core.InvalidArgument, http.StatusBadRequest},
		{core.PreconditionFailed, http.StatusBadRequest},
		{core.Conflict, http.StatusBadRequest},
		{core.StoreFailure, http.StatusInternalServerError},
		{core.KindUnknown, http.StatusInternalServerError},
	}
	for i, tt := range tests {
		if got := statusFor(tt.kind); got != tt.want {
			t.Fatalf("case %d (%s) expected %d, got %d", i, tt.kind, tt.want, got)
		}
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{core.Store("list categories", errors.New("disk I/O error")), 500, `{"error":"Internal server error"}`},
		{errors.New("boom"), 500, `{"error":"Internal server error"}`},
		{core.E(core.NotFound, "transaction not found"), 404, `{"error":"transaction not found"}`},
		{core.Wrap(core.Conflict, "email already in use", errors.New("UNIQUE constraint failed")), 400, `{"error":"email already in use"}`},
	}
	for i, tt := range tests {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/budgets", nil)
		srv.writeError(w, r, tt.err)
		if w.Code != tt.wantStatus {
			t.Fatalf("case %d expected %d, got %d", i, tt.wantStatus, w.Code)
		}
		if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
			t.Fatalf("case %d expected %s, got %s", i, tt.wantBody, got)
		}
	}
}
