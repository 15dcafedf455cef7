package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rentfold/rentfold/internal/logging"
)

func TestRedactPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		pattern  string
		expected string
	}{
		{
			name:     "no pattern",
			path:     "/health",
			pattern:  "",
			expected: "/health",
		},
		{
			name:     "pattern without code",
			path:     "/api/invites",
			pattern:  "GET /api/invites",
			expected: "/api/invites",
		},
		{
			name:     "signup validate carries code",
			path:     "/api/signup/invites/0123456789abcdef",
			pattern:  "GET /api/signup/invites/{code}",
			expected: "/api/signup/invites/{code}",
		},
		{
			name:     "revoke carries code",
			path:     "/api/invites/0123456789abcdef",
			pattern:  "DELETE /api/invites/{code}",
			expected: "/api/invites/{code}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactPath(tt.path, tt.pattern); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRequestLogger_RedactsInviteCodes(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New().SetOutput(&buf)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/signup/invites/{code}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := NewRequestLogger(logger).Apply(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/signup/invites/deadbeefdeadbeef", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	out := buf.String()
	if strings.Contains(out, "deadbeefdeadbeef") {
		t.Errorf("expected invite code to be redacted from log, got %s", out)
	}
	if !strings.Contains(out, "/api/signup/invites/{code}") {
		t.Errorf("expected route pattern in log, got %s", out)
	}
}

func TestRequestLogger_LogsStatusAndMethod(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New().SetOutput(&buf)

	handler := NewRequestLogger(logger).Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/invites", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	out := buf.String()
	if !strings.Contains(out, `"method":"POST"`) {
		t.Errorf("expected method in log, got %s", out)
	}
	if !strings.Contains(out, `"status":201`) {
		t.Errorf("expected status in log, got %s", out)
	}
}
