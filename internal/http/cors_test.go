package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithCORSAnswersPreflight(t *testing.T) {
	env := setupRouter(t)
	handler := WithCORS(env.router, []string{"https://app.example.com"})

	cases := map[string]struct {
		requestHeaders string
		wantOrigin     string
	}{
		"browser lowercase headers": {"authorization,content-type", "https://app.example.com"},
		"single header":             {"authorization", "https://app.example.com"},
		"non-canonical casing":      {"Authorization, Content-Type", ""},
		"header not allowed":        {"x-custom", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/teams", nil)
			req.Header.Set("Origin", "https://app.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", tc.requestHeaders)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusNoContent {
				t.Fatalf("expected preflight 204, got %d", rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantOrigin)
			}
		})
	}
}

func TestWithCORSIgnoresUnknownOrigin(t *testing.T) {
	env := setupRouter(t)
	handler := WithCORS(env.router, []string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
}
