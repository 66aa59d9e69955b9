package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	for name, keys := range map[string][]string{"nil": nil, "blank": {"", ""}} {
		handler := BearerAuthMiddleware(keys)(okHandler())

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search", http.NoBody))

		if rr.Code != http.StatusOK {
			t.Errorf("%s keys: got %d, want %d", name, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"key1", "key2"})(okHandler())

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		want   int
	}{
		{"missing header", "/search", "", "", http.StatusUnauthorized},
		{"basic scheme", "/search", "Authorization", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong bearer", "/search", "Authorization", "Bearer wrong-key", http.StatusUnauthorized},
		{"first key", "/items", "Authorization", "Bearer key1", http.StatusOK},
		{"second key", "/items", "Authorization", "Bearer key2", http.StatusOK},
		{"api key header", "/tags", APIKeyHeader, "key2", http.StatusOK},
		{"wrong api key header", "/tags", APIKeyHeader, "key3", http.StatusUnauthorized},
		{"prefix of key", "/tags", APIKeyHeader, "key", http.StatusUnauthorized},
		{"health exempt", "/health", "", "", http.StatusOK},
		{"metrics exempt", "/metrics", "", "", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("got %d, want %d", rr.Code, tc.want)
			}
			if tc.want != http.StatusUnauthorized {
				return
			}
			var body errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if body.Code != codeUnauthorized {
				t.Errorf("code = %q, want %q", body.Code, codeUnauthorized)
			}
		})
	}
}
