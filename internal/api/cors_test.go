package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	const admin = "https://admin.example.com"

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantOrigin string
		wantCode   int
	}{
		{"no origins configured", nil, "GET", admin, "", http.StatusOK},
		{"no origin header", []string{admin}, "GET", "", "", http.StatusOK},
		{"allowed origin", []string{admin}, "GET", admin, admin, http.StatusOK},
		{"disallowed origin", []string{admin}, "GET", "https://evil.com", "", http.StatusOK},
		{"preflight", []string{admin}, "OPTIONS", admin, admin, http.StatusNoContent},
		{"preflight from disallowed origin reaches handler", []string{admin}, "OPTIONS", "https://evil.com", "", http.StatusOK},
		{"wildcard", []string{"*"}, "POST", "https://any.example.com", "https://any.example.com", http.StatusOK},
		{"second of several", []string{"https://one.example.com", admin}, "GET", admin, admin, http.StatusOK},
		{"not in list", []string{"https://one.example.com", admin}, "GET", "https://three.example.com", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{config: Config{CORSAllowedOrigins: tt.allowed}}
			reached := false
			h := s.CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest(tt.method, "/v1/settings", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if reached != (tt.wantCode != http.StatusNoContent) {
				t.Errorf("handler reached = %t", reached)
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	s := &Server{config: Config{CORSAllowedOrigins: []string{"https://admin.example.com"}}}
	h := s.CORSMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest("GET", "/v1/settings", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	want := map[string]string{
		"Access-Control-Allow-Headers":  "Authorization, Content-Type, X-Request-ID",
		"Access-Control-Allow-Methods":  "GET, POST, OPTIONS",
		"Access-Control-Expose-Headers": "X-Request-ID",
		"Vary":                          "Origin",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}
