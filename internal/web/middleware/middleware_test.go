package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/payrollx/internal/config"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		xff        string
		want       string
	}{
		{"untrusted proxy headers ignored", "203.0.113.9:4123", "10.9.9.9", "", "203.0.113.9"},
		{"trusted proxy X-Real-IP", "10.0.0.2:80", "198.51.100.7", "", "198.51.100.7"},
		{"trusted proxy X-Forwarded-For first hop", "10.0.0.2:80", "", "198.51.100.8, 10.0.0.3", "198.51.100.8"},
		{"trusted single address", "192.168.1.1:80", "198.51.100.9", "", "198.51.100.9"},
		{"invalid header keeps remote", "10.0.0.2:80", "not-an-ip", "", "10.0.0.2"},
		{"no headers", "10.0.0.2:80", "", "", "10.0.0.2"},
	}

	mw := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.1", "bogus"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { got = r.RemoteAddr }))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}

	var keyID string
	h := APIKeyAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyID = APIKeyIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"invalid key", "gamma", http.StatusForbidden},
		{"valid key", "beta", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/extract", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	if keyID != KeyID("beta") || len(keyID) != 8 {
		t.Errorf("key ID = %q, want %q", keyID, KeyID("beta"))
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	called := false
	h := APIKeyAuth(&config.SecurityConfig{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/fields", nil))
	if !called {
		t.Error("request blocked with auth disabled")
	}
}

func TestLogger_CapturesStatusAndSize(t *testing.T) {
	var ww *responseWriter
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ww = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot || ww.status != http.StatusTeapot {
		t.Errorf("status = %d/%d, want %d", rec.Code, ww.status, http.StatusTeapot)
	}
	if ww.bytes != 5 {
		t.Errorf("bytes = %d, want 5", ww.bytes)
	}
}
