package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/trialstats/internal/config"
	"github.com/JonMunkholm/trialstats/internal/logging"
	"github.com/stretchr/testify/assert"
)

func remoteAddrAfter(mw func(http.Handler) http.Handler, req *http.Request) string {
	var got string
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.RemoteAddr
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies ignores headers", nil, "10.0.0.1:5000", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:5000"},
		{"trusted cidr uses X-Real-IP", []string{"10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"trusted bare ip uses first forwarded", []string{"10.0.0.1"}, "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"untrusted peer keeps address", []string{"10.0.0.0/8"}, "192.0.2.4:5000", map[string]string{"X-Real-IP": "203.0.113.9"}, "192.0.2.4:5000"},
		{"garbage header keeps address", []string{"10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "not-an-ip"}, "10.0.0.1:5000"},
		{"invalid cidr skipped", []string{"bogus/99"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, remoteAddrAfter(TrustedRealIP(tt.trusted), req))
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	cfg := &config.SecurityConfig{}
	rec := httptest.NewRecorder()
	APIKeyAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPIKeyAuth_Rejections(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}
	h := APIKeyAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		key  string
		want int
		code string
	}{
		{"", http.StatusUnauthorized, "AUTH001"},
		{"k3", http.StatusForbidden, "AUTH002"},
		{"k2", http.StatusOK, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		if tt.key != "" {
			req.Header.Set(APIKeyHeader, tt.key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tt.want, rec.Code, "key %q", tt.key)
		if tt.code != "" {
			assert.Contains(t, rec.Body.String(), tt.code)
		}
	}
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "text"))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("hello"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=request method=GET path=/ok status=200 bytes=5")
	assert.Contains(t, out, "level=WARN msg=request method=GET path=/missing status=404")
}
