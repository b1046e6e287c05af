package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/trialstats/internal/config"
	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleCSV = "patient_id,trial_site,enrollment_date,age,adverse_event,completed_trial\n" +
	"P001,Boston,2024-01-15,45,false,true\n" +
	"P002,Chicago,2024-01-20,32,true,true\n" +
	"P003,NewYork,2024-02-01,67,false,false\n"

func testConfig(dataPath string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8000, RequestTimeout: 10 * time.Second, ShutdownTimeout: time.Second},
		Data:   config.DataConfig{DefaultPath: dataPath},
		Upload: config.UploadConfig{
			MaxFileSize:       1 << 20,
			MaxConcurrent:     2,
			MaxWaitTime:       time.Second,
			AllowedExtensions: []string{"csv", "xlsx"},
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

// newTestServer serves csv as the default dataset. An empty csv leaves the
// data file missing.
func newTestServer(t *testing.T, csv string, mutate ...func(*config.Config)) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clinical_trials.csv")
	if csv != "" {
		require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	}

	cfg := testConfig(path)
	for _, m := range mutate {
		m(cfg)
	}
	svc := core.NewService(core.Options{
		DataPath: path,
		Limiter:  core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
	})
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	return do(s, httptest.NewRequest(http.MethodGet, path, nil))
}

func upload(t *testing.T, s *Server, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "x"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(s, req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, exampleCSV)

	rec := get(s, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, 3.0, body["total_patients"])
	assert.Equal(t, 66.7, body["completion_rate"])
	assert.Equal(t, 33.3, body["adverse_event_rate"])
	assert.Equal(t, 48.0, body["average_age"])
	assert.Equal(t, "default_file", body["data_source"])
	assert.Equal(t, 3.0, body["total_records"])

	sites := body["patients_per_site"].([]any)
	require.Len(t, sites, 3)
	assert.Equal(t, map[string]any{"site": "Boston", "count": 1.0}, sites[0])
}

func TestSummary_DataUnavailable(t *testing.T) {
	s := newTestServer(t, "")

	rec := get(s, "/api/summary")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "DATA001", body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestViews(t *testing.T) {
	s := newTestServer(t, exampleCSV)

	tests := []struct {
		path string
		want int
	}{
		{"/api/sites", 3},
		{"/api/age-groups", 2},
		{"/api/trends", 2},
		{"/api/correlations", 6},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(s, tt.path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var items []map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
			assert.Len(t, items, tt.want)
		})
	}
}

func TestInsightsAndAnalytics(t *testing.T) {
	s := newTestServer(t, exampleCSV)

	body := decode(t, get(s, "/api/insights"))
	insights := body["insights"].([]any)
	require.Len(t, insights, 2)
	assert.Contains(t, insights[0], "Low completion")
	assert.NotNil(t, body["key_insights"])

	body = decode(t, get(s, "/api/analytics"))
	for _, key := range []string{"summary_statistics", "site_performance", "age_group_analysis", "temporal_analysis", "correlation_analysis", "insights", "key_insights", "data_quality"} {
		assert.Contains(t, body, key)
	}
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, exampleCSV)
	csv := exampleCSV + "P004,Boston,2024-02-10,unknown,false,true\n"

	rec := upload(t, s, "/api/upload", "../../trial.csv", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, 3.0, body["total_patients"])
	info := body["file_info"].(map[string]any)
	assert.Equal(t, "trial.csv", info["filename"])
	assert.Equal(t, 3.0, info["total_records"])
	assert.Equal(t, 1.0, info["rows_dropped"])
	assert.Equal(t, "success", info["status"])
	assert.NotEmpty(t, info["upload_id"])

	hist := get(s, "/api/history")
	require.Equal(t, http.StatusOK, hist.Code)
	var records []core.UploadRecord
	require.NoError(t, json.Unmarshal(hist.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, info["upload_id"], records[0].ID)
	assert.Equal(t, "192.0.2.1", records[0].ClientIP)
}

func TestUploadAnalytics(t *testing.T) {
	s := newTestServer(t, "")

	rec := upload(t, s, "/api/upload/analytics", "trial.csv", exampleCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Len(t, body["site_performance"], 3)
	assert.Contains(t, body, "file_info")
}

func TestUpload_Errors(t *testing.T) {
	s := newTestServer(t, exampleCSV)

	tests := []struct {
		name       string
		filename   string
		content    string
		wantStatus int
		wantCode   string
	}{
		{"no file", "", "", http.StatusBadRequest, "FILE002"},
		{"wrong extension", "notes.txt", exampleCSV, http.StatusBadRequest, "FILE003"},
		{"empty file", "empty.csv", "", http.StatusBadRequest, "DATA002"},
		{"header only", "header.csv", "patient_id,trial_site,enrollment_date,age,adverse_event,completed_trial\n", http.StatusBadRequest, "DATA002"},
		{"missing column", "cols.csv", "patient_id,trial_site\nP001,Boston\n", http.StatusUnprocessableEntity, "SCH001"},
		{"too large", "big.csv", strings.Repeat("x", 2<<20), http.StatusRequestEntityTooLarge, "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, s, "/api/upload", tt.filename, tt.content)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUpload_InvalidForm(t *testing.T) {
	s := newTestServer(t, exampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")

	rec := do(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", decode(t, rec)["code"])
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, exampleCSV)

	rec := get(s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	page := rec.Body.String()
	assert.Contains(t, page, "Clinical Trial Analytics")
	assert.Contains(t, page, "Boston")
	assert.Contains(t, page, "66.7%")
	assert.Contains(t, page, "Low completion")
}

func TestDashboard_MissingData(t *testing.T) {
	s := newTestServer(t, "")

	rec := get(s, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATA001")
	assert.Contains(t, rec.Body.String(), `action="/upload"`)
}

func TestDashboardUpload(t *testing.T) {
	s := newTestServer(t, "")

	rec := upload(t, s, "/upload", "site<b>.csv", strings.ReplaceAll(exampleCSV, "Boston", "<Boston>"))
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "&lt;Boston&gt;")
	assert.NotContains(t, page, "<Boston>")
	assert.Contains(t, page, "Recent uploads")
}

func TestReports(t *testing.T) {
	s := newTestServer(t, exampleCSV)

	md := get(s, "/api/report.md")
	require.Equal(t, http.StatusOK, md.Code)
	assert.Contains(t, md.Header().Get("Content-Disposition"), "clinical_trials-report.md")
	assert.Contains(t, md.Body.String(), "## Site Performance")

	xlsx := get(s, "/api/report.xlsx")
	require.Equal(t, http.StatusOK, xlsx.Code)
	assert.Equal(t, xlsxContentType, xlsx.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(xlsx.Body.Bytes(), []byte("PK")))

	html := get(s, "/report")
	require.Equal(t, http.StatusOK, html.Code)
	assert.Contains(t, html.Body.String(), "<table>")
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, exampleCSV)

	rec := get(s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, exampleCSV, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
	})

	assert.Equal(t, http.StatusOK, get(s, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(s, "/healthz").Code)

	rec := get(s, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decode(t, rec)["code"])
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimit_UploadBudgetSharedAcrossRoutes(t *testing.T) {
	s := newTestServer(t, exampleCSV, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 2}
	})

	assert.Equal(t, http.StatusOK, upload(t, s, "/upload", "trial.csv", exampleCSV).Code)
	assert.Equal(t, http.StatusOK, upload(t, s, "/api/upload", "trial.csv", exampleCSV).Code)

	for _, path := range []string{"/upload", "/api/upload", "/api/upload/analytics"} {
		rec := upload(t, s, path, "trial.csv", exampleCSV)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, path)
	}

	// other routes keep their own budget
	assert.Equal(t, http.StatusOK, get(s, "/api/summary").Code)
}

func TestAPIKeyAuth(t *testing.T) {
	s := newTestServer(t, exampleCSV, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	assert.Equal(t, http.StatusUnauthorized, get(s, "/api/summary").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("X-API-Key", "wrong")
	assert.Equal(t, http.StatusForbidden, do(s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, do(s, req).Code)

	// pages are not behind the key
	assert.Equal(t, http.StatusOK, get(s, "/healthz").Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, exampleCSV, func(c *config.Config) {
		c.Security.CORSOrigins = []string{"*"}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := do(s, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		upload bool
		want   int
	}{
		{&core.SchemaError{Missing: []string{"age"}}, true, http.StatusUnprocessableEntity},
		{&core.DataUnavailableError{Reason: core.ReasonEmpty}, true, http.StatusBadRequest},
		{&core.DataUnavailableError{Reason: core.ReasonNotFound}, false, http.StatusServiceUnavailable},
		{core.ErrTooManyUploads, true, http.StatusServiceUnavailable},
		{errNoFile, true, http.StatusBadRequest},
		{assert.AnError, false, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err, tt.upload), "%v", tt.err)
	}
}
