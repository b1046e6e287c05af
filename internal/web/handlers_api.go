package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/trialstats/internal/core"
)

const (
	defaultDataSource  = "default_file"
	defaultHistorySize = 50
	maxHistorySize     = 500
)

// summaryResponse is the Summary plus where it came from.
type summaryResponse struct {
	core.Summary
	DataSource   string `json:"data_source"`
	TotalRecords int    `json:"total_records"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, _, err := s.service.Summary(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err, false))
		return
	}
	writeJSON(w, r, summaryResponse{
		Summary:      summary,
		DataSource:   defaultDataSource,
		TotalRecords: summary.TotalPatients,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Analytics(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err, false))
		return
	}
	writeJSON(w, r, a)
}

// handleView serves one view computed from the default dataset.
func (s *Server) handleView(view func(*core.Table) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.service.DefaultTable(r.Context())
		if err != nil {
			s.respondError(w, r, err, statusFor(err, false))
			return
		}
		writeJSON(w, r, view(t))
	}
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	s.handleView(func(t *core.Table) any { return core.SitePerformanceAnalysis(t) })(w, r)
}

func (s *Server) handleAgeGroups(w http.ResponseWriter, r *http.Request) {
	s.handleView(func(t *core.Table) any { return core.AgeGroupAnalysis(t) })(w, r)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	s.handleView(func(t *core.Table) any { return core.TemporalTrends(t) })(w, r)
}

func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	s.handleView(func(t *core.Table) any { return core.CorrelationAnalysis(t) })(w, r)
}

// insightsResponse carries the threshold insights and the key insights.
type insightsResponse struct {
	Insights    []string         `json:"insights"`
	KeyInsights core.KeyInsights `json:"key_insights"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	th := s.service.Thresholds()
	s.handleView(func(t *core.Table) any {
		return insightsResponse{
			Insights:    core.GenerateInsights(core.Summarize(t), th),
			KeyInsights: core.KeyInsightsFor(t),
		}
	})(w, r)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultHistorySize, maxHistorySize)
	records, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []core.UploadRecord{}
	}
	writeJSON(w, r, records)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"data_path":  s.service.DataPath(),
		"uploads":    s.service.LimiterStatus(),
		"thresholds": s.service.Thresholds(),
	})
}

// parseLimit reads ?limit=, falling back to def and capping at max.
func parseLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
