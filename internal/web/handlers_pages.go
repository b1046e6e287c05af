package web

import (
	"net/http"

	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/JonMunkholm/trialstats/internal/logging"
	"github.com/JonMunkholm/trialstats/internal/web/templates"
	"github.com/a-h/templ"
)

const dashboardHistorySize = 10

// handleDashboard renders the default dataset.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := s.dashboardView()
	view.Source = s.service.DataPath()
	view.History = s.recentUploads(r)

	status := http.StatusOK
	a, err := s.service.Analytics(r.Context())
	if err != nil {
		status = statusFor(err, false)
		logging.FromContext(r.Context()).Warn("dashboard without data", "error", err)
		msg := core.MapError(err)
		view.Error = &msg
	} else {
		view.Analytics = &a
	}
	s.renderPage(w, r, status, templates.Dashboard(view))
}

// handleDashboardUpload renders the dashboard for an uploaded file.
func (s *Server) handleDashboardUpload(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzeUpload(w, r)
	view := s.dashboardView()

	status := http.StatusOK
	if err != nil {
		status = statusFor(err, true)
		logging.FromContext(r.Context()).Warn("dashboard upload failed", "error", err)
		msg := core.MapError(err)
		view.Error = &msg
	} else {
		view.Source = res.Record.FileName
		view.Analytics = &res.Analytics
	}
	// History is read after the upload so it includes it.
	view.History = s.recentUploads(r)
	s.renderPage(w, r, status, templates.Dashboard(view))
}

func (s *Server) dashboardView() templates.DashboardView {
	return templates.DashboardView{MaxUpload: s.cfg.Upload.MaxFileSize}
}

func (s *Server) recentUploads(r *http.Request) []core.UploadRecord {
	records, err := s.service.History(r.Context(), dashboardHistorySize)
	if err != nil {
		logging.FromContext(r.Context()).Error("load upload history", "error", err)
		return nil
	}
	return records
}

// renderPage writes c as an HTML page with the given status.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}
