package web

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/trialstats/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) reportMeta() report.Meta {
	return report.Meta{
		Source:      filepath.Base(s.service.DataPath()),
		GeneratedAt: time.Now().UTC(),
	}
}

// reportName is the download name for the default dataset's report.
func (s *Server) reportName(ext string) string {
	base := filepath.Base(s.service.DataPath())
	return strings.TrimSuffix(base, filepath.Ext(base)) + "-report" + ext
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Analytics(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err, false))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.reportName(".md")+`"`)
	w.Write(report.Markdown(a, s.reportMeta()))
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Analytics(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err, false))
		return
	}
	meta := s.reportMeta()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(report.HTML(report.Markdown(a, meta), meta))
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Analytics(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err, false))
		return
	}

	// Buffer so a failed export can still produce an error status.
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, a, s.reportMeta()); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.reportName(".xlsx")+`"`)
	buf.WriteTo(w)
}
