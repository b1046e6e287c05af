package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/trialstats/internal/core"
)

// fileInfo describes an analyzed upload in API responses.
type fileInfo struct {
	UploadID       string            `json:"upload_id"`
	Filename       string            `json:"filename"`
	TotalRecords   int               `json:"total_records"`
	RowsRead       int               `json:"rows_read"`
	RowsDropped    int               `json:"rows_dropped"`
	DroppedRows    []core.DroppedRow `json:"dropped_rows,omitempty"`
	DroppedColumns []string          `json:"dropped_columns,omitempty"`
	Status         string            `json:"status"`
}

type uploadSummaryResponse struct {
	core.Summary
	FileInfo fileInfo `json:"file_info"`
}

type uploadAnalyticsResponse struct {
	core.Analytics
	FileInfo fileInfo `json:"file_info"`
}

// handleUpload analyzes a multipart upload and returns its Summary.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzeUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, true))
		return
	}
	writeJSON(w, r, uploadSummaryResponse{
		Summary:  res.Analytics.Summary,
		FileInfo: newFileInfo(res),
	})
}

// handleUploadAnalytics analyzes a multipart upload and returns every view.
func (s *Server) handleUploadAnalytics(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzeUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, true))
		return
	}
	writeJSON(w, r, uploadAnalyticsResponse{
		Analytics: res.Analytics,
		FileInfo:  newFileInfo(res),
	})
}

// analyzeUpload reads the "file" form field and runs it through the service.
func (s *Server) analyzeUpload(w http.ResponseWriter, r *http.Request) (*core.UploadResult, error) {
	file, header, err := s.formFile(w, r)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	ctx := withClientIP(r.Context(), r)
	return s.service.AnalyzeUpload(ctx, name, header.Size, file)
}

// formFile validates size and extension of the uploaded file.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
		}
		return nil, nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}

	if !s.allowedExtension(header.Filename) {
		file.Close()
		return nil, nil, fmt.Errorf("%w: %q", errUnsupportedType, filepath.Ext(header.Filename))
	}
	return file, header, nil
}

func (s *Server) allowedExtension(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, allowed := range s.cfg.Upload.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}

func newFileInfo(res *core.UploadResult) fileInfo {
	report := res.Table.Report()
	return fileInfo{
		UploadID:       res.Record.ID,
		Filename:       res.Record.FileName,
		TotalRecords:   report.RowsKept,
		RowsRead:       report.RowsRead,
		RowsDropped:    report.RowsDropped(),
		DroppedRows:    report.DroppedRows,
		DroppedColumns: report.DroppedColumns,
		Status:         res.Record.Status,
	}
}
