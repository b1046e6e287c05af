package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/trialstats/internal/logging"
)

// Service ties the loader and the statistics engine to the default dataset,
// the upload limiter and upload history. Analytics are recomputed on every
// call; nothing is cached.
type Service struct {
	dataPath   string
	thresholds Thresholds
	limiter    *UploadLimiter
	history    HistoryStore
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	DataPath   string
	Thresholds *Thresholds
	Limiter    *UploadLimiter
	History    HistoryStore
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	s := &Service{
		dataPath:   opts.DataPath,
		thresholds: DefaultThresholds(),
		limiter:    opts.Limiter,
		history:    opts.History,
	}
	if opts.Thresholds != nil {
		s.thresholds = *opts.Thresholds
	}
	if s.limiter == nil {
		s.limiter = NewUploadLimiter(0, 0)
	}
	if s.history == nil {
		s.history = NewMemoryHistory(0)
	}
	return s
}

// DataPath returns the path of the default dataset.
func (s *Service) DataPath() string { return s.dataPath }

// Thresholds returns the insight thresholds in use.
func (s *Service) Thresholds() Thresholds { return s.thresholds }

// DefaultTable loads the default dataset. The file is opened fresh on every
// call.
func (s *Service) DefaultTable(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Loader{Logger: logging.FromContext(ctx)}.Load(s.dataPath)
}

// Summary loads the default dataset and summarizes it.
func (s *Service) Summary(ctx context.Context) (Summary, *Table, error) {
	t, err := s.DefaultTable(ctx)
	if err != nil {
		return Summary{}, nil, err
	}
	return Summarize(t), t, nil
}

// Analytics loads the default dataset and computes every view.
func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	t, err := s.DefaultTable(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return Analyze(t, s.thresholds), nil
}

// UploadResult is the outcome of a successful upload analysis.
type UploadResult struct {
	Record    UploadRecord
	Table     *Table
	Analytics Analytics
}

// AnalyzeUpload loads r as a table named name, computes every view and
// records the attempt in upload history. It waits for an analysis slot
// first and fails with ErrTooManyUploads when none frees up.
func (s *Service) AnalyzeUpload(ctx context.Context, name string, size int64, r io.Reader) (*UploadResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	log := logging.WithFields(ctx, "file", name)
	start := time.Now()

	rec := UploadRecord{
		FileName:  name,
		SizeBytes: size,
		ClientIP:  ClientIPFromContext(ctx),
	}

	t, err := Loader{Logger: log}.LoadReader(r, name)
	rec.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		rec.Status = StatusError
		rec.Error = err.Error()
		var dataErr *DataUnavailableError
		if errors.As(err, &dataErr) {
			rec.Error = dataErr.Reason
		}
		s.record(ctx, rec)
		return nil, fmt.Errorf("analyze %s: %w", name, err)
	}

	report := t.Report()
	rec.Status = StatusSuccess
	rec.RowsRead = report.RowsRead
	rec.RowsKept = report.RowsKept
	rec.RowsDropped = report.RowsDropped()
	rec = s.record(ctx, rec)

	log.Info("upload analyzed",
		"upload_id", rec.ID,
		"rows_kept", rec.RowsKept,
		"rows_dropped", rec.RowsDropped,
		"duration_ms", rec.DurationMs,
	)

	return &UploadResult{
		Record:    rec,
		Table:     t,
		Analytics: Analyze(t, s.thresholds),
	}, nil
}

// record stores rec, logging instead of failing when the store errors.
// The history write outlives request cancellation.
func (s *Service) record(ctx context.Context, rec UploadRecord) UploadRecord {
	stored, err := s.history.Record(context.WithoutCancel(ctx), rec)
	if err != nil {
		logging.FromContext(ctx).Error("record upload history", "error", err)
	}
	return stored
}

// History returns up to limit recent upload records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]UploadRecord, error) {
	return s.history.Recent(ctx, limit)
}

// WaitForUploads blocks until in-flight upload analyses finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus reports upload slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}
