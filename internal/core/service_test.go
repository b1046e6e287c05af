package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, csv string) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trials.csv")
	if csv != "" {
		require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	}
	return NewService(Options{DataPath: path})
}

func TestService_DefaultDataset(t *testing.T) {
	svc := newTestService(t, exampleCSV)
	ctx := context.Background()

	s, tbl, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalPatients)
	assert.Equal(t, 3, tbl.Report().RowsKept)

	a, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, a.Summary)
}

func TestService_DefaultDatasetMissing(t *testing.T) {
	svc := newTestService(t, "")

	_, _, err := svc.Summary(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestService_AnalyzeUpload(t *testing.T) {
	svc := newTestService(t, exampleCSV)
	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")

	csv := exampleCSV + "P004,Boston,2024-02-10,unknown,false,true\n"
	res, err := svc.AnalyzeUpload(ctx, "upload.csv", int64(len(csv)), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Analytics.Summary.TotalPatients)
	assert.Equal(t, StatusSuccess, res.Record.Status)
	assert.Equal(t, 4, res.Record.RowsRead)
	assert.Equal(t, 1, res.Record.RowsDropped)
	assert.Equal(t, "10.0.0.7", res.Record.ClientIP)

	hist, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, res.Record.ID, hist[0].ID)
}

func TestService_AnalyzeUploadFailureRecorded(t *testing.T) {
	svc := newTestService(t, exampleCSV)
	ctx := context.Background()

	_, err := svc.AnalyzeUpload(ctx, "empty.csv", 0, strings.NewReader(""))
	require.ErrorIs(t, err, ErrDataUnavailable)

	hist, _ := svc.History(ctx, 10)
	require.Len(t, hist, 1)
	assert.Equal(t, StatusError, hist[0].Status)
	assert.Equal(t, ReasonEmpty, hist[0].Error)
}

func TestService_AnalyzeUploadBusy(t *testing.T) {
	limiter := NewUploadLimiter(1, 10*time.Millisecond)
	svc := NewService(Options{Limiter: limiter})
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))
	defer limiter.Release()

	_, err := svc.AnalyzeUpload(ctx, "x.csv", 0, strings.NewReader(exampleCSV))
	assert.True(t, errors.Is(err, ErrTooManyUploads))
	assert.Equal(t, 1, svc.LimiterStatus().Active)
}

func TestService_Thresholds(t *testing.T) {
	th := Thresholds{MinCompletionRate: 10, MaxAdverseEventRate: 90, AECompletionGap: 90}
	svc := NewService(Options{Thresholds: &th})
	assert.Equal(t, th, svc.Thresholds())
	assert.Equal(t, DefaultThresholds(), NewService(Options{}).Thresholds())
}

func TestService_PruneHistory(t *testing.T) {
	hist := NewMemoryHistory(10)
	svc := NewService(Options{History: hist})
	ctx := context.Background()

	_, _ = hist.Record(ctx, UploadRecord{FileName: "old.csv", CreatedAt: time.Now().AddDate(0, 0, -90)})
	n, err := svc.PruneHistory(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_StartHistoryPrunerStops(t *testing.T) {
	svc := NewService(Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartHistoryPruner(ctx, 30, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop after cancel")
	}
}
