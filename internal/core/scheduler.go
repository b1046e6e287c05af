package core

// scheduler.go runs the upload history retention job.

import (
	"context"
	"log/slog"
	"time"
)

// PruneHistory deletes history records older than retentionDays.
func (s *Service) PruneHistory(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	return s.history.Prune(ctx, cutoff)
}

// StartHistoryPruner prunes once immediately and then every interval until
// ctx is cancelled. Failures are logged and the next run proceeds.
func (s *Service) StartHistoryPruner(ctx context.Context, retentionDays int, interval time.Duration) {
	slog.Info("history pruner started",
		"retention_days", retentionDays,
		"interval", interval.String(),
	)

	s.runPrune(ctx, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.runPrune(ctx, retentionDays)
		}
	}
}

func (s *Service) runPrune(ctx context.Context, retentionDays int) {
	start := time.Now()
	n, err := s.PruneHistory(ctx, retentionDays)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("history pruned",
		"records_pruned", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
