package core

// history.go keeps metadata about processed uploads: who sent which file,
// how many rows survived cleaning, and whether analysis succeeded. Analytics
// results are never stored.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Upload statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// UploadRecord describes one processed upload.
type UploadRecord struct {
	ID          string    `json:"id" yaml:"id"`
	FileName    string    `json:"file_name" yaml:"file_name"`
	SizeBytes   int64     `json:"size_bytes" yaml:"size_bytes"`
	RowsRead    int       `json:"rows_read" yaml:"rows_read"`
	RowsKept    int       `json:"rows_kept" yaml:"rows_kept"`
	RowsDropped int       `json:"rows_dropped" yaml:"rows_dropped"`
	Status      string    `json:"status" yaml:"status"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	ClientIP    string    `json:"client_ip,omitempty" yaml:"client_ip,omitempty"`
	DurationMs  int64     `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// HistoryStore persists UploadRecords.
type HistoryStore interface {
	// Record stores rec. ID and CreatedAt are filled in when empty.
	Record(ctx context.Context, rec UploadRecord) (UploadRecord, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]UploadRecord, error)
	// Prune deletes records created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// stamp assigns an ID and timestamp to rec when missing.
func stamp(rec UploadRecord) UploadRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

// MemoryHistory is a bounded in-process HistoryStore. Once full, the oldest
// record is evicted.
type MemoryHistory struct {
	mu      sync.RWMutex
	limit   int
	records []UploadRecord // oldest first
}

// NewMemoryHistory creates a store holding at most limit records.
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = 200
	}
	return &MemoryHistory{limit: limit}
}

func (m *MemoryHistory) Record(_ context.Context, rec UploadRecord) (UploadRecord, error) {
	rec = stamp(rec)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == m.limit {
		m.records = append(m.records[:0], m.records[1:]...)
	}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *MemoryHistory) Recent(_ context.Context, limit int) ([]UploadRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]UploadRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MemoryHistory) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, r := range m.records {
		if !r.CreatedAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	pruned := int64(len(m.records) - len(kept))
	m.records = kept
	return pruned, nil
}
