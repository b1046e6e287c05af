package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS upload_history (
	id           UUID PRIMARY KEY,
	file_name    TEXT NOT NULL,
	size_bytes   BIGINT NOT NULL DEFAULT 0,
	rows_read    INTEGER NOT NULL DEFAULT 0,
	rows_kept    INTEGER NOT NULL DEFAULT 0,
	rows_dropped INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	client_ip    TEXT NOT NULL DEFAULT '',
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS upload_history_created_at_idx ON upload_history (created_at DESC);
`

// PgHistory is a HistoryStore backed by PostgreSQL.
type PgHistory struct {
	pool *pgxpool.Pool
}

// NewPgHistory wraps pool. Call EnsureSchema once before use.
func NewPgHistory(pool *pgxpool.Pool) *PgHistory {
	return &PgHistory{pool: pool}
}

// EnsureSchema creates the upload_history table if it does not exist.
func (p *PgHistory) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("create upload_history: %w", err)
	}
	return nil
}

func (p *PgHistory) Record(ctx context.Context, rec UploadRecord) (UploadRecord, error) {
	rec = stamp(rec)
	_, err := p.pool.Exec(ctx, `
		INSERT INTO upload_history
			(id, file_name, size_bytes, rows_read, rows_kept, rows_dropped, status, error, client_ip, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.FileName, rec.SizeBytes, rec.RowsRead, rec.RowsKept, rec.RowsDropped,
		rec.Status, rec.Error, rec.ClientIP, rec.DurationMs, rec.CreatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("insert upload record: %w", err)
	}
	return rec, nil
}

func (p *PgHistory) Recent(ctx context.Context, limit int) ([]UploadRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, file_name, size_bytes, rows_read, rows_kept, rows_dropped,
		       status, error, client_ip, duration_ms, created_at
		FROM upload_history
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query upload history: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UploadRecord, error) {
		var r UploadRecord
		err := row.Scan(&r.ID, &r.FileName, &r.SizeBytes, &r.RowsRead, &r.RowsKept, &r.RowsDropped,
			&r.Status, &r.Error, &r.ClientIP, &r.DurationMs, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan upload history: %w", err)
	}
	return records, nil
}

func (p *PgHistory) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM upload_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune upload history: %w", err)
	}
	return tag.RowsAffected(), nil
}
