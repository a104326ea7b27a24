package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
	"github.com/communityambulance/mtrepair/internal/infra/storage"
)

// HistoryRepo implements storage.HistoryRepository using sqlite.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a sqlite-backed history repository.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append stores one attempt record.
func (r *HistoryRepo) Append(ctx context.Context, rec *domain.AttemptRecord) error {
	query := `
		INSERT INTO attempts (id, kind, attempt, outcome, reason, trigger_raw, started_at, finished_at)
		VALUES (:id, :kind, :attempt, :outcome, :reason, :trigger_raw, :started_at, :finished_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to append attempt: %w", err)
	}
	return nil
}

// RecentByKind returns up to limit records for the kind, newest first.
func (r *HistoryRepo) RecentByKind(
	ctx context.Context,
	kind domain.ErrorKind,
	limit int,
) ([]*domain.AttemptRecord, error) {
	query := `
		SELECT id, kind, attempt, outcome, reason, trigger_raw, started_at, finished_at
		FROM attempts
		WHERE kind = ?
		ORDER BY finished_at DESC
		LIMIT ?
	`
	var out []*domain.AttemptRecord
	if err := r.db.SelectContext(ctx, &out, query, string(kind), limit); err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	return out, nil
}

// Summary returns attempt counts per kind and outcome.
func (r *HistoryRepo) Summary(ctx context.Context) ([]storage.KindSummary, error) {
	query := `
		SELECT kind, outcome, COUNT(*) AS count, MAX(finished_at) AS last_attempt
		FROM attempts
		GROUP BY kind, outcome
		ORDER BY kind, outcome
	`
	var out []storage.KindSummary
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("failed to summarize attempts: %w", err)
	}
	return out, nil
}

// DeleteOlderThan prunes records finished before the threshold.
func (r *HistoryRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attempts WHERE finished_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}
	return res.RowsAffected()
}
