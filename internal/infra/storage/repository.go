// Package storage defines the repository interfaces for the remediation
// audit trail. Implementations live in subpackages: sqlite for durable
// history, memory for tests and history-less deployments.
package storage

import (
	"context"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// HistoryRepository persists remediation attempt records. The dispatcher's
// in-memory cooldown state is deliberately not stored here — repairs are
// idempotent and cooldowns reset on restart — but the attempt history is
// durable so operators can diagnose what the watchdog did and when.
type HistoryRepository interface {
	// Append stores one attempt record.
	Append(ctx context.Context, rec *domain.AttemptRecord) error

	// RecentByKind returns up to limit records for the kind, newest first.
	RecentByKind(ctx context.Context, kind domain.ErrorKind, limit int) ([]*domain.AttemptRecord, error)

	// Summary returns attempt counts per kind and outcome.
	Summary(ctx context.Context) ([]KindSummary, error)

	// DeleteOlderThan prunes records finished before the threshold and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}

// KindSummary aggregates attempt history for one kind and outcome.
type KindSummary struct {
	Kind        domain.ErrorKind `db:"kind"`
	Outcome     domain.Outcome   `db:"outcome"`
	Count       int              `db:"count"`
	LastAttempt time.Time        `db:"last_attempt"`
}
