// Package memory provides an in-memory HistoryRepository for tests and
// for deployments that run without a history database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
	"github.com/communityambulance/mtrepair/internal/infra/storage"
)

// HistoryRepo implements storage.HistoryRepository in memory.
type HistoryRepo struct {
	mu      sync.RWMutex
	records []*domain.AttemptRecord
}

// NewHistoryRepo creates an empty in-memory history repository.
func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

func (r *HistoryRepo) Append(ctx context.Context, rec *domain.AttemptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *HistoryRepo) RecentByKind(
	ctx context.Context,
	kind domain.ErrorKind,
	limit int,
) ([]*domain.AttemptRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.AttemptRecord
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].Kind == kind {
			cp := *r.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *HistoryRepo) Summary(ctx context.Context) ([]storage.KindSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct {
		kind    domain.ErrorKind
		outcome domain.Outcome
	}
	agg := make(map[key]*storage.KindSummary)
	var order []key

	for _, rec := range r.records {
		k := key{rec.Kind, rec.Outcome}
		s, ok := agg[k]
		if !ok {
			s = &storage.KindSummary{Kind: rec.Kind, Outcome: rec.Outcome}
			agg[k] = s
			order = append(order, k)
		}
		s.Count++
		if rec.FinishedAt.After(s.LastAttempt) {
			s.LastAttempt = rec.FinishedAt
		}
	}

	out := make([]storage.KindSummary, 0, len(order))
	for _, k := range order {
		out = append(out, *agg[k])
	}
	return out, nil
}

func (r *HistoryRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	var removed int64
	for _, rec := range r.records {
		if rec.FinishedAt.Before(threshold) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return removed, nil
}
