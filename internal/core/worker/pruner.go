package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/infra/storage"
)

// Pruner deletes old remediation history based on retention policy.
type Pruner struct {
	cfg     config.HistoryConfig
	history storage.HistoryRepository
	log     *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(cfg config.HistoryConfig, history storage.HistoryRepository, log *slog.Logger) *Pruner {
	if log == nil {
		log = slog.Default()
	}
	return &Pruner{cfg: cfg, history: history, log: log}
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.cfg.Retention <= 0 || p.history == nil {
		return // Retention disabled
	}

	// Check interval: 10% of retention, clamped to [1m, 1h].
	interval := min(p.cfg.Retention/10, time.Hour)
	interval = max(interval, time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.cfg.Retention)

	removed, err := p.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.log.Error("failed to prune remediation history", "error", err)
		return
	}
	if removed > 0 {
		p.log.Debug("pruned remediation history", "removed", removed, "cutoff", cutoff)
	}
}
