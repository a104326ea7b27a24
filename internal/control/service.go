// Package control wires the watch pipeline together and manages its
// lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/core/worker"
	"github.com/communityambulance/mtrepair/internal/infra/logging"
	"github.com/communityambulance/mtrepair/internal/infra/storage"
	"github.com/communityambulance/mtrepair/internal/infra/storage/memory"
	"github.com/communityambulance/mtrepair/internal/infra/storage/sqlite"
	"github.com/communityambulance/mtrepair/internal/repair"
	"github.com/communityambulance/mtrepair/internal/watch/classify"
	"github.com/communityambulance/mtrepair/internal/watch/dispatch"
	"github.com/communityambulance/mtrepair/internal/watch/health"
	"github.com/communityambulance/mtrepair/internal/watch/metrics"
	"github.com/communityambulance/mtrepair/internal/watch/source"
)

// Service is the main application struct that manages the watch lifecycle.
type Service struct {
	cfg config.AppConfig

	logCtx     *logging.Context
	db         *sqlite.DB
	history    storage.HistoryRepository
	source     *source.Source
	classifier *classify.Classifier
	dispatcher *dispatch.Dispatcher
	pruner     *worker.Pruner
	healthMon  *health.Monitor
	healthSrv  *health.Server

	log   *slog.Logger
	debug *slog.Logger

	running atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewService creates a Service with all dependencies initialized.
func NewService(cfg config.AppConfig) (*Service, error) {
	logCtx := logging.Init(cfg.Logging)
	log := logCtx.Operational()
	dbg := logCtx.Debug()

	// 1. History store: sqlite when a path is configured, memory otherwise.
	var db *sqlite.DB
	var history storage.HistoryRepository
	if cfg.History.Path != "" {
		var err error
		db, err = sqlite.NewDB(context.Background(), cfg.History.Path)
		if err != nil {
			logCtx.Close()
			return nil, fmt.Errorf("failed to init history db: %w", err)
		}
		history = sqlite.NewHistoryRepo(db)
		log.Info("using sqlite history store", "path", cfg.History.Path)
	} else {
		history = memory.NewHistoryRepo()
		log.Info("using in-memory history store")
	}

	// 2. Pipeline components.
	src := source.New(cfg.Monitor.LogPaths, cfg.Monitor.MaxBytesPerPoll, dbg)
	classifier := classify.New(classify.DefaultRules())
	provider := repair.NewExecProvider(cfg.Repair, dbg)
	dispatcher := dispatch.New(cfg.Remediation, provider, history, log, dbg)

	// 3. Health surface.
	healthMon := health.NewMonitor(
		cfg.Monitor.LogPaths,
		cfg.Monitor.PollInterval,
		dispatcher,
		src,
		logCtx,
	)
	healthSrv := health.NewServer(healthMon, cfg.Server.Port)

	return &Service{
		cfg:        cfg,
		logCtx:     logCtx,
		db:         db,
		history:    history,
		source:     src,
		classifier: classifier,
		dispatcher: dispatcher,
		pruner:     worker.NewPruner(cfg.History, history, dbg),
		healthMon:  healthMon,
		healthSrv:  healthSrv,
		log:        log,
		debug:      dbg,
	}, nil
}

// Start launches the cycle loop, health server, and history pruner.
// It returns immediately; Stop shuts everything down.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("service already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	s.group = g

	s.log.Info("starting watch service",
		"paths", s.cfg.Monitor.LogPaths,
		"poll_interval", s.cfg.Monitor.PollInterval,
		"port", s.cfg.Server.Port,
	)

	g.Go(func() error {
		if err := s.healthSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.pruner.Start(gctx)
		return nil
	})
	g.Go(func() error {
		s.runCycles(gctx)
		return nil
	})

	return nil
}

// Stop shuts the service down: cancel the loops, drain them within the
// grace period of ctx, close the history store, and close the logging
// context last so shutdown itself is still logged. An in-flight repair
// is never killed here; it runs to its own attempt timeout, and Stop
// proceeds without it once the grace period expires.
func (s *Service) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}
	s.log.Info("stopping watch service")

	s.cancel()
	if err := s.healthSrv.Stop(ctx); err != nil {
		s.log.Warn("health server shutdown failed", "error", err)
	}

	drained := make(chan error, 1)
	go func() { drained <- s.group.Wait() }()
	var err error
	select {
	case err = <-drained:
	case <-ctx.Done():
		err = ctx.Err()
		s.log.Warn("grace period expired before loops drained, proceeding")
	}

	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.log.Warn("failed to close history db", "error", cerr)
		}
	}

	s.log.Info("watch service stopped")
	s.running.Store(false)
	s.logCtx.Close()
	return err
}

// runCycles drives the fixed-interval poll-classify-dispatch loop. The
// first cycle runs immediately so a failure already in the log gets
// acted on without waiting a full interval.
func (s *Service) runCycles(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Monitor.PollInterval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one poll-classify-dispatch pass. A panic anywhere in the
// pass is contained here so the next tick still runs.
func (s *Service) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cycle panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, s.cfg.Monitor.CycleTimeout)
	defer cancel()

	for _, ev := range s.source.Poll(cctx) {
		ce, ok := s.classifier.Classify(ev)
		if !ok {
			continue
		}
		s.log.Warn("known failure signature detected",
			"kind", ce.Kind,
			"rule", ce.RuleID,
			"line", ev.Raw,
		)
		s.dispatcher.Dispatch(cctx, ce)
	}

	took := time.Since(start)
	metrics.CycleDuration.Observe(took.Seconds())
	s.healthMon.RecordCycle(time.Now(), took)
	s.debug.Debug("cycle complete", "took", took)
}

// Health returns the current aggregated health report.
func (s *Service) Health() health.Report {
	return s.healthMon.CheckHealth()
}
