// Package logging provides the service's own log output. The watched
// application owns the log file being monitored; this package owns where
// the watcher itself writes, and it must keep writing even when the
// preferred destination disappears mid-run.
package logging

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/watch/metrics"
)

const (
	operationalFile = "mtrepair.log"
	debugFile       = "mtrepair-debug.log"
)

// Context owns both log streams for a single service run. It is passed
// by reference to every component; there are no package-level logger
// globals. A logging failure never propagates into the pipeline: writes
// that fail trigger a re-probe of the candidate directories and are
// otherwise swallowed.
type Context struct {
	cfg config.LoggingConfig

	mu  sync.Mutex
	dir string
	op  *sink
	dbg *sink

	opLog  *slog.Logger
	dbgLog *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Init probes the candidate directories, opens both streams in the
// winner, records the location pointer, and starts the background
// flusher. Init itself cannot fail: if every candidate is unwritable
// the streams are discarded and the service runs log-blind rather than
// not at all.
func Init(cfg config.LoggingConfig) *Context {
	c := &Context{
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	c.openLocked(pickDir(cfg.CandidateDirs))

	level := parseLevel(cfg.Level)
	c.opLog = slog.New(slog.NewTextHandler(&stream{c: c, debug: false}, &slog.HandlerOptions{Level: level}))
	c.dbgLog = slog.New(slog.NewTextHandler(&stream{c: c, debug: true}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = 2 * time.Second
	}
	go c.flushLoop(flush)
	return c
}

// Operational is the stream an operator reads: lifecycle, detections,
// repair outcomes.
func (c *Context) Operational() *slog.Logger { return c.opLog }

// Debug is the high-volume diagnostic stream.
func (c *Context) Debug() *slog.Logger { return c.dbgLog }

// Location returns the directory currently receiving log writes.
func (c *Context) Location() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dir
}

// Close stops the flusher and closes both streams. Safe to call more
// than once.
func (c *Context) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.op != nil {
		c.op.Close()
	}
	if c.dbg != nil {
		c.dbg.Close()
	}
	c.op, c.dbg = nil, nil
}

func (c *Context) flushLoop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.op != nil {
				c.op.Sync()
			}
			if c.dbg != nil {
				c.dbg.Sync()
			}
			c.mu.Unlock()
		}
	}
}

// openLocked opens both sinks in dir and refreshes the pointer file.
// Callers hold no lock during Init; afterwards c.mu is required.
func (c *Context) openLocked(dir string) {
	opPath := filepath.Join(dir, operationalFile)
	dbgPath := filepath.Join(dir, debugFile)

	op, err := newSink(opPath, c.cfg.MaxFileSize)
	if err != nil {
		op = nil
	}
	dbg, err := newSink(dbgPath, 0)
	if err != nil {
		dbg = nil
	}

	c.dir = dir
	c.op = op
	c.dbg = dbg
	writePointer(dir, opPath, dbgPath)
}

// fallback re-probes the candidates and reopens both streams. Called
// with c.mu held, after a write to either stream has failed.
func (c *Context) fallback() {
	metrics.LoggerFallbacks.Inc()
	if c.op != nil {
		c.op.Close()
	}
	if c.dbg != nil {
		c.dbg.Close()
	}
	c.openLocked(pickDir(c.cfg.CandidateDirs))
}

// stream adapts one side of the Context to io.Writer for slog. Write
// never returns an error: a failed write triggers a fallback and a
// single retry, and anything still failing is dropped.
type stream struct {
	c     *Context
	debug bool
}

func (w *stream) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()

	if _, err := w.writeLocked(p); err != nil {
		w.c.fallback()
		w.writeLocked(p)
	}
	return len(p), nil
}

func (w *stream) writeLocked(p []byte) (int, error) {
	s := w.c.op
	if w.debug {
		s = w.c.dbg
	}
	if s == nil {
		return 0, nil
	}
	return s.Write(p)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
