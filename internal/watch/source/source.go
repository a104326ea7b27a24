// Package source locates and incrementally reads the monitored
// application's log files.
//
// The source is poll-driven: each Poll call drains at most a configured
// number of bytes of new, complete lines per file and returns them as
// LogEvents. A per-file cursor tracks the byte offset and a head
// fingerprint of the file generation; when the fingerprint changes the
// file was rotated and reading restarts at offset zero of the new
// generation. Lines trapped in a rotated-away generation are skipped,
// never recovered.
//
// A missing file is not an error — the application may simply not have
// started yet — and neither is transient lock contention: both yield an
// empty batch and are retried on the next poll.
package source

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/communityambulance/mtrepair/internal/core/domain"
	"github.com/communityambulance/mtrepair/internal/watch/metrics"
)

// Cursor is the read position within one log file generation.
type Cursor struct {
	Path        string
	Offset      int64
	Line        int
	Fingerprint Fingerprint
}

// Source incrementally reads the configured log files.
type Source struct {
	paths    []string
	maxBytes int64
	log      *slog.Logger

	// mu guards cursors against the health server's snapshot reads;
	// polls themselves never run concurrently.
	mu      sync.Mutex
	cursors map[string]*Cursor
}

// New creates a Source over the given fixed log paths. maxBytes bounds how
// much backlog one Poll drains per file.
func New(paths []string, maxBytes int64, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{
		paths:    paths,
		maxBytes: maxBytes,
		cursors:  make(map[string]*Cursor),
		log:      log,
	}
}

// Cursors returns a snapshot of the per-file cursors, for status reporting.
func (s *Source) Cursors() []Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Cursor, 0, len(s.cursors))
	for _, c := range s.cursors {
		out = append(out, *c)
	}
	return out
}

// Poll reads new complete lines from every configured file. The returned
// batch is finite and bounded; large backlogs are drained across calls.
func (s *Source) Poll(ctx context.Context) []domain.LogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.LogEvent
	for _, path := range s.paths {
		if ctx.Err() != nil {
			break
		}
		events = append(events, s.pollFile(path)...)
	}
	return events
}

func (s *Source) pollFile(path string) []domain.LogEvent {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debug("log file not present yet", "path", path)
		} else {
			// Lock contention or permission hiccup: retry next cycle.
			s.log.Debug("log file open failed, will retry", "path", path, "error", err)
		}
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.log.Debug("log file stat failed", "path", path, "error", err)
		return nil
	}
	size := info.Size()

	cur, seen := s.cursors[path]
	if !seen {
		// First observation of this file: record the current generation
		// and start at end-of-file. Errors already in the backlog predate
		// the watchdog and must not trigger repairs.
		fp, err := takeFingerprint(f, size)
		if err != nil {
			s.log.Debug("fingerprint failed", "path", path, "error", err)
			return nil
		}
		s.cursors[path] = &Cursor{Path: path, Offset: size, Fingerprint: fp}
		s.log.Info("log file discovered", "path", path, "size", size)
		return nil
	}

	if cur.Fingerprint.Zero() && size == 0 {
		// Discovered empty and still empty.
		return nil
	}

	same, err := cur.Fingerprint.matches(f, size)
	if err != nil {
		s.log.Debug("fingerprint check failed", "path", path, "error", err)
		return nil
	}
	if !same || size < cur.Offset {
		// Rotated or truncated: restart at the head of the new generation.
		fp, err := takeFingerprint(f, size)
		if err != nil {
			s.log.Debug("fingerprint failed after rotation", "path", path, "error", err)
			return nil
		}
		s.log.Info("log file rotated", "path", path, "old_offset", cur.Offset, "new_size", size)
		cur.Offset = 0
		cur.Line = 0
		cur.Fingerprint = fp
	}

	if size == cur.Offset {
		return nil
	}

	return s.readLines(f, cur, size)
}

// readLines drains up to maxBytes of complete lines starting at the cursor
// offset. A trailing partial line stays unread until the writer finishes it.
func (s *Source) readLines(f *os.File, cur *Cursor, size int64) []domain.LogEvent {
	budget := size - cur.Offset
	if budget > s.maxBytes {
		budget = s.maxBytes
	}

	buf := make([]byte, budget)
	n, err := f.ReadAt(buf, cur.Offset)
	if err != nil && err != io.EOF {
		s.log.Debug("log read failed, will retry", "path", cur.Path, "error", err)
		return nil
	}
	buf = buf[:n]

	// Only consume through the last newline; the remainder is incomplete.
	last := bytes.LastIndexByte(buf, '\n')
	if last < 0 {
		if int64(n) == s.maxBytes {
			// A single line larger than the whole budget would wedge the
			// cursor forever; consume and emit it as-is.
			last = n - 1
		} else {
			return nil
		}
	}
	chunk := buf[:last+1]

	var events []domain.LogEvent
	offset := cur.Offset
	for len(chunk) > 0 {
		var line []byte
		if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
			line, chunk = chunk[:i], chunk[i+1:]
		} else {
			line, chunk = chunk, nil
		}
		cur.Line++
		metrics.LinesScanned.WithLabelValues(cur.Path).Inc()
		text := string(bytes.TrimRight(line, "\r"))
		if text != "" {
			events = append(events, parseLine(text, cur.Path, offset, cur.Line))
		}
		offset += int64(len(line)) + 1
	}

	cur.Offset = cur.Offset + int64(last) + 1
	return events
}
