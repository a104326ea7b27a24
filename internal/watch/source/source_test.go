package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append %s: %v", path, err)
	}
}

func TestPoll_MissingFileYieldsNothing(t *testing.T) {
	src := New([]string{filepath.Join(t.TempDir(), "absent.log")}, 1<<20, nil)
	if events := src.Poll(context.Background()); len(events) != 0 {
		t.Errorf("expected no events for missing file, got %d", len(events))
	}
}

func TestPoll_InitialLoadSkipsBacklog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobiletouch.log")
	writeFile(t, path, "2025-05-26 09:33:40,383 ERROR Stores not correctly set up, db\n")

	src := New([]string{path}, 1<<20, nil)

	// First poll primes the cursor at end-of-file: stale errors that
	// predate the watchdog must not trigger repairs.
	if events := src.Poll(context.Background()); len(events) != 0 {
		t.Fatalf("expected initial poll to emit nothing, got %d events", len(events))
	}

	appendFile(t, path, "2025-05-26 09:33:41,000 INFO app started\n")
	events := src.Poll(context.Background())
	if len(events) != 1 {
		t.Fatalf("expected 1 new event, got %d", len(events))
	}
	if events[0].Message != "app started" {
		t.Errorf("unexpected message: %q", events[0].Message)
	}
}

func TestPoll_IncrementalReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobiletouch.log")
	writeFile(t, path, "")

	src := New([]string{path}, 1<<20, nil)
	src.Poll(context.Background()) // prime

	appendFile(t, path, "2025-05-26 10:00:00,000 INFO one\n2025-05-26 10:00:01,000 INFO two\n")
	events := src.Poll(context.Background())
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Message != "one" || events[1].Message != "two" {
		t.Errorf("unexpected messages: %q, %q", events[0].Message, events[1].Message)
	}

	// Nothing new: second poll drains nothing.
	if events := src.Poll(context.Background()); len(events) != 0 {
		t.Errorf("expected no events on idle poll, got %d", len(events))
	}
}

func TestPoll_PartialLineHeldBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobiletouch.log")
	writeFile(t, path, "")

	src := New([]string{path}, 1<<20, nil)
	src.Poll(context.Background())

	appendFile(t, path, "2025-05-26 10:00:00,000 INFO complete\n2025-05-26 10:00:01,000 INFO part")
	events := src.Poll(context.Background())
	if len(events) != 1 {
		t.Fatalf("expected only the complete line, got %d events", len(events))
	}

	appendFile(t, path, "ial done\n")
	events = src.Poll(context.Background())
	if len(events) != 1 {
		t.Fatalf("expected finished line, got %d events", len(events))
	}
	if events[0].Message != "partial done" {
		t.Errorf("unexpected message: %q", events[0].Message)
	}
}

func TestPoll_RotationResetsToNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobiletouch.log")
	writeFile(t, path, "2025-05-26 09:00:00,000 INFO old generation padding line\n")

	src := New([]string{path}, 1<<20, nil)
	src.Poll(context.Background()) // prime mid-file (at EOF of old generation)

	appendFile(t, path, "2025-05-26 09:00:01,000 INFO unread tail\n")

	// Replace with a new, shorter file with different head content.
	writeFile(t, path, "2025-05-26 11:00:00,000 INFO fresh\n")

	events := src.Poll(context.Background())
	if len(events) != 1 {
		t.Fatalf("expected exactly the new generation's line, got %d events", len(events))
	}
	if events[0].Message != "fresh" {
		t.Errorf("stale line re-emitted: %q", events[0].Message)
	}
	if events[0].Offset != 0 {
		t.Errorf("expected read from offset 0 of new file, got %d", events[0].Offset)
	}
}

func TestPoll_ByteBudgetDrainsAcrossCycles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobiletouch.log")
	writeFile(t, path, "")

	src := New([]string{path}, 40, nil)
	src.Poll(context.Background())

	appendFile(t, path, "short line one\nshort line two\nshort line three\n")

	first := src.Poll(context.Background())
	second := src.Poll(context.Background())
	if len(first)+len(second) != 3 {
		t.Fatalf("expected 3 events total across cycles, got %d + %d", len(first), len(second))
	}
	if len(first) >= 3 {
		t.Errorf("budget not enforced: first poll drained everything")
	}
}

func TestParseLine_StandardEntry(t *testing.T) {
	ev := parseLine("2025-05-26 09:33:40,383 INFO JS API: getNativeVersion returned: 2023.2.208", "p", 0, 1)
	if ev.Level != domain.LevelInfo {
		t.Errorf("expected INFO, got %s", ev.Level)
	}
	if ev.Message != "JS API: getNativeVersion returned: 2023.2.208" {
		t.Errorf("unexpected message: %q", ev.Message)
	}
	want := time.Date(2025, 5, 26, 9, 33, 40, 383_000_000, time.Local)
	if !ev.Timestamp.Equal(want) {
		t.Errorf("expected %v, got %v", want, ev.Timestamp)
	}
}

func TestParseLine_MalformedEntryKeepsRaw(t *testing.T) {
	raw := "no timestamp here"
	ev := parseLine(raw, "p", 10, 2)
	if !ev.Timestamp.IsZero() {
		t.Errorf("expected zero timestamp, got %v", ev.Timestamp)
	}
	if ev.Raw != raw || ev.Message != raw {
		t.Errorf("raw text not preserved: %q", ev.Raw)
	}
	if ev.Level != domain.LevelInfo {
		t.Errorf("expected INFO fallback, got %s", ev.Level)
	}
}

func TestParseLine_UnknownLevelFallsBackToInfo(t *testing.T) {
	ev := parseLine("2025-05-26 09:33:40,383 NOTICE something happened", "p", 0, 1)
	if ev.Level != domain.LevelInfo {
		t.Errorf("expected INFO for unknown level, got %s", ev.Level)
	}
}
