package health

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
	"github.com/communityambulance/mtrepair/internal/watch/source"
)

// =============================================================================
// Mocks
// =============================================================================

type stubStates struct {
	recs     []domain.RemediationRecord
	terminal []domain.ErrorKind
}

func (s *stubStates) Records() []domain.RemediationRecord { return s.recs }
func (s *stubStates) TerminalKinds() []domain.ErrorKind   { return s.terminal }

type stubCursors struct {
	cursors []source.Cursor
}

func (s *stubCursors) Cursors() []source.Cursor { return s.cursors }

type stubLocation struct {
	dir string
}

func (s *stubLocation) Location() string { return s.dir }

func watchedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mobiletouch.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// =============================================================================
// Tests
// =============================================================================

func TestCheckHealth_Healthy(t *testing.T) {
	path := watchedFile(t, "2025-05-26 09:00:00,000 INFO startup\n")
	m := NewMonitor(
		[]string{path},
		time.Second,
		&stubStates{},
		&stubCursors{cursors: []source.Cursor{{Path: path, Offset: 42}}},
		&stubLocation{dir: "/tmp/logs"},
	)
	m.RecordCycle(time.Now(), 5*time.Millisecond)

	report := m.CheckHealth()

	if report.SystemStatus != StatusHealthy {
		t.Fatalf("expected healthy, got %s", report.SystemStatus)
	}
	if len(report.Files) != 1 || !report.Files[0].Exists {
		t.Fatalf("expected watched file reported present: %+v", report.Files)
	}
	if report.Files[0].Offset != 42 {
		t.Errorf("expected cursor offset in report, got %d", report.Files[0].Offset)
	}
	if report.LogLocation != "/tmp/logs" {
		t.Errorf("expected log location, got %q", report.LogLocation)
	}
}

func TestCheckHealth_MissingFileDegrades(t *testing.T) {
	m := NewMonitor(
		[]string{filepath.Join(t.TempDir(), "never-created.log")},
		time.Second,
		&stubStates{},
		&stubCursors{},
		nil,
	)

	report := m.CheckHealth()

	if report.SystemStatus != StatusDegraded {
		t.Fatalf("expected degraded for missing file, got %s", report.SystemStatus)
	}
	if report.Files[0].Exists {
		t.Error("expected file reported missing")
	}
}

func TestCheckHealth_FailingKindDegrades(t *testing.T) {
	path := watchedFile(t, "x\n")
	m := NewMonitor(
		[]string{path},
		time.Second,
		&stubStates{recs: []domain.RemediationRecord{{
			Kind:         domain.KindCorruptSchema,
			State:        domain.StateCooldown,
			AttemptCount: 2,
			LastOutcome:  domain.OutcomeFailed,
		}}},
		&stubCursors{},
		nil,
	)

	report := m.CheckHealth()

	if report.SystemStatus != StatusDegraded {
		t.Fatalf("expected degraded, got %s", report.SystemStatus)
	}
	if len(report.Remediation) != 1 || report.Remediation[0].AttemptCount != 2 {
		t.Fatalf("expected remediation record in report: %+v", report.Remediation)
	}
	if report.Remediation[0].StateDetail == "" {
		t.Error("expected a readable state detail in the report")
	}
}

func TestCheckHealth_TerminalKindIsCritical(t *testing.T) {
	path := watchedFile(t, "x\n")
	m := NewMonitor(
		[]string{path},
		time.Second,
		&stubStates{terminal: []domain.ErrorKind{domain.KindReferenceTableCorrupt}},
		&stubCursors{},
		nil,
	)

	report := m.CheckHealth()

	if report.SystemStatus != StatusCritical {
		t.Fatalf("expected critical, got %s", report.SystemStatus)
	}
	if len(report.TerminalKinds) != 1 {
		t.Fatalf("expected terminal kind listed: %v", report.TerminalKinds)
	}
}

func TestCheckHealth_StalledCycleIsCritical(t *testing.T) {
	path := watchedFile(t, "x\n")
	m := NewMonitor([]string{path}, 10*time.Millisecond, &stubStates{}, &stubCursors{}, nil)
	m.RecordCycle(time.Now().Add(-time.Minute), time.Millisecond)

	report := m.CheckHealth()

	if report.SystemStatus != StatusCritical {
		t.Fatalf("expected critical for stalled cycle, got %s", report.SystemStatus)
	}
}

func TestCheckHealth_CachesBetweenCalls(t *testing.T) {
	path := watchedFile(t, "x\n")
	states := &stubStates{}
	m := NewMonitor([]string{path}, time.Second, states, &stubCursors{}, nil)

	first := m.CheckHealth()
	states.terminal = []domain.ErrorKind{domain.KindCorruptSchema}
	second := m.CheckHealth()

	if first.SystemStatus != second.SystemStatus {
		t.Fatalf("expected cached report within rate-limit window, got %s then %s",
			first.SystemStatus, second.SystemStatus)
	}
}
