package health

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
	"github.com/communityambulance/mtrepair/internal/watch/dispatch"
	"github.com/communityambulance/mtrepair/internal/watch/source"
)

// StateReporter exposes the dispatcher's per-kind remediation state.
type StateReporter interface {
	Records() []domain.RemediationRecord
	TerminalKinds() []domain.ErrorKind
}

// CursorReporter exposes the log source's read positions.
type CursorReporter interface {
	Cursors() []source.Cursor
}

// LocationReporter exposes where the service itself is logging.
type LocationReporter interface {
	Location() string
}

// Monitor aggregates health status from the watch pipeline.
type Monitor struct {
	paths        []string
	pollInterval time.Duration
	states       StateReporter
	cursors      CursorReporter
	location     LocationReporter

	mu         sync.Mutex
	lastCycle  time.Time
	lastDur    time.Duration
	lastCheck  time.Time
	lastReport *Report
}

// NewMonitor creates a health monitor over the given watched paths.
func NewMonitor(
	paths []string,
	pollInterval time.Duration,
	states StateReporter,
	cursors CursorReporter,
	location LocationReporter,
) *Monitor {
	return &Monitor{
		paths:        paths,
		pollInterval: pollInterval,
		states:       states,
		cursors:      cursors,
		location:     location,
	}
}

// RecordCycle is called by the service loop after each completed cycle.
func (m *Monitor) RecordCycle(finished time.Time, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCycle = finished
	m.lastDur = took
	// Cycle state feeds status evaluation, so drop the cached report.
	m.lastReport = nil
}

// CheckHealth builds the current health report.
func (m *Monitor) CheckHealth() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid stat-hammering the watched files.
	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport != nil {
		return *m.lastReport
	}

	report := Report{
		SystemStatus:      StatusHealthy,
		LastCycle:         m.lastCycle,
		LastCycleDuration: m.lastDur,
	}
	if m.location != nil {
		report.LogLocation = m.location.Location()
	}

	offsets := make(map[string]int64)
	if m.cursors != nil {
		for _, c := range m.cursors.Cursors() {
			offsets[c.Path] = c.Offset
		}
	}

	anyMissing := false
	for _, path := range m.paths {
		fh := FileHealth{Path: path, Offset: offsets[path]}
		if info, err := os.Stat(path); err == nil {
			fh.Exists = true
			fh.SizeBytes = info.Size()
			fh.LastModified = info.ModTime()
		} else {
			anyMissing = true
		}
		report.Files = append(report.Files, fh)
	}

	anyFailing := false
	if m.states != nil {
		recs := m.states.Records()
		sort.Slice(recs, func(i, j int) bool { return recs[i].Kind < recs[j].Kind })
		for _, rec := range recs {
			report.Remediation = append(report.Remediation, KindHealth{
				Kind:         rec.Kind,
				State:        rec.State,
				StateDetail:  dispatch.StateDescription(rec.State),
				AttemptCount: rec.AttemptCount,
				LastAttempt:  rec.LastAttempt,
				LastOutcome:  rec.LastOutcome,
			})
			if rec.AttemptCount > 0 {
				anyFailing = true
			}
		}
		for _, kind := range m.states.TerminalKinds() {
			report.TerminalKinds = append(report.TerminalKinds, string(kind))
		}
	}
	if report.TerminalKinds == nil {
		report.TerminalKinds = []string{}
	}

	// Status evaluation, worst condition wins.
	cycleStalled := !m.lastCycle.IsZero() && m.pollInterval > 0 &&
		time.Since(m.lastCycle) > 5*m.pollInterval
	switch {
	case len(report.TerminalKinds) > 0 || cycleStalled:
		report.SystemStatus = StatusCritical
	case anyMissing || anyFailing:
		report.SystemStatus = StatusDegraded
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}
