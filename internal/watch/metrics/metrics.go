package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinesScanned tracks raw log lines read per source file
	LinesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtrepair_lines_scanned_total",
			Help: "Total number of log lines read from the monitored application",
		},
		[]string{"path"},
	)

	// LinesClassified tracks lines that matched a classification rule
	LinesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtrepair_lines_classified_total",
			Help: "Total number of log lines classified into an error kind",
		},
		[]string{"kind", "rule"},
	)

	// LinesUnmatched tracks lines that matched no rule
	LinesUnmatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mtrepair_lines_unmatched_total",
			Help: "Total number of log lines that matched no classification rule",
		},
	)

	// RepairAttempts tracks repair invocations per kind and outcome
	RepairAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtrepair_repair_attempts_total",
			Help: "Total number of repair attempts",
		},
		[]string{"kind", "outcome"},
	)

	// EventsSuppressed tracks classified events dropped without dispatch
	EventsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtrepair_events_suppressed_total",
			Help: "Total number of classified events suppressed by dispatch policy",
		},
		[]string{"kind", "reason"},
	)

	// StateTransitions tracks dispatcher state machine transitions
	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtrepair_state_transitions_total",
			Help: "Total number of remediation state transitions",
		},
		[]string{"kind", "from", "to"},
	)

	// CycleDuration tracks the duration of the poll-classify-dispatch cycle
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mtrepair_cycle_duration_seconds",
			Help:    "Duration of one watch cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LoggerFallbacks tracks writable-location switch-overs
	LoggerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mtrepair_logger_fallbacks_total",
			Help: "Total number of times the resilient logger switched locations",
		},
	)
)
