// Package health provides service health monitoring and status reporting.
package health

import (
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// SystemStatus represents the overall health state of the service.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// FileHealth describes one watched application log file.
type FileHealth struct {
	Path         string    `json:"path"`
	Exists       bool      `json:"exists"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified,omitempty"`
	Offset       int64     `json:"offset"`
}

// KindHealth describes remediation state for one error kind.
type KindHealth struct {
	Kind         domain.ErrorKind        `json:"kind"`
	State        domain.RemediationState `json:"state"`
	StateDetail  string                  `json:"state_detail"`
	AttemptCount int                     `json:"attempt_count"`
	LastAttempt  time.Time               `json:"last_attempt,omitempty"`
	LastOutcome  domain.Outcome          `json:"last_outcome,omitempty"`
}

// Report contains the full service health report.
type Report struct {
	SystemStatus      SystemStatus  `json:"system_status"`
	Files             []FileHealth  `json:"files"`
	Remediation       []KindHealth  `json:"remediation"`
	TerminalKinds     []string      `json:"terminal_kinds"`
	LastCycle         time.Time     `json:"last_cycle,omitempty"`
	LastCycleDuration time.Duration `json:"last_cycle_duration_ns"`
	LogLocation       string        `json:"log_location"`
}
