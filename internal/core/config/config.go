package config

import (
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Remediation RemediationConfig `yaml:"remediation"`
	Repair      RepairConfig      `yaml:"repair"`
	Logging     LoggingConfig     `yaml:"logging"`
	History     HistoryConfig     `yaml:"history"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MonitorConfig holds settings for the log polling loop.
type MonitorConfig struct {
	// LogPaths are the fixed locations of the monitored application's log
	// files, most specific first.
	LogPaths []string `yaml:"log_paths"`

	// PollInterval is the tick between read→classify→dispatch cycles.
	PollInterval time.Duration `yaml:"poll_interval"`

	// CycleTimeout bounds the total duration of one cycle.
	CycleTimeout time.Duration `yaml:"cycle_timeout"`

	// MaxBytesPerPoll caps how much backlog a single poll drains; the
	// remainder is picked up on subsequent cycles.
	MaxBytesPerPoll int64 `yaml:"max_bytes_per_poll"`
}

// RemediationConfig holds dispatch policy settings.
type RemediationConfig struct {
	// Cooldown is the minimum elapsed time between attempts for a kind.
	Cooldown time.Duration `yaml:"cooldown"`

	// RetryCeiling is the attempt count after which a kind is marked
	// terminally failed for this process run.
	RetryCeiling int `yaml:"retry_ceiling"`

	// AttemptTimeout bounds a single repair invocation.
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// BackoffFactor multiplies the cooldown after each failed attempt.
	// 1.0 disables backoff.
	BackoffFactor float64 `yaml:"backoff_factor"`

	// Kinds overrides the defaults per error kind.
	Kinds map[domain.ErrorKind]KindPolicy `yaml:"kinds"`
}

// KindPolicy overrides dispatch policy for a single kind.
type KindPolicy struct {
	Cooldown       time.Duration `yaml:"cooldown"`
	RetryCeiling   int           `yaml:"retry_ceiling"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	BackoffFactor  float64       `yaml:"backoff_factor"`
}

// RepairConfig holds settings for the external repair helper.
type RepairConfig struct {
	// HelperPath is the repair helper binary invoked per attempt.
	HelperPath string `yaml:"helper_path"`

	// ExtraArgs are appended after the repair-class argument.
	ExtraArgs []string `yaml:"extra_args"`

	// SpawnRetries bounds retries of transient helper launch failures
	// (anti-virus scanners briefly lock freshly installed binaries).
	SpawnRetries int `yaml:"spawn_retries"`
}

// LoggingConfig holds settings for the resilient logging subsystem.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info

	// CandidateDirs are probed in order; the first writable one becomes
	// the log destination for the run.
	CandidateDirs []string `yaml:"candidate_dirs"`

	// MaxFileSize triggers size-based rotation of the operational log.
	MaxFileSize int64 `yaml:"max_file_size"`

	// FlushInterval drives the background flush of both streams.
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// HistoryConfig holds settings for the remediation audit store.
type HistoryConfig struct {
	// Path is the sqlite database file. Empty selects the in-memory store.
	Path string `yaml:"path"`

	// Retention prunes audit rows older than this. 0 = keep forever.
	Retention time.Duration `yaml:"retention"`
}
