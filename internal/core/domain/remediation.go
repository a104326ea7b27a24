package domain

import "time"

// RemediationState is the dispatcher's per-kind state machine position.
type RemediationState string

const (
	StateIdle           RemediationState = "idle"
	StatePending        RemediationState = "pending"
	StateInProgress     RemediationState = "in_progress"
	StateSucceeded      RemediationState = "succeeded"
	StateFailed         RemediationState = "failed"
	StateCooldown       RemediationState = "cooldown"
	StateTerminalFailed RemediationState = "terminal_failed"
)

// Outcome is the result of one repair attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimeout   Outcome = "timeout"
)

// RemediationRecord tracks the dispatcher's bookkeeping for one ErrorKind.
// Records live in memory for the process lifetime only; a crash resets
// cooldown state, which is acceptable because repairs are idempotent.
type RemediationRecord struct {
	Kind         ErrorKind
	State        RemediationState
	AttemptCount int
	LastAttempt  time.Time
	LastOutcome  Outcome
	LastReason   string
}

// AttemptRecord is the durable audit row written for every repair attempt.
type AttemptRecord struct {
	ID         string    `db:"id"`
	Kind       ErrorKind `db:"kind"`
	Attempt    int       `db:"attempt"`
	Outcome    Outcome   `db:"outcome"`
	Reason     string    `db:"reason"`
	TriggerRaw string    `db:"trigger_raw"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}
