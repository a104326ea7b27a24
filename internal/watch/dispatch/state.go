package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// State is an alias for domain.RemediationState for internal use.
type State = domain.RemediationState

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed per-kind state transitions.
// Key is the current state, value is the list of valid next states.
// TerminalFailed is absorbing: only a process restart leaves it.
var ValidTransitions = map[State][]State{
	domain.StateIdle:           {domain.StatePending},
	domain.StatePending:        {domain.StateInProgress},
	domain.StateInProgress:     {domain.StateSucceeded, domain.StateFailed},
	domain.StateSucceeded:      {domain.StateCooldown},
	domain.StateFailed:         {domain.StateCooldown, domain.StateTerminalFailed},
	domain.StateCooldown:       {domain.StateIdle},
	domain.StateTerminalFailed: {},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// Transition represents a state change with metadata.
type Transition struct {
	Kind      domain.ErrorKind
	From      State
	To        State
	Reason    string
	Timestamp time.Time
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// Apply moves rec into t.To. Moves the table does not allow leave rec
// untouched and return ErrInvalidTransition.
func (t Transition) Apply(rec *domain.RemediationRecord) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.From, t.To)
	}
	rec.State = t.To
	return nil
}

// StateDescription returns a human-readable description of a state.
func StateDescription(s State) string {
	switch s {
	case domain.StateIdle:
		return "Idle - no recent activity for this kind"
	case domain.StatePending:
		return "Pending - classified event accepted, dispatch imminent"
	case domain.StateInProgress:
		return "In progress - repair helper running"
	case domain.StateSucceeded:
		return "Succeeded - last repair reported success"
	case domain.StateFailed:
		return "Failed - last repair reported failure"
	case domain.StateCooldown:
		return "Cooldown - waiting out the window before the next attempt"
	case domain.StateTerminalFailed:
		return "Terminal - retry ceiling exhausted, operator attention required"
	default:
		return "Unknown state"
	}
}
