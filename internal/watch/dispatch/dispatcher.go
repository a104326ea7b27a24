// Package dispatch maps classified events to repair actions under a
// per-kind cooldown/retry/terminal-failure policy.
//
// One Dispatcher exists per process. It exclusively owns the per-kind
// RemediationRecord set and is driven from the single watch cycle, so no
// two dispatches ever run concurrently; the lock exists only for the
// health server's read-side snapshots. The per-kind state machine
// guarantees mutual exclusion regardless: while a kind is IN_PROGRESS,
// further classified events for it are suppressed, never double-invoked.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/core/domain"
	"github.com/communityambulance/mtrepair/internal/infra/storage"
	"github.com/communityambulance/mtrepair/internal/repair"
	"github.com/communityambulance/mtrepair/internal/watch/metrics"
)

// Policy is the effective dispatch policy for one kind.
type Policy struct {
	Cooldown       time.Duration
	RetryCeiling   int
	AttemptTimeout time.Duration
	BackoffFactor  float64
}

// Dispatcher consumes classified events and drives the repair provider.
type Dispatcher struct {
	cfg      config.RemediationConfig
	provider repair.Provider
	history  storage.HistoryRepository
	log      *slog.Logger
	debug    *slog.Logger

	// mu guards records against the health server's snapshot reads.
	// Dispatches themselves never run concurrently.
	mu      sync.RWMutex
	records map[domain.ErrorKind]*domain.RemediationRecord

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Dispatcher. history may be nil; the audit trail is then
// log-only.
func New(
	cfg config.RemediationConfig,
	provider repair.Provider,
	history storage.HistoryRepository,
	log *slog.Logger,
	debug *slog.Logger,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if debug == nil {
		debug = log
	}
	return &Dispatcher{
		cfg:      cfg,
		provider: provider,
		history:  history,
		records:  make(map[domain.ErrorKind]*domain.RemediationRecord),
		log:      log,
		debug:    debug,
		now:      time.Now,
	}
}

// PolicyFor resolves the effective policy for a kind: per-kind overrides
// over the configured defaults.
func (d *Dispatcher) PolicyFor(kind domain.ErrorKind) Policy {
	p := Policy{
		Cooldown:       d.cfg.Cooldown,
		RetryCeiling:   d.cfg.RetryCeiling,
		AttemptTimeout: d.cfg.AttemptTimeout,
		BackoffFactor:  d.cfg.BackoffFactor,
	}
	if override, ok := d.cfg.Kinds[kind]; ok {
		if override.Cooldown > 0 {
			p.Cooldown = override.Cooldown
		}
		if override.RetryCeiling > 0 {
			p.RetryCeiling = override.RetryCeiling
		}
		if override.AttemptTimeout > 0 {
			p.AttemptTimeout = override.AttemptTimeout
		}
		if override.BackoffFactor > 0 {
			p.BackoffFactor = override.BackoffFactor
		}
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = 1
	}
	return p
}

// Dispatch decides whether to act on a classified event and, if eligible,
// invokes the repair provider synchronously with a bounded timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, ce domain.ClassifiedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.record(ce.Kind)
	policy := d.PolicyFor(ce.Kind)

	switch rec.State {
	case domain.StateTerminalFailed:
		d.suppress(ce, "terminal")
		return
	case domain.StatePending, domain.StateInProgress:
		// Mutual exclusion per kind: never double-invoke.
		d.suppress(ce, "in_progress")
		return
	}

	if !d.cooldownElapsed(rec, policy) {
		d.suppress(ce, "cooldown")
		return
	}

	if rec.State == domain.StateCooldown {
		d.transition(rec, domain.StateIdle, "cooldown window elapsed")
	}

	d.transition(rec, domain.StatePending, "classified event accepted, rule "+ce.RuleID)
	d.attempt(ctx, rec, policy, ce)
}

// attempt runs one bounded repair invocation and applies the outcome.
func (d *Dispatcher) attempt(
	ctx context.Context,
	rec *domain.RemediationRecord,
	policy Policy,
	ce domain.ClassifiedEvent,
) {
	d.transition(rec, domain.StateInProgress, "invoking repair provider")

	started := d.now()
	// Shutdown and cycle-deadline cancels do not propagate to the
	// helper; an in-flight attempt is bounded only by its own timeout.
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), policy.AttemptTimeout)
	// Release the lock for the duration of the helper run so health
	// snapshots stay responsive; the IN_PROGRESS state keeps this kind
	// from being re-entered.
	d.mu.Unlock()
	err := d.provider.Attempt(attemptCtx, rec.Kind)
	d.mu.Lock()
	cancel()
	finished := d.now()

	rec.LastAttempt = finished

	if err == nil {
		rec.AttemptCount = 0
		rec.LastOutcome = domain.OutcomeSucceeded
		rec.LastReason = ""
		d.transition(rec, domain.StateSucceeded, "provider reported success")
		d.transition(rec, domain.StateCooldown, "entering cooldown")
		metrics.RepairAttempts.WithLabelValues(string(rec.Kind), string(domain.OutcomeSucceeded)).Inc()
		d.audit(rec, ce, domain.OutcomeSucceeded, "", started, finished)
		return
	}

	outcome := domain.OutcomeFailed
	if errors.Is(err, context.DeadlineExceeded) {
		outcome = domain.OutcomeTimeout
	}
	rec.AttemptCount++
	rec.LastOutcome = outcome
	rec.LastReason = err.Error()
	metrics.RepairAttempts.WithLabelValues(string(rec.Kind), string(outcome)).Inc()

	d.transition(rec, domain.StateFailed, err.Error())

	if rec.AttemptCount > policy.RetryCeiling {
		d.transition(rec, domain.StateTerminalFailed, "retry ceiling exhausted")
		// The one durable, operator-visible escalation in the pipeline.
		d.log.Error("repair permanently failed for this run, operator attention required",
			"kind", rec.Kind,
			"attempts", rec.AttemptCount,
			"ceiling", policy.RetryCeiling,
			"last_error", err.Error(),
		)
	} else {
		d.transition(rec, domain.StateCooldown, "entering cooldown before retry")
	}

	d.audit(rec, ce, outcome, err.Error(), started, finished)
}

// cooldownElapsed checks the (optionally backed-off) window since the last
// attempt. Failed attempts stretch the window by BackoffFactor^failures.
func (d *Dispatcher) cooldownElapsed(rec *domain.RemediationRecord, policy Policy) bool {
	if rec.LastAttempt.IsZero() {
		return true
	}
	wait := policy.Cooldown
	if rec.AttemptCount > 0 && policy.BackoffFactor > 1 {
		wait = time.Duration(float64(wait) * math.Pow(policy.BackoffFactor, float64(rec.AttemptCount-1)))
	}
	return d.now().Sub(rec.LastAttempt) >= wait
}

// record returns the per-kind record, creating it lazily on first use.
func (d *Dispatcher) record(kind domain.ErrorKind) *domain.RemediationRecord {
	rec, ok := d.records[kind]
	if !ok {
		rec = &domain.RemediationRecord{Kind: kind, State: domain.StateIdle}
		d.records[kind] = rec
	}
	return rec
}

// Records returns a snapshot of the per-kind records, for status reporting.
func (d *Dispatcher) Records() []domain.RemediationRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.RemediationRecord, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, *rec)
	}
	return out
}

// TerminalKinds returns the kinds that exhausted their retry ceiling.
func (d *Dispatcher) TerminalKinds() []domain.ErrorKind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []domain.ErrorKind
	for kind, rec := range d.records {
		if rec.State == domain.StateTerminalFailed {
			out = append(out, kind)
		}
	}
	return out
}

// transition applies a state change, logging it as the audit trail for
// post-hoc diagnosis. Invalid transitions indicate a dispatcher bug and
// are refused loudly.
func (d *Dispatcher) transition(rec *domain.RemediationRecord, to State, reason string) {
	t := Transition{
		Kind:      rec.Kind,
		From:      rec.State,
		To:        to,
		Reason:    reason,
		Timestamp: d.now(),
	}
	if err := t.Apply(rec); err != nil {
		d.log.Error("refusing state transition",
			"kind", t.Kind, "reason", t.Reason, "error", err)
		return
	}
	metrics.StateTransitions.WithLabelValues(string(t.Kind), string(t.From), string(t.To)).Inc()
	d.log.Info("remediation transition",
		"kind", t.Kind,
		"from", t.From,
		"to", t.To,
		"reason", t.Reason,
		"at", t.Timestamp.Format(time.RFC3339),
	)
}

// suppress drops a classified event without dispatching.
func (d *Dispatcher) suppress(ce domain.ClassifiedEvent, reason string) {
	metrics.EventsSuppressed.WithLabelValues(string(ce.Kind), reason).Inc()
	d.log.Info("suppressed duplicate error event",
		"kind", ce.Kind, "reason", reason, "rule", ce.RuleID)
}

// audit appends a durable attempt record. Store failures must never block
// or fail dispatch; they are logged to the debug stream and dropped.
func (d *Dispatcher) audit(
	rec *domain.RemediationRecord,
	ce domain.ClassifiedEvent,
	outcome domain.Outcome,
	reason string,
	started, finished time.Time,
) {
	if d.history == nil {
		return
	}
	row := &domain.AttemptRecord{
		ID:         uuid.New().String(),
		Kind:       rec.Kind,
		Attempt:    rec.AttemptCount,
		Outcome:    outcome,
		Reason:     reason,
		TriggerRaw: ce.Event.Raw,
		StartedAt:  started,
		FinishedAt: finished,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.history.Append(ctx, row); err != nil {
		d.debug.Debug("failed to persist attempt record", "kind", rec.Kind, "error", err)
	}
}
