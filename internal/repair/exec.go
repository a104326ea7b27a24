package repair

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// ExecProvider invokes the external repair helper binary with the kind's
// repair class as its subcommand, e.g.
//
//	mtrepair-helper hard-reset
//
// The helper subcommands are idempotent by contract: clearing an object
// store, deleting a device record, or removing the AppData directory are
// all safe to repeat.
type ExecProvider struct {
	helperPath   string
	extraArgs    []string
	spawnRetries int
	log          *slog.Logger
}

// NewExecProvider creates a provider over the configured helper binary.
func NewExecProvider(cfg config.RepairConfig, log *slog.Logger) *ExecProvider {
	if log == nil {
		log = slog.Default()
	}
	return &ExecProvider{
		helperPath:   cfg.HelperPath,
		extraArgs:    cfg.ExtraArgs,
		spawnRetries: cfg.SpawnRetries,
		log:          log,
	}
}

// Attempt runs the helper for the kind's repair class, bounded by ctx.
// Helper launch is retried with fibonacci backoff: on the target hosts
// anti-virus scanners intermittently hold an exclusive lock on the helper
// binary, which surfaces as a transient start failure.
func (p *ExecProvider) Attempt(ctx context.Context, kind domain.ErrorKind) error {
	info := kind.Info()
	if info.Repair == "" {
		return fmt.Errorf("no repair class registered for kind %s", kind)
	}

	args := append([]string{string(info.Repair)}, p.extraArgs...)

	backoff := retry.WithMaxRetries(uint64(p.spawnRetries), retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return p.run(ctx, kind, args)
	})
}

func (p *ExecProvider) run(ctx context.Context, kind domain.ErrorKind, args []string) error {
	cmd := exec.CommandContext(ctx, p.helperPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	p.log.Info("invoking repair helper", "kind", kind, "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		// Start failures are the transient, lock-contention case.
		p.log.Debug("repair helper start failed", "kind", kind, "error", err)
		return retry.RetryableError(fmt.Errorf("start helper: %w", err))
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("repair helper timed out: %w", ctx.Err())
		}
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = err.Error()
		}
		// A helper that ran and reported failure is not retried here; the
		// dispatcher owns the retry/ceiling policy.
		return fmt.Errorf("repair helper failed: %s", reason)
	}

	p.log.Info("repair helper finished", "kind", kind, "duration", time.Since(start))
	return nil
}
