// Package repair defines the repair-action contract the dispatcher
// consumes, and the exec-based provider that drives the external repair
// helper. The helper owns the browser automation that actually manipulates
// the application's IndexedDB state; this process never touches it directly.
package repair

import (
	"context"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

// Provider performs the concrete fix for a classified error kind.
//
// Attempt returns nil on success and an error carrying the failure reason
// otherwise; a context deadline counts as failure. Every repair action MUST
// be idempotent: the dispatcher loses its cooldown state on crash and may
// re-invoke a repair that already succeeded.
type Provider interface {
	Attempt(ctx context.Context, kind domain.ErrorKind) error
}

// Func adapts a function to the Provider interface.
type Func func(ctx context.Context, kind domain.ErrorKind) error

func (f Func) Attempt(ctx context.Context, kind domain.ErrorKind) error {
	return f(ctx, kind)
}
