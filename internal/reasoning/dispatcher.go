package reasoning

import (
	"context"
	"encoding/json"

	"github.com/autoforge/autoforge/internal/tool"
)

// Dispatcher executes one tool call and returns its invocation result. The
// engine is handed a Dispatcher rather than a *tool.Registry directly so it
// never needs to know about allowlists, rate limits, or session identity —
// that wiring lives with whoever constructs the closure.
type Dispatcher func(ctx context.Context, name string, args json.RawMessage) tool.InvocationResult

// NewDispatcher closes over a registry, allowlist, limiter and session id
// to produce a Dispatcher bound to tool.Invoke.
func NewDispatcher(reg *tool.Registry, allow tool.Allowlist, limiter *tool.RateLimiter, sessionID string) Dispatcher {
	return func(ctx context.Context, name string, args json.RawMessage) tool.InvocationResult {
		return tool.Invoke(ctx, reg, allow, limiter, sessionID, name, args)
	}
}
