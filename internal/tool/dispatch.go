package tool

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/autoforge/autoforge/internal/errs"
)

// DefaultRateLimit is the per-session, per-tool call ceiling applied when a
// RateLimiter is not given an explicit override.
const DefaultRateLimit = 30

// RateLimiter enforces the per-session rate limit every tool is subject to
// (§4.5). One RateLimiter is shared across a run; each (session, tool) pair
// has its own counter.
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	counters map[string]int // sessionID + "\x00" + toolName -> count
}

// NewRateLimiter builds a RateLimiter with the given per-(session,tool)
// ceiling. A non-positive limit falls back to DefaultRateLimit.
func NewRateLimiter(limit int) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	return &RateLimiter{limit: limit, counters: make(map[string]int)}
}

// Allow increments the (session, tool) counter and reports whether the call
// stays within limit. Calls beyond the limit are still counted so repeated
// attempts keep failing rather than oscillating.
func (rl *RateLimiter) Allow(sessionID, toolName string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	key := sessionID + "\x00" + toolName
	rl.counters[key]++
	return rl.counters[key] <= rl.limit
}

// InvocationResult is the synchronous {ok, value|error_kind, error_message}
// contract every tool call returns (§4.5). No partial effects occur on a
// validation failure: OK is only ever true after Execute itself ran.
type InvocationResult struct {
	OK           bool
	Value        string
	ErrorKind    errs.Kind
	ErrorMessage string
}

func denied(kind errs.Kind, msg string) InvocationResult {
	return InvocationResult{OK: false, ErrorKind: kind, ErrorMessage: msg}
}

// Invoke is the Tool Registry's single call-in point: it applies the
// per-agent category allowlist and per-session rate limit before ever
// reaching the tool's own Execute, then normalizes the result into the
// registry's invocation contract. A tool name the allowlist hides is
// treated identically to one that does not exist — the reasoning engine
// never learns the difference.
func Invoke(ctx context.Context, reg *Registry, allow Allowlist, limiter *RateLimiter, sessionID, name string, args json.RawMessage) InvocationResult {
	if !allow.Allows(name) {
		return denied(errs.KindToolDenied, "tool \""+name+"\" is outside the agent's category allowlist")
	}

	t, ok := reg.Get(name)
	if !ok {
		return denied(errs.KindToolDenied, "unknown tool \""+name+"\"")
	}

	if limiter != nil && !limiter.Allow(sessionID, name) {
		return denied(errs.KindToolRateLimitExceeded, "rate limit exceeded for tool \""+name+"\"")
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		return denied(errs.KindToolIO, err.Error())
	}
	if result.Error != "" {
		return denied(errs.KindToolSafetyBlocked, result.Error)
	}
	return InvocationResult{OK: true, Value: result.Output}
}
