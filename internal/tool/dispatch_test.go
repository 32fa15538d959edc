package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/autoforge/autoforge/internal/errs"
)

type echoTool struct{ name string }

func (e echoTool) Name() string        { return e.name }
func (e echoTool) Description() string { return "echoes its input" }
func (e echoTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{}`)
}
func (e echoTool) Init(_ context.Context) error { return nil }
func (e echoTool) Close() error                 { return nil }
func (e echoTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	return ToolResult{Output: string(args)}, nil
}

func TestInvoke_DeniedOutsideAllowlist(t *testing.T) {
	RegisterCategory("echo", CategoryUtility)
	defer delete(categoryByName, "echo")

	reg := NewRegistry()
	reg.Register(echoTool{name: "echo"})

	result := Invoke(context.Background(), reg, NewAllowlist(CategoryCore), nil, "sess-1", "echo", json.RawMessage(`{}`))
	if result.OK {
		t.Fatal("expected denial outside allowlist")
	}
	if result.ErrorKind != errs.KindToolDenied {
		t.Fatalf("expected %s, got %s", errs.KindToolDenied, result.ErrorKind)
	}
}

func TestInvoke_SucceedsWithinAllowlist(t *testing.T) {
	RegisterCategory("echo", CategoryUtility)
	defer delete(categoryByName, "echo")

	reg := NewRegistry()
	reg.Register(echoTool{name: "echo"})

	result := Invoke(context.Background(), reg, NewAllowlist(CategoryUtility), nil, "sess-1", "echo", json.RawMessage(`{"x":1}`))
	if !result.OK {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestInvoke_RateLimitExceeded(t *testing.T) {
	RegisterCategory("echo", CategoryUtility)
	defer delete(categoryByName, "echo")

	reg := NewRegistry()
	reg.Register(echoTool{name: "echo"})
	limiter := NewRateLimiter(2)

	for i := 0; i < 2; i++ {
		r := Invoke(context.Background(), reg, NewAllowlist(CategoryUtility), limiter, "sess-1", "echo", json.RawMessage(`{}`))
		if !r.OK {
			t.Fatalf("call %d: expected success within limit, got %+v", i, r)
		}
	}

	r := Invoke(context.Background(), reg, NewAllowlist(CategoryUtility), limiter, "sess-1", "echo", json.RawMessage(`{}`))
	if r.OK || r.ErrorKind != errs.KindToolRateLimitExceeded {
		t.Fatalf("expected rate-limit-exceeded, got %+v", r)
	}
}

func TestInvoke_DifferentSessionsHaveIndependentLimits(t *testing.T) {
	RegisterCategory("echo", CategoryUtility)
	defer delete(categoryByName, "echo")

	reg := NewRegistry()
	reg.Register(echoTool{name: "echo"})
	limiter := NewRateLimiter(1)

	r1 := Invoke(context.Background(), reg, NewAllowlist(CategoryUtility), limiter, "sess-a", "echo", json.RawMessage(`{}`))
	r2 := Invoke(context.Background(), reg, NewAllowlist(CategoryUtility), limiter, "sess-b", "echo", json.RawMessage(`{}`))
	if !r1.OK || !r2.OK {
		t.Fatalf("expected both sessions' first call to succeed: %+v, %+v", r1, r2)
	}
}
