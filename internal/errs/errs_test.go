package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestError_MessageIncludesKindAndWhere(t *testing.T) {
	e := New(KindToolDenied, "tool.Registry", "tool outside allowlist")
	got := e.Error()
	if got == "" {
		t.Fatal("expected non-empty message")
	}
	if !strings.Contains(got, string(KindToolDenied)) || !strings.Contains(got, "tool.Registry") {
		t.Fatalf("expected message to include kind and where, got %q", got)
	}
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(KindToolIO, "builtin.FileWriteTool", cause)
	if !errors.Is(e, cause) {
		t.Fatal("expected Is to find wrapped cause")
	}
}

func TestKind_FatalClassification(t *testing.T) {
	if !KindEngineLLMUnreachable.Fatal() {
		t.Fatal("expected engine-llm-unreachable to be fatal")
	}
	if KindToolIO.Fatal() {
		t.Fatal("expected tool-io to be non-fatal")
	}
}
