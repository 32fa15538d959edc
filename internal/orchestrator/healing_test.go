package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/autoforge/autoforge/internal/tool"
)

func TestRunHealedStep_RecordsRunTestsAsFirstStep(t *testing.T) {
	dir := t.TempDir()
	// No go.mod/package.json/etc present: DetectTestCommand falls back to
	// "go test ./...", whose exit status in an empty directory depends on
	// the host, so only the shape of the outcome is checked here, not
	// whether it succeeded.
	_ = dir

	noop := func(_ context.Context, _ string, _ json.RawMessage) tool.InvocationResult {
		return tool.InvocationResult{OK: true}
	}

	outcome := runHealedStep(context.Background(), noop, t.TempDir(), "run-healed-1", 1)

	if outcome.Failed && outcome.FailReason == "" {
		t.Fatal("a failed outcome must always carry a FailReason")
	}
	if len(outcome.History) == 0 {
		t.Fatal("expected at least the initial run_tests tool step in history")
	}
	if outcome.History[0].ToolName != "run_tests" {
		t.Fatalf("expected the first history entry to record run_tests, got %+v", outcome.History[0])
	}
}

func TestRunHealedStep_DetectsSignatureBasedCommand(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	noop := func(_ context.Context, _ string, _ json.RawMessage) tool.InvocationResult {
		return tool.InvocationResult{OK: true}
	}

	outcome := runHealedStep(context.Background(), noop, dir, "run-healed-2", 1)

	if len(outcome.History) == 0 || outcome.History[0].ToolArgs == "" {
		t.Fatalf("expected the detected command recorded in the first step's args, got %+v", outcome.History)
	}
}

func TestSuccessWord(t *testing.T) {
	if successWord(true) != "succeeded" {
		t.Fatal("expected succeeded")
	}
	if successWord(false) != "failed" {
		t.Fatal("expected failed")
	}
}
