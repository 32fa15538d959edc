package healer

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"testing"

	"github.com/autoforge/autoforge/internal/tool"
)

func shCommand(script string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/c", script}
	}
	return []string{"sh", "-c", script}
}

func TestRunWithHealing_SucceedsOnFirstTry(t *testing.T) {
	res := RunWithHealing(context.Background(), Config{
		Command:     shCommand("exit 0"),
		MaxAttempts: 3,
		RunID:       "run-1",
	})
	if !res.Success || res.Attempts != 1 {
		t.Fatalf("expected a one-shot success, got %+v", res)
	}
	if len(res.Remedies) != 0 {
		t.Fatalf("expected no remedies applied, got %v", res.Remedies)
	}
}

func TestRunWithHealing_FatalSyntaxErrorStopsImmediately(t *testing.T) {
	res := RunWithHealing(context.Background(), Config{
		Command:     shCommand("echo 'SyntaxError: invalid syntax' >&2; exit 1"),
		MaxAttempts: 5,
		RunID:       "run-2",
	})
	if res.Success || res.Attempts != 1 {
		t.Fatalf("expected a single fatal attempt, got %+v", res)
	}
}

func TestRunWithHealing_PipInstallRemedyThenSucceeds(t *testing.T) {
	const marker = "/tmp/autoforge_healer_test_marker"
	os.Remove(marker)
	t.Cleanup(func() { os.Remove(marker) })

	dispatched := false
	dispatch := func(_ context.Context, name string, args json.RawMessage) tool.InvocationResult {
		dispatched = true
		if name != "pkg_install" {
			t.Fatalf("expected pkg_install dispatch, got %q", name)
		}
		return tool.InvocationResult{OK: true, Value: "installed"}
	}

	// First attempt fails with a ModuleNotFoundError; a flag file lets the
	// second attempt "succeed" as if the package were now importable.
	script := `if [ -f /tmp/autoforge_healer_test_marker ]; then exit 0; else
touch /tmp/autoforge_healer_test_marker
echo "ModuleNotFoundError: No module named 'requests'" >&2
exit 1
fi`

	res := RunWithHealing(context.Background(), Config{
		Command:     shCommand(script),
		MaxAttempts: 3,
		RunID:       "run-3",
		Dispatch:    dispatch,
	})

	if runtime.GOOS != "windows" {
		if !dispatched {
			t.Fatal("expected the pip install remedy to be dispatched")
		}
		if !res.Success || res.Attempts != 2 {
			t.Fatalf("expected success on the second attempt, got %+v", res)
		}
		if len(res.Remedies) != 1 {
			t.Fatalf("expected exactly one remedy recorded, got %v", res.Remedies)
		}
	}
}

func TestRunWithHealing_ExceedsMaxAttempts(t *testing.T) {
	dispatch := func(_ context.Context, _ string, _ json.RawMessage) tool.InvocationResult {
		return tool.InvocationResult{OK: true}
	}
	res := RunWithHealing(context.Background(), Config{
		Command:     shCommand("echo \"ModuleNotFoundError: No module named 'x'\" >&2; exit 1"),
		MaxAttempts: 2,
		RunID:       "run-4",
		Dispatch:    dispatch,
	})
	if res.Success {
		t.Fatal("expected failure: the remedy never actually fixes the script")
	}
	if res.Attempts != 2 {
		t.Fatalf("expected exactly MaxAttempts attempts, got %d", res.Attempts)
	}
}

func TestRunWithHealing_RemedyDispatchFailureIsTerminal(t *testing.T) {
	dispatch := func(_ context.Context, _ string, _ json.RawMessage) tool.InvocationResult {
		return tool.InvocationResult{OK: false, ErrorMessage: "no network"}
	}
	res := RunWithHealing(context.Background(), Config{
		Command:     shCommand("echo \"ModuleNotFoundError: No module named 'x'\" >&2; exit 1"),
		MaxAttempts: 5,
		RunID:       "run-5",
		Dispatch:    dispatch,
	})
	if res.Success || res.Attempts != 1 {
		t.Fatalf("expected the run to stop after the first failed remedy dispatch, got %+v", res)
	}
}
