package orchestrator

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/autoforge/autoforge/internal/healer"
	"github.com/autoforge/autoforge/internal/reasoning"
	"github.com/autoforge/autoforge/internal/tool/builtin"
)

// runtimeValidatorAgentID is the one pipeline agent whose step is executed
// through the Self-Healing Runner (C8) instead of a plain ReAct loop: its
// body (agents/09.md) instructs it to run the project's command and let the
// healer retry matching remedies, which only this package can drive since
// C8 needs the same tool Dispatcher a ReAct step would use.
const runtimeValidatorAgentID = "09"

// runHealedStep drives the project's detected test/start command through
// RunWithHealing and folds the result into a reasoning.Outcome shape so the
// surrounding step-execution loop in Submit can treat it identically to a
// ReAct invocation: gate, audit, and artifact bookkeeping stay unaware of
// the healing detail underneath.
func runHealedStep(ctx context.Context, dispatch reasoning.Dispatcher, workspaceRoot, runID string, maxAttempts int) reasoning.Outcome {
	argv := builtin.DetectTestCommand(workspaceRoot)

	res := healer.RunWithHealing(ctx, healer.Config{
		Command:      argv,
		Env:          os.Environ(),
		WorkspaceDir: workspaceRoot,
		MaxAttempts:  maxAttempts,
		RunID:        runID,
		Dispatch:     healer.Dispatch(dispatch),
	})

	history := make([]reasoning.Step, 0, len(res.AttemptLog)+1)
	history = append(history, reasoning.Step{
		Kind: reasoning.StepTool, ToolName: "run_tests", ToolArgs: fmt.Sprintf("%q", argv),
	})
	for i, a := range res.AttemptLog {
		obs := fmt.Sprintf("attempt %d: exit=%d remedy=%s", i+1, a.ExitCode, a.Remedy)
		history = append(history, reasoning.Step{
			Kind: reasoning.StepObservation, Observation: obs, IsError: a.ExitCode != 0,
		})
	}

	summary := fmt.Sprintf("runtime validation %s after %d attempt(s)", successWord(res.Success), res.Attempts)
	if len(res.Remedies) > 0 {
		summary += fmt.Sprintf(" (remedies: %s)", strings.Join(res.Remedies, ", "))
	}

	if res.Success {
		return reasoning.Outcome{OK: true, Summary: summary, History: history, StepCount: len(history)}
	}

	reason := res.Diagnostic
	if reason == "" {
		reason = fmt.Sprintf("exceeded healing attempts, final exit code %d", res.FinalExitCode)
	}
	return reasoning.Outcome{Failed: true, FailReason: reason, Summary: summary, History: history, StepCount: len(history)}
}

func successWord(ok bool) string {
	if ok {
		return "succeeded"
	}
	return "failed"
}
