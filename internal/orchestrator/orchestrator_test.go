package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/autoforge/autoforge/internal/llm"
	"github.com/autoforge/autoforge/internal/longcot"
	"github.com/autoforge/autoforge/internal/scanner"
	"github.com/autoforge/autoforge/internal/tool"
)

// scriptedProvider is a deterministic, non-LLM stand-in for llm.LLMProvider,
// mirroring the reasoning package's own test double: each call answers
// immediately with the next line in the script, in order.
type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) CallLLM(_ context.Context, _ []llm.Message) (llm.Message, error) {
	if p.calls >= len(p.replies) {
		return llm.Message{}, errors.New("scriptedProvider: out of replies")
	}
	reply := p.replies[p.calls]
	p.calls++
	return llm.Message{Role: llm.RoleAssistant, Content: reply}, nil
}

func (p *scriptedProvider) CallLLMStream(ctx context.Context, messages []llm.Message, _ llm.StreamCallback) (llm.Message, error) {
	return p.CallLLM(ctx, messages)
}

func (p *scriptedProvider) GetName() string { return "scripted" }

func alwaysAnswer(answer string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "action: answer\nanswer: " + answer
	}
	return out
}

func newTestOrchestrator(t *testing.T, provider llm.LLMProvider) *Orchestrator {
	t.Helper()
	root := t.TempDir()
	o, err := New(root, Config{ScanDepth: scanner.Shallow}, provider, tool.NewRegistry(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

// withConfidence stands in for a prior scan()/rescan() having produced a
// LongCoT Report with the given avg_confidence: §4.7.3's gate consults the
// Report, not the workspace, so tests drive it directly rather than
// constructing real source trees to earn a particular score.
func withConfidence(o *Orchestrator, avgConfidence float64) {
	o.report = longcot.Report{AvgConfidence: avgConfidence, ArchitectureHypothesis: longcot.ArchLibrary}
}

func TestSubmit_GenericPipelineSucceedsWithHighConfidence(t *testing.T) {
	// GENERIC resolves to [00, 02]; with the Report's avg_confidence above
	// HIGH_CONF every step gate auto-approves regardless of destructiveness,
	// and each step answers immediately so the ReAct loop finishes OK.
	provider := &scriptedProvider{replies: alwaysAnswer("done", 4)}
	o := newTestOrchestrator(t, provider)
	withConfidence(o, 0.9)

	run, err := o.Submit(context.Background(), "explain the repo layout", SubmitOptions{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if run.FinalStatus != StatusSuccess {
		t.Fatalf("expected success, got %+v", run)
	}
	if len(run.StepResults) != 2 {
		t.Fatalf("expected 2 step results for the GENERIC pipeline, got %d", len(run.StepResults))
	}
	for _, s := range run.StepResults {
		if s.GateDecision != GateAutoApprove {
			t.Fatalf("expected every step auto-approved at full confidence, got %+v", s)
		}
		if s.Confidence != 0.9 {
			t.Fatalf("expected StepResult.Confidence to equal the Report's avg_confidence, got %v", s.Confidence)
		}
	}
}

func TestSubmit_LowConfidenceNonDestructiveWithNoApprover_AutoRejects(t *testing.T) {
	// An empty workspace's Report carries avg_confidence 0.0 (§8 boundary
	// behavior). SCAN is not destructive, so the gate table's last row
	// applies (request_manual) — but with no ManualApprove callback
	// attached, that collapses to auto_reject, exactly as headless does.
	provider := &scriptedProvider{replies: alwaysAnswer("done", 4)}
	o := newTestOrchestrator(t, provider)

	run, err := o.Submit(context.Background(), "/scan", SubmitOptions{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if run.FinalStatus != StatusRejected {
		t.Fatalf("expected rejected, got %+v", run.FinalStatus)
	}
	if len(run.StepResults) != 1 {
		t.Fatalf("expected exactly one (rejected) step result, got %d", len(run.StepResults))
	}
	step := run.StepResults[0]
	if step.GateDecision != GateAutoReject {
		t.Fatalf("expected auto_reject, got %+v", step)
	}
	if len(step.ArtifactsProduced) != 0 || step.ReasoningTrace != nil {
		t.Fatalf("a rejected step must never have run the reasoning engine, got %+v", step)
	}
}

func TestSubmit_DestructiveLowConfidence_AutoRejects(t *testing.T) {
	// Scenario 3 (§8): a destructive request against a low-confidence
	// (here, empty) workspace rejects outright, headless or not.
	provider := &scriptedProvider{replies: alwaysAnswer("done", 4)}
	o := newTestOrchestrator(t, provider)

	run, err := o.Submit(context.Background(), "/refactor core", SubmitOptions{AutoMode: true, Headless: true})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if run.FinalStatus != StatusRejected {
		t.Fatalf("expected rejected, got %+v", run.FinalStatus)
	}
	if len(run.StepResults) != 1 || run.StepResults[0].GateDecision != GateAutoReject {
		t.Fatalf("expected a single auto_reject step, got %+v", run.StepResults)
	}
}

func TestSubmit_CircuitBreakerAbortsAfterRepeatedFailures(t *testing.T) {
	// High confidence clears the gate every step regardless of
	// destructiveness, so the run actually reaches the reasoning engine. A
	// provider with zero scripted replies fails Run's very first call on
	// every step; each step has a different agent, so the breaker trips on
	// the fifth total failure mid-run.
	provider := &scriptedProvider{replies: nil}
	o := newTestOrchestrator(t, provider)
	withConfidence(o, 0.9)

	run, err := o.Submit(context.Background(), "build a new login flow", SubmitOptions{AutoMode: true})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if run.FinalStatus != StatusFailed && run.FinalStatus != StatusPartial {
		t.Fatalf("expected the run to end failed or partial under repeated failures, got %+v", run.FinalStatus)
	}
}

func TestSubmit_PersistsStatusSnapshot(t *testing.T) {
	provider := &scriptedProvider{replies: alwaysAnswer("done", 4)}
	o := newTestOrchestrator(t, provider)
	withConfidence(o, 0.9)

	if _, err := o.Submit(context.Background(), "explain the repo layout", SubmitOptions{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := o.Status()
	if snap.LastConfidence != 0.9 {
		t.Fatalf("expected the snapshot to carry the last step's confidence, got %+v", snap)
	}
	if snap.CircuitBreakerState != "closed" {
		t.Fatalf("expected a closed breaker after an all-success run, got %q", snap.CircuitBreakerState)
	}
}

func TestRollback_RunWithNoWritesIsNoOp(t *testing.T) {
	provider := &scriptedProvider{replies: alwaysAnswer("done", 4)}
	o := newTestOrchestrator(t, provider)
	withConfidence(o, 0.9)

	run, err := o.Submit(context.Background(), "explain the repo layout", SubmitOptions{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// No write tools were ever invoked by this scripted run, so rollback
	// should be a well-defined no-op: zero entries, no error.
	result, err := o.Rollback(run.RunID)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if result.EntriesMarked != 0 {
		t.Fatalf("expected no artifact entries for a run with no writes, got %+v", result)
	}
}
