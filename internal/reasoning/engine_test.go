package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/autoforge/autoforge/internal/errs"
	"github.com/autoforge/autoforge/internal/llm"
	"github.com/autoforge/autoforge/internal/tool"
)

// scriptedProvider is a deterministic, non-LLM stand-in for llm.LLMProvider:
// each call returns the next reply in the script, in order.
type scriptedProvider struct {
	replies []string
	calls   int
	failAt  int // -1 disables; otherwise the 0-based call index that errors
}

func (p *scriptedProvider) CallLLM(_ context.Context, _ []llm.Message) (llm.Message, error) {
	if p.failAt >= 0 && p.calls == p.failAt {
		p.calls++
		return llm.Message{}, errors.New("collaborator unreachable")
	}
	if p.calls >= len(p.replies) {
		p.calls++
		return llm.Message{Role: llm.RoleAssistant, Content: "action: answer\nanswer: out of script"}, nil
	}
	reply := p.replies[p.calls]
	p.calls++
	return llm.Message{Role: llm.RoleAssistant, Content: reply}, nil
}

func (p *scriptedProvider) CallLLMStream(ctx context.Context, messages []llm.Message, _ llm.StreamCallback) (llm.Message, error) {
	return p.CallLLM(ctx, messages)
}

func (p *scriptedProvider) GetName() string { return "scripted" }

func noopDispatch(_ context.Context, _ string, _ json.RawMessage) tool.InvocationResult {
	return tool.InvocationResult{OK: true, Value: "ok"}
}

func TestRun_FinishTaskTerminatesWithSummary(t *testing.T) {
	p := &scriptedProvider{
		failAt: -1,
		replies: []string{
			"action: think\nthought: considering the task",
			"action: answer\nanswer: done here",
		},
	}
	out := Run(context.Background(), Config{Provider: p, Dispatch: noopDispatch}, "do a thing")

	if !out.OK || out.Summary != "done here" {
		t.Fatalf("expected OK with summary, got %+v", out)
	}
}

func TestRun_StepBudgetExhausted(t *testing.T) {
	p := &scriptedProvider{failAt: -1, replies: []string{"action: think\nthought: spinning"}}
	out := Run(context.Background(), Config{Provider: p, Dispatch: noopDispatch, BudgetSteps: 3}, "never finishes")

	if !out.Partial || out.Reason != ReasonStepBudget {
		t.Fatalf("expected step-budget partial outcome, got %+v", out)
	}
	if out.StepCount != 3 {
		t.Fatalf("expected step count 3, got %d", out.StepCount)
	}
}

func TestRun_LoopDetection(t *testing.T) {
	reply := "action: tool\ntool_name: find\ntool_args: '{\"pattern\":\"x\"}'"
	p := &scriptedProvider{failAt: -1, replies: []string{reply, reply, reply, reply}}
	out := Run(context.Background(), Config{Provider: p, Dispatch: noopDispatch, BudgetSteps: 10}, "repeat forever")

	if !out.Partial || out.Reason != ReasonLoopDetected {
		t.Fatalf("expected loop-detected partial outcome, got %+v", out)
	}
	if out.StepCount != 3 {
		t.Fatalf("expected loop detected on the 3rd identical call, got step count %d", out.StepCount)
	}
}

func TestRun_ToolErrorIsObservationNotFatal(t *testing.T) {
	failDispatch := func(_ context.Context, _ string, _ json.RawMessage) tool.InvocationResult {
		return tool.InvocationResult{OK: false, ErrorKind: errs.KindToolIO, ErrorMessage: "boom"}
	}
	p := &scriptedProvider{
		failAt: -1,
		replies: []string{
			"action: tool\ntool_name: shell_exec\ntool_args: '{\"cmd\":\"flaky\"}'",
			"action: answer\nanswer: recovered after the error",
		},
	}
	out := Run(context.Background(), Config{Provider: p, Dispatch: failDispatch, BudgetSteps: 10}, "tolerate one failure")

	if !out.OK || out.Summary != "recovered after the error" {
		t.Fatalf("expected the loop to continue past a tool error, got %+v", out)
	}

	foundErrorObservation := false
	for _, s := range out.History {
		if s.Kind == StepObservation && s.IsError {
			foundErrorObservation = true
		}
	}
	if !foundErrorObservation {
		t.Fatal("expected the tool failure to surface as an error observation in history")
	}
}

func TestRun_CollaboratorUnreachableFails(t *testing.T) {
	p := &scriptedProvider{failAt: 0, replies: nil}
	out := Run(context.Background(), Config{Provider: p, Dispatch: noopDispatch}, "anything")

	if !out.Failed || out.FailReason == "" {
		t.Fatalf("expected a failed outcome when the collaborator errors, got %+v", out)
	}
}

func TestCompress_CollapsesOldestHalfPastHistoryMax(t *testing.T) {
	var history []Step
	for i := 0; i < HistoryMax+10; i++ {
		history = append(history, Step{Kind: StepThink, Thought: "step"})
	}
	compressed := compress(history)

	summaries := 0
	for _, s := range compressed {
		if s.IsSummary {
			summaries++
		}
	}
	if summaries != 1 {
		t.Fatalf("expected exactly one summary step after compression, got %d", summaries)
	}
	if len(compressed) >= len(history) {
		t.Fatalf("expected compression to shrink history: before=%d after=%d", len(history), len(compressed))
	}
}

func TestLoopDetector_DifferentArgsResetsStreak(t *testing.T) {
	d := newLoopDetector()
	if d.observe("find", `{"q":"a"}`) {
		t.Fatal("first call should never trigger")
	}
	if d.observe("find", `{"q":"b"}`) {
		t.Fatal("differing args should reset the streak, not trigger")
	}
	if d.observe("find", `{"q":"b"}`) {
		t.Fatal("only the second identical call in a row; streak is 2, not yet 3")
	}
	if !d.observe("find", `{"q":"b"}`) {
		t.Fatal("third identical call in a row should trigger")
	}
}
