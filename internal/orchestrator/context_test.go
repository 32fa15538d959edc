package orchestrator

import (
	"strings"
	"testing"

	"github.com/autoforge/autoforge/internal/intent"
	"github.com/autoforge/autoforge/internal/longcot"
	"github.com/autoforge/autoforge/internal/skill"
)

func TestBuildContextBundle_IncludesAllLayersInOrder(t *testing.T) {
	agent := AgentDescriptor{ID: "02", Role: "builder", Body: "you write code"}
	report := longcot.Report{AvgConfidence: 0.75, ArchitectureHypothesis: longcot.ArchMultiAgentSystem, CriticalPaths: []string{"internal/orchestrator"}}
	skills := []skill.Ranked{{Descriptor: &skill.Descriptor{Name: "go-style", Body: strings.Repeat("x", 10)}, Score: 0.8}}
	task := intent.Task{TaskType: intent.TaskBuildFeature, RawQuery: "build auth", Params: map[string]string{"subject": "auth"}}

	bundle := buildContextBundle(agent, report, skills, []string{"[00] scanned the repo"}, task)

	agentIdx := strings.Index(bundle, "Agent: 02")
	reportIdx := strings.Index(bundle, "Project understanding")
	skillIdx := strings.Index(bundle, "go-style")
	priorIdx := strings.Index(bundle, "scanned the repo")
	taskIdx := strings.Index(bundle, "Task")

	if agentIdx < 0 || reportIdx < 0 || skillIdx < 0 || priorIdx < 0 || taskIdx < 0 {
		t.Fatalf("expected every layer present, got:\n%s", bundle)
	}
	if !(agentIdx < reportIdx && reportIdx < skillIdx && skillIdx < priorIdx && priorIdx < taskIdx) {
		t.Fatalf("expected layers in fixed order agent->report->skills->prior->task, got:\n%s", bundle)
	}
}

func TestBuildContextBundle_TruncatesOversizedSkillBody(t *testing.T) {
	agent := AgentDescriptor{ID: "02"}
	report := longcot.Report{}
	longBody := strings.Repeat("a", ContextBudgetChars*2)
	skills := []skill.Ranked{{Descriptor: &skill.Descriptor{Name: "huge", Body: longBody}, Score: 0.5}}

	bundle := buildContextBundle(agent, report, skills, nil, intent.Task{TaskType: intent.TaskGeneric})

	if strings.Count(bundle, "a") >= len(longBody) {
		t.Fatal("expected the oversized skill body to be truncated")
	}
	if !strings.Contains(bundle, "truncated") {
		t.Fatal("expected a truncation marker in the bundle")
	}
}

func TestBuildContextBundle_EmptyArchitectureHypothesisFallsBackToUnknown(t *testing.T) {
	bundle := buildContextBundle(AgentDescriptor{}, longcot.Report{}, nil, nil, intent.Task{})
	if !strings.Contains(bundle, longcot.ArchUnknown) {
		t.Fatalf("expected the unknown-architecture fallback, got:\n%s", bundle)
	}
}

func TestTruncateToBudget_NoTruncationBelowBudget(t *testing.T) {
	short := "hello world"
	if got := truncateToBudget(short, 100); got != short {
		t.Fatalf("expected no change for a short string, got %q", got)
	}
}
