package orchestrator

import (
	"time"

	"github.com/autoforge/autoforge/internal/intent"
	"github.com/autoforge/autoforge/internal/reasoning"
	"github.com/autoforge/autoforge/internal/skill"
)

// FinalStatus is a Pipeline Run's terminal outcome (§3).
type FinalStatus string

const (
	StatusSuccess  FinalStatus = "success"
	StatusRejected FinalStatus = "rejected"
	StatusFailed   FinalStatus = "failed"
	StatusPartial  FinalStatus = "partial"
)

// SkillSelection pairs a selected skill's name with the score it was
// chosen at, the shape a StepResult's skills_selected list carries.
type SkillSelection struct {
	Name  string
	Score float64
}

// StepResult is one agent step's outcome (§3).
type StepResult struct {
	AgentID            string
	Confidence         float64
	SkillsSelected     []SkillSelection
	ReasoningTrace     []reasoning.Step
	ArtifactsProduced  []string
	GateDecision       GateDecision
	GateReason         string
	DurationMS         int64
}

// PipelineRun is the full record of one submit() call (§3).
type PipelineRun struct {
	RunID       string
	Task        intent.Task
	Pipeline    []string
	StepResults []StepResult
	FinalStatus FinalStatus
	StartedAt   time.Time
	EndedAt     time.Time
}

// SubmitOptions controls one Submit call's policy knobs, sourced from CLI
// flags / env vars (§6).
type SubmitOptions struct {
	AutoMode bool // --auto / AUTO_APPROVE
	Headless bool // disables interactive manual-approval prompts
	// ManualApprove, when non-nil, is consulted whenever the gate reaches
	// request_manual in non-headless mode. A nil func means no interactive
	// collaborator is attached (§1 Non-goals: the menu/CLI is external), so
	// request_manual collapses to auto_reject exactly as headless does.
	ManualApprove func(reason string) bool
	// HeadlessOverride lets a caller force a headless request_manual
	// decision through instead of collapsing it to auto_reject (§4.7.3).
	HeadlessOverride bool
	HighConf         float64 // 0 means DefaultHighConf
	MidConf          float64 // 0 means DefaultMidConf
	MaxSteps         int     // 0 means reasoning.DefaultBudgetSteps
}

// RollbackResult summarizes a rollback() call (§4.7.5).
type RollbackResult struct {
	RunID           string
	PathsRestored   []string
	PathsRemoved    []string
	EntriesMarked   int
}

// StatusSnapshot is the status() response (§4.7.1).
type StatusSnapshot struct {
	CurrentPipelinePosition int
	LastConfidence          float64
	ArtifactCount           int
	CircuitBreakerState     string
}

// skillSelectionsFromRanked adapts skill.Ranked (internal to the skill
// package) into the orchestrator's own StepResult-facing shape, keeping
// the skill package's scoring internals out of the orchestrator's public
// surface.
func skillSelectionsFromRanked(ranked []skill.Ranked) []SkillSelection {
	out := make([]SkillSelection, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, SkillSelection{Name: r.Descriptor.Name, Score: r.Score})
	}
	return out
}
