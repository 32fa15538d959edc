// Package orchestrator implements the Orchestrator (C7): the single
// component that turns a parsed Task into a sequence of agent steps,
// applying the confidence gate, the circuit breaker, and the Artifact
// Registry along the way, with every decision and write durably recorded
// through the State/Audit Store (C9).
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autoforge/autoforge/internal/healer"
	"github.com/autoforge/autoforge/internal/intent"
	"github.com/autoforge/autoforge/internal/llm"
	"github.com/autoforge/autoforge/internal/longcot"
	"github.com/autoforge/autoforge/internal/plan"
	"github.com/autoforge/autoforge/internal/reasoning"
	"github.com/autoforge/autoforge/internal/scanner"
	"github.com/autoforge/autoforge/internal/skill"
	"github.com/autoforge/autoforge/internal/state"
	"github.com/autoforge/autoforge/internal/tool"
)

// Config bundles the knobs Orchestrator.New needs beyond the workspace
// path itself.
type Config struct {
	HighConf           float64
	MidConf            float64
	MaxSteps           int
	ScanDepth          scanner.Depth
	RateLimitPerMinute int
	HealingMaxAttempts int
}

// Orchestrator is the long-lived object a CLI session constructs once. It
// holds the eagerly-computed LongCoT Report for the workspace, the skill
// registry, the tool registry, and the State Store — every Submit call
// reuses them rather than re-scanning the workspace from scratch.
type Orchestrator struct {
	workspaceRoot string
	cfg           Config
	provider      llm.LLMProvider

	store    *state.Store
	skills   *skill.Registry
	tools    *tool.Registry
	agents   map[string]AgentDescriptor
	limiter  *tool.RateLimiter

	report longcot.Report

	lastSnapshot state.Snapshot
	breaker      *circuitBreaker
	plans        *plan.PlanStore
}

// New constructs an Orchestrator, scanning and analyzing the workspace
// once up front when it already contains source files (§4.7.1: "eager
// scan+analyze at construction"), and loading the skill registry and
// pipeline agent documents from disk.
func New(workspaceRoot string, cfg Config, provider llm.LLMProvider, tools *tool.Registry, auditLogPath string) (*Orchestrator, error) {
	if cfg.HighConf == 0 {
		cfg.HighConf = DefaultHighConf
	}
	if cfg.MidConf == 0 {
		cfg.MidConf = DefaultMidConf
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = reasoning.DefaultBudgetSteps
	}
	if cfg.ScanDepth == "" {
		cfg.ScanDepth = scanner.Shallow
	}
	if cfg.HealingMaxAttempts == 0 {
		cfg.HealingMaxAttempts = healer.DefaultMaxAttempts
	}

	store, err := state.New(workspaceRoot, auditLogPath)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: init state store: %w", err)
	}

	skills := skill.NewRegistry(workspaceRoot)
	if _, errs := skills.Load(); len(errs) > 0 {
		_ = store.AppendAudit(state.DecisionLogEntry{
			Timestamp: time.Now(), TaskType: "SCAN", Decision: "warn",
			Reason: fmt.Sprintf("skill registry load encountered %d error(s)", len(errs)),
		})
	}

	o := &Orchestrator{
		workspaceRoot: workspaceRoot,
		cfg:           cfg,
		provider:      provider,
		store:         store,
		skills:        skills,
		tools:         tools,
		agents:        LoadAgents(workspaceRoot),
		limiter:       tool.NewRateLimiter(cfg.RateLimitPerMinute),
		breaker:       newCircuitBreaker(),
		plans:         plan.NewPlanStore(),
		report:        longcot.Report{ArchitectureHypothesis: longcot.ArchUnknown},
	}

	if snap, ok, err := store.LoadSnapshot(); err == nil && ok {
		o.lastSnapshot = snap
	}

	_, files, scanErr := scanner.Scan(workspaceRoot, cfg.ScanDepth)
	if scanErr == nil && len(files) > 0 {
		if err := o.Rescan(); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Rescan re-runs the Document Scanner and Long-CoT Analyzer against the
// workspace, replacing the Orchestrator's cached Report and persisting a
// snapshot of it (§4.7.1, §4.2).
func (o *Orchestrator) Rescan() error {
	fp, files, err := scanner.Scan(o.workspaceRoot, o.cfg.ScanDepth)
	if err != nil {
		return fmt.Errorf("orchestrator: rescan: %w", err)
	}
	o.report = longcot.Analyze(files, fp)
	if err := o.store.SaveLongCoTSnapshot(o.report); err != nil {
		return fmt.Errorf("orchestrator: persist longcot snapshot: %w", err)
	}
	return nil
}

// Report returns the most recently computed Long-CoT Report.
func (o *Orchestrator) Report() longcot.Report { return o.report }

// Submit parses rawQuery into a Task, resolves its pipeline, and runs each
// step in order: select skills, build the context bundle, run the bounded
// ReAct loop, consult the confidence gate, track artifacts, and stop early
// on rejection, failure, or an open circuit breaker (§4.7.1-§4.7.7).
func (o *Orchestrator) Submit(ctx context.Context, rawQuery string, opts SubmitOptions) (PipelineRun, error) {
	task := intent.Parse(rawQuery)
	task.CreatedAt = time.Now().Format(time.RFC3339)

	runID := uuid.NewString()
	pipeline := PipelineFor(task.TaskType)

	highConf, midConf := opts.HighConf, opts.MidConf
	if highConf == 0 {
		highConf = o.cfg.HighConf
	}
	if midConf == 0 {
		midConf = o.cfg.MidConf
	}
	maxSteps := opts.MaxSteps
	if maxSteps == 0 {
		maxSteps = o.cfg.MaxSteps
	}

	run := PipelineRun{
		RunID:     runID,
		Task:      task,
		Pipeline:  pipeline,
		StartedAt: time.Now(),
	}

	o.plans.Set(runID, initialPlanSteps(pipeline, o.agents))

	var priorSummaries []string
	final := StatusSuccess

stepLoop:
	for position, agentID := range pipeline {
		if o.breaker.isOpen() {
			final = StatusFailed
			_ = o.store.AppendAudit(state.DecisionLogEntry{
				Timestamp: time.Now(), TaskType: string(task.TaskType),
				Decision: "reject", Reason: "circuit breaker open: aborting run",
			})
			break stepLoop
		}

		agent, ok := o.agents[agentID]
		if !ok {
			continue
		}

		stepStart := time.Now()
		o.plans.Update(runID, agentID, "in_progress", "")

		// §4.7.3: the gate consults the LongCoT Report's avg_confidence
		// "before executing step i" — confidence is captured here, at step
		// entry, and never drifts within the step (§3 invariant). It comes
		// from the Report, not from whatever the reasoning engine later
		// produces.
		confidence := o.report.AvgConfidence
		decision, reason := decideGate(gateParams{
			confidence:       confidence,
			isDestructive:    task.TaskType.IsDestructive(),
			autoMode:         opts.AutoMode,
			headless:         opts.Headless,
			headlessOverride: opts.HeadlessOverride,
			highConf:         highConf,
			midConf:          midConf,
		})

		if decision == GateRequestManual {
			// No interactive collaborator attached: a nil ManualApprove means
			// this call has no way to obtain approval regardless of the
			// literal value of opts.Headless, so it is treated the same as
			// headless with no override (§4.7.3's headless collapse rule,
			// applied for the same reason: nothing can say yes).
			if opts.ManualApprove != nil {
				if opts.ManualApprove(reason) {
					decision = GateManualApproved
				} else {
					decision = GateManualRejected
				}
			} else {
				decision = GateAutoReject
				reason += "; no interactive approval callback attached, collapsing to auto_reject"
			}
		}

		_ = o.store.AppendAudit(state.DecisionLogEntry{
			Timestamp: time.Now(), TaskType: string(task.TaskType), Confidence: confidence,
			IsDestructive: task.TaskType.IsDestructive(), Decision: string(decision), Reason: reason,
		})

		if decision == GateAutoReject || decision == GateManualRejected {
			run.StepResults = append(run.StepResults, StepResult{
				AgentID:      agentID,
				Confidence:   confidence,
				GateDecision: decision,
				GateReason:   reason,
				DurationMS:   time.Since(stepStart).Milliseconds(),
			})
			o.plans.Update(runID, agentID, "skipped", reason)
			final = StatusRejected
			break stepLoop
		}

		ranked := skill.SelectTop(o.skills.All(), rawQuery, task.TaskType, agentID, skill.DefaultTopK)
		contextBundle := buildContextBundle(agent, o.report, ranked, priorSummaries, task)

		allow := agent.Allowlist()
		baseDispatch := reasoning.NewDispatcher(o.tools, allow, o.limiter, runID)
		dispatch := trackingDispatcher(baseDispatch, o.workspaceRoot, o.store, runID, agentID)

		var outcome reasoning.Outcome
		if agentID == runtimeValidatorAgentID {
			outcome = runHealedStep(ctx, dispatch, o.workspaceRoot, runID, o.cfg.HealingMaxAttempts)
		} else {
			outcome = reasoning.Run(ctx, reasoning.Config{
				Provider:    o.provider,
				Dispatch:    dispatch,
				ToolsPrompt: o.tools.GenerateToolsPrompt(),
				BudgetSteps: maxSteps,
			}, contextBundle)
		}

		step := StepResult{
			AgentID:           agentID,
			Confidence:        confidence,
			SkillsSelected:    skillSelectionsFromRanked(ranked),
			ReasoningTrace:    outcome.History,
			ArtifactsProduced: artifactPaths(outcome.History),
			GateDecision:      decision,
			GateReason:        reason,
			DurationMS:        time.Since(stepStart).Milliseconds(),
		}
		run.StepResults = append(run.StepResults, step)

		if outcome.Failed || outcome.Partial {
			o.plans.Update(runID, agentID, "error", outcome.FailReason)
			if o.breaker.recordFailure(agentID) {
				final = StatusFailed
				break stepLoop
			}
			final = StatusPartial
			continue
		}
		o.breaker.recordSuccess(agentID)
		o.plans.Update(runID, agentID, "done", "")

		priorSummaries = append(priorSummaries, fmt.Sprintf("[%s] %s", agentID, outcome.Summary))
		_ = o.store.AppendSessionContext(fmt.Sprintf("step %d/%d agent=%s confidence=%.2f decision=%s: %s",
			position+1, len(pipeline), agentID, confidence, decision, outcome.Summary))
	}

	run.EndedAt = time.Now()
	run.FinalStatus = final

	artifactCount := 0
	if entries, err := o.store.LoadManifest(runID); err == nil {
		artifactCount = len(entries)
	}
	snap := state.Snapshot{
		CurrentPipelinePosition: o.plans.CurrentPosition(runID),
		LastConfidence:          lastConfidence(run.StepResults),
		ArtifactCount:           artifactCount,
		CircuitBreakerState:     breakerState(o.breaker),
		LastLongCoTSummary:      o.report.ArchitectureHypothesis,
	}
	o.lastSnapshot = snap
	if err := o.store.SaveSnapshot(snap); err != nil {
		return run, fmt.Errorf("orchestrator: save snapshot: %w", err)
	}

	return run, nil
}

// Rollback restores every artifact the given run produced to its
// pre-write backup (or removes the path if it did not exist before the
// run) and marks every entry for the run superseded, never deleting the
// audit trail itself (§4.7.5).
func (o *Orchestrator) Rollback(runID string) (RollbackResult, error) {
	entries, err := o.store.LoadManifest(runID)
	if err != nil {
		return RollbackResult{}, fmt.Errorf("orchestrator: rollback: %w", err)
	}

	result := RollbackResult{RunID: runID}
	// The earliest entry per path holds the pre-run backup; paths already
	// rolled back carry the rollback marker and are skipped.
	handled := map[string]bool{}
	for _, e := range entries {
		if strings.HasPrefix(e.SupersededBy, "rollback:") {
			handled[e.Path] = true
		}
	}
	for _, e := range entries {
		if handled[e.Path] {
			continue
		}
		handled[e.Path] = true
		if e.BackupHash == "" {
			if err := restorePath(o.workspaceRoot, e.Path, nil, true); err == nil {
				result.PathsRemoved = append(result.PathsRemoved, e.Path)
			}
			continue
		}
		backup, err := o.store.ReadBackup(runID, e.BackupHash)
		if err != nil {
			continue
		}
		if err := restorePath(o.workspaceRoot, e.Path, backup, false); err == nil {
			result.PathsRestored = append(result.PathsRestored, e.Path)
		}
	}

	if err := o.store.MarkAllSuperseded(runID, "rollback:"+runID); err != nil {
		return result, fmt.Errorf("orchestrator: mark superseded: %w", err)
	}
	result.EntriesMarked = len(entries)
	return result, nil
}

// Status reports the last committed Snapshot (§4.7.1).
func (o *Orchestrator) Status() StatusSnapshot {
	return StatusSnapshot{
		CurrentPipelinePosition: o.lastSnapshot.CurrentPipelinePosition,
		LastConfidence:          o.lastSnapshot.LastConfidence,
		ArtifactCount:           o.lastSnapshot.ArtifactCount,
		CircuitBreakerState:     o.lastSnapshot.CircuitBreakerState,
	}
}

// initialPlanSteps seeds a run's live plan from its resolved pipeline, one
// PlanStep per agent, all starting pending.
func initialPlanSteps(pipeline []string, agents map[string]AgentDescriptor) []plan.PlanStep {
	steps := make([]plan.PlanStep, 0, len(pipeline))
	for _, agentID := range pipeline {
		title := agentID
		if a, ok := agents[agentID]; ok && a.Role != "" {
			title = a.Role
		}
		steps = append(steps, plan.PlanStep{ID: agentID, Title: title, Status: "pending"})
	}
	return steps
}

// Plan returns the live step-by-step plan for an in-flight or completed
// run, reflecting each pipeline agent's current status.
func (o *Orchestrator) Plan(runID string) []plan.PlanStep {
	return o.plans.Get(runID)
}

func lastConfidence(steps []StepResult) float64 {
	if len(steps) == 0 {
		return 0
	}
	return steps[len(steps)-1].Confidence
}

func breakerState(c *circuitBreaker) string {
	if c.isOpen() {
		return "open"
	}
	return "closed"
}
