package orchestrator

import (
	"fmt"
	"strings"

	"github.com/autoforge/autoforge/internal/intent"
	"github.com/autoforge/autoforge/internal/longcot"
	"github.com/autoforge/autoforge/internal/skill"
	"github.com/autoforge/autoforge/internal/util"
)

// priorSummaryMaxRunes bounds how much of each prior step's summary is
// replayed into a later step's context bundle.
const priorSummaryMaxRunes = 240

// ContextBudgetChars bounds how much of each skill body is injected into a
// step's context bundle (§4.7.4(b)).
const ContextBudgetChars = 2000

// buildContextBundle assembles the text handed to the Reasoning Engine for
// one step: agent body, current LongCoT summary, skill bodies (truncated
// to ContextBudgetChars), prior step summaries, and the Task. Modeled on
// the teacher's three-layer prompt assembly (internal/agent/decide.go,
// internal/prompt/loader.go): there, a system prompt is built by layering
// L1 hardcoded behavior, L2 project rules, and L3 user rules in a fixed
// order; here the layers are agent body, longcot summary, and skill
// bodies, composed the same way — fixed order, each layer optional.
func buildContextBundle(agent AgentDescriptor, report longcot.Report, skills []skill.Ranked, priorSummaries []string, task intent.Task) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Agent: %s (%s)\n\n%s\n\n", agent.ID, agent.Role, agent.Body)

	fmt.Fprintf(&sb, "# Project understanding (confidence %.2f)\n", report.AvgConfidence)
	fmt.Fprintf(&sb, "Architecture hypothesis: %s\n", orUnknown(report.ArchitectureHypothesis))
	if len(report.CriticalPaths) > 0 {
		fmt.Fprintf(&sb, "Critical paths: %s\n", strings.Join(report.CriticalPaths, ", "))
	}
	sb.WriteString("\n")

	if len(skills) > 0 {
		sb.WriteString("# Relevant skills\n")
		for _, r := range skills {
			fmt.Fprintf(&sb, "## %s (score %.2f)\n%s\n\n", r.Descriptor.Name, r.Score, truncateToBudget(r.Descriptor.Body, ContextBudgetChars))
		}
	}

	if len(priorSummaries) > 0 {
		sb.WriteString("# Prior step summaries\n")
		for i, s := range priorSummaries {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, util.TruncateRunes(s, priorSummaryMaxRunes))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "# Task\nType: %s\nRequest: %s\n", task.TaskType, task.RawQuery)
	if subject := task.Params["subject"]; subject != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", subject)
	}

	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return longcot.ArchUnknown
	}
	return s
}
