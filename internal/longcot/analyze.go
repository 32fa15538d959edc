package longcot

import (
	"context"

	"github.com/autoforge/autoforge/internal/core"
	"github.com/autoforge/autoforge/internal/scanner"
)

// Analyze runs the four-phase Tree-of-Thought analysis over a scan's File
// Records and Fingerprint and returns the resulting Report. It never calls
// an LLM and never touches the filesystem; it is a pure function of its
// arguments modulo the deterministic tie-breaking documented in each phase.
func Analyze(files []scanner.FileRecord, fp scanner.Fingerprint) Report {
	s := &state{files: files, fingerprint: fp}

	n1 := core.NewNode[state, phase1Prep, phase1Exec](phase1Node{}, 0)
	n2 := core.NewNode[state, phase2Prep, phase2Exec](phase2Node{}, 0)
	n3 := core.NewNode[state, phase3Prep, phase3Exec](phase3Node{}, 0)
	n4 := core.NewNode[state, phase4Prep, phase4Exec](phase4Node{}, 0)

	n1.AddSuccessor(n2, core.ActionContinue)
	n2.AddSuccessor(n3, core.ActionContinue)
	n3.AddSuccessor(n4, core.ActionContinue)
	n4.AddSuccessor(n1, core.ActionBacktrack)
	// core.ActionAccept has no successor: the flow terminates there.

	flow := core.NewFlow[state](n1)
	flow.Run(context.Background(), s)

	insights := make([]Insight, 0, len(s.priorReflections)+len(s.insights))
	insights = append(insights, s.priorReflections...)
	insights = append(insights, s.insights...)

	critModules := make([]string, 0, len(s.criticalPaths))
	for _, c := range s.criticalPaths {
		critModules = append(critModules, c.Module)
	}

	return Report{
		Insights:               insights,
		AvgConfidence:          avgConfidence(s.insights),
		StepCount:              (s.backtrackCount + 1) * 4,
		ReflectionCount:        s.reflections,
		BacktrackCount:         s.backtrackCount,
		ArchitectureHypothesis: s.hypothesis,
		CriticalPaths:          critModules,
	}
}

// avgConfidence is the mean per-insight reward of the final accepted pass —
// the same quantity Phase 4 computed to decide acceptance, which Phase 4
// stores as the Confidence of that pass's closing validation-reflection
// insight.
func avgConfidence(insights []Insight) float64 {
	for i := len(insights) - 1; i >= 0; i-- {
		if insights[i].Kind == KindValidationReflection {
			return insights[i].Confidence
		}
	}
	return 0
}
