package longcot

import (
	"context"

	"github.com/autoforge/autoforge/internal/core"
)

type phase4Prep struct {
	insights            []Insight
	architecture        ArchitecturePayload
	archConflictPenalty float64
	modules             map[string]moduleInfo
	backtrackCount      int
}

type phase4Exec struct {
	rewards       []float64
	avgConfidence float64
	backtrack     bool
}

// phase4Node is "Reflection & Validation": the lightweight process reward
// model that scores every insight emitted so far and decides whether to
// backtrack into Phase 1. It is the analyzer's analogue of the teacher's
// silent Supervisor quality gate in internal/thinking/node.go — a review
// step invisible to the caller that can force another pass.
//
// Scoring is deliberately independent of each insight's own Confidence
// (§4.2.1 Phase 4): Phase 4 recomputes a reward from the same raw signals
// the producing phase used, rather than trusting the producing phase's
// self-assessment. An insight with a high self-reported Confidence but weak
// Phase-4 reward is exactly the disagreement backtracking exists to catch.
type phase4Node struct{}

func (phase4Node) Prep(s *state) []phase4Prep {
	var arch ArchitecturePayload
	for _, ins := range s.insights {
		if ins.Kind == KindArchitectureHypothesis {
			arch = ins.Payload.(ArchitecturePayload)
		}
	}

	return []phase4Prep{{
		insights:            s.insights,
		architecture:        arch,
		archConflictPenalty: architectureConflictPenalty(s, arch),
		modules:             s.modules,
		backtrackCount:      s.backtrackCount,
	}}
}

// architectureConflictPenalty re-derives every non-winning, non-masked
// hypothesis' support score (the same supportScore rubric Phase 1 itself
// scores against) and returns half the strongest runner-up's score. A
// runner-up nearly as well supported as the winner means the structural
// signals genuinely point two ways — "conflicting signals" — and the
// architecture reward should reflect that ambiguity even though Phase 1
// had to commit to a single hypothesis.
func architectureConflictPenalty(s *state, winner ArchitecturePayload) float64 {
	if winner.Hypothesis == "" || winner.Hypothesis == ArchUnknown {
		return 0
	}
	p1 := phase1Node{}.Prep(s)[0]

	runnerUp := 0.0
	for _, hyp := range ArchTaxonomy {
		if hyp == winner.Hypothesis || p1.masked[hyp] {
			continue
		}
		if score := supportScore(hyp, p1); score > runnerUp {
			runnerUp = score
		}
	}
	return runnerUp / 2
}

// modulePurposeCoverage recomputes the purpose-keyword coverage ratio for a
// named module directly from its file list, independent of the blended
// confidence (0.6*coverage + 0.4*language-consistency, phase2.go) Phase 2
// reported for it.
func modulePurposeCoverage(modules map[string]moduleInfo, name string) (string, float64) {
	info, ok := modules[name]
	if !ok {
		return "", 0
	}
	return inferPurpose(info.name, info.files)
}

func (phase4Node) Exec(_ context.Context, p phase4Prep) (phase4Exec, error) {
	maxIn := 0
	for _, ins := range p.insights {
		if ins.Kind == KindCriticalPath {
			if cp, ok := ins.Payload.(CriticalPathPayload); ok && cp.InDegree > maxIn {
				maxIn = cp.InDegree
			}
		}
	}

	var rewards []float64
	for _, ins := range p.insights {
		var reward float64
		switch payload := ins.Payload.(type) {
		case ArchitecturePayload:
			reward = payload.Score - p.archConflictPenalty
			if reward < 0 {
				reward = 0
			}
		case ModulePayload:
			_, coverage := modulePurposeCoverage(p.modules, payload.Module)
			reward = coverage
		case CriticalPathPayload:
			if maxIn > 0 {
				reward = float64(payload.InDegree) / float64(maxIn)
			}
		default:
			// validation-reflection insights from a prior backtracked pass
			// never reach here (Prep only sees the current pass' insights),
			// so this is an unreached defensive fallback.
			reward = ins.Confidence
		}
		rewards = append(rewards, reward)
	}

	avg := 0.0
	if len(rewards) > 0 {
		total := 0.0
		for _, r := range rewards {
			total += r
		}
		avg = total / float64(len(rewards))
	}

	// An already-unknown hypothesis has nothing left to mask: Phase 1 falls
	// back to ArchUnknown whenever every remaining (non-masked) hypothesis
	// scores below ArchMinSupport, so retrying buys no new signal. Backtrack
	// only when there's a genuine hypothesis to discard in favor of another.
	backtrack := avg < BacktrackThreshold && p.backtrackCount < MaxBacktracks &&
		p.architecture.Hypothesis != "" && p.architecture.Hypothesis != ArchUnknown
	return phase4Exec{rewards: rewards, avgConfidence: avg, backtrack: backtrack}, nil
}

func (phase4Node) Post(s *state, _ []phase4Prep, execResults ...phase4Exec) core.Action {
	r := execResults[0]
	s.reflections++

	if r.backtrack {
		// Mask the lowest-supported hypothesis' distinguishing cues so the
		// re-run of Phase 1 does not immediately re-derive the discarded
		// hypothesis from the same cues.
		if s.maskedHypotheses == nil {
			s.maskedHypotheses = map[string]bool{}
		}
		s.maskedHypotheses[s.hypothesis] = true
		s.backtrackCount++

		s.priorReflections = append(s.priorReflections, Insight{
			Kind:       KindValidationReflection,
			Payload:    ReflectionPayload{BacktrackTriggered: true, Decisions: []string{"avg_confidence below threshold, backtracking"}},
			Confidence: r.avgConfidence,
			Rationale:  "avg_confidence < BACKTRACK_THRESHOLD and backtrack budget remaining",
		})

		// Reset per-run accumulation for the fresh Phase 1/2/3 pass, but
		// keep maskedHypotheses, backtrackCount, and priorReflections.
		s.insights = nil
		s.modules = nil
		s.criticalPaths = nil
		s.hypothesisSet = false
		return core.ActionBacktrack
	}

	s.insights = append(s.insights, Insight{
		Kind:       KindValidationReflection,
		Payload:    ReflectionPayload{BacktrackTriggered: false},
		Confidence: r.avgConfidence,
		Rationale:  "avg_confidence acceptable or backtrack budget exhausted",
	})
	return core.ActionAccept
}

func (phase4Node) ExecFallback(err error) phase4Exec {
	return phase4Exec{avgConfidence: 0, backtrack: false}
}
