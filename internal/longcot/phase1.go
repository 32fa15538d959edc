package longcot

import (
	"context"
	"sort"
	"strings"

	"github.com/autoforge/autoforge/internal/core"
)

// phase1Prep carries the whole-codebase structural signals Phase 1 scores
// hypotheses against.
type phase1Prep struct {
	dirNames     map[string]bool
	fileCount    int
	entrypoints  []string
	frameworks   []string
	masked       map[string]bool
}

type phase1Exec struct {
	hypothesis string
	score      float64
}

// phase1Node is "Architecture Reasoning (breadth, then select)".
type phase1Node struct{}

func (phase1Node) Prep(s *state) []phase1Prep {
	dirNames := map[string]bool{}
	for _, f := range s.files {
		if i := strings.IndexByte(f.Path, '/'); i >= 0 {
			dirNames[f.Path[:i]] = true
		}
	}
	return []phase1Prep{{
		dirNames:    dirNames,
		fileCount:   len(s.files),
		entrypoints: s.fingerprint.Entrypoints,
		frameworks:  s.fingerprint.Frameworks,
		masked:      s.maskedHypotheses,
	}}
}

func (phase1Node) Exec(_ context.Context, p phase1Prep) (phase1Exec, error) {
	if p.fileCount == 0 {
		return phase1Exec{hypothesis: ArchUnknown, score: 0}, nil
	}

	scores := make(map[string]float64, len(ArchTaxonomy))
	for _, hyp := range ArchTaxonomy {
		if p.masked[hyp] {
			continue
		}
		scores[hyp] = supportScore(hyp, p)
	}

	best, bestScore := ArchUnknown, -1.0
	// Deterministic selection: highest score wins; ties broken by
	// lexicographic hypothesis name (§4.2.2).
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if scores[name] > bestScore {
			best, bestScore = name, scores[name]
		}
	}

	if bestScore < ArchMinSupport {
		return phase1Exec{hypothesis: ArchUnknown, score: bestScore}, nil
	}
	return phase1Exec{hypothesis: best, score: bestScore}, nil
}

func (phase1Node) Post(s *state, _ []phase1Prep, execResults ...phase1Exec) core.Action {
	r := execResults[0]
	s.hypothesis = r.hypothesis
	s.hypothesisSet = true
	s.insights = append(s.insights, Insight{
		Kind:       KindArchitectureHypothesis,
		Payload:    ArchitecturePayload{Hypothesis: r.hypothesis, Score: r.score},
		Confidence: r.score,
		Rationale:  "structural signal match against hypothesis rubric",
	})
	return core.ActionContinue
}

func (phase1Node) ExecFallback(err error) phase1Exec {
	return phase1Exec{hypothesis: ArchUnknown, score: 0}
}

// supportScore matches structural signals against a per-hypothesis rubric.
// Each rubric is a small set of directory-name / entrypoint / framework
// cues; the score is the fraction of cues present, deterministic and
// bounded to [0,1].
func supportScore(hyp string, p phase1Prep) float64 {
	var cues []bool
	has := func(name string) bool { return p.dirNames[name] }
	hasEntry := func(pattern string) bool {
		for _, e := range p.entrypoints {
			if strings.Contains(e, pattern) {
				return true
			}
		}
		return false
	}
	hasFramework := func(fw string) bool {
		for _, f := range p.frameworks {
			if f == fw {
				return true
			}
		}
		return false
	}

	switch hyp {
	case ArchMultiAgentSystem:
		cues = []bool{has("agent") || has("agents"), has("orchestrator"), has("tool") || has("tools"), has("skill") || has("skills")}
	case ArchMicroservices:
		cues = []bool{has("services") || has("service"), has("cmd") && p.fileCount > 20, hasFramework("next") == false && has("gateway")}
	case ArchMonolithWebapp:
		cues = []bool{hasFramework("next") || hasFramework("angular") || hasFramework("nuxt"), has("views") || has("templates"), has("routes") || has("controllers")}
	case ArchClientServer:
		cues = []bool{has("client"), has("server"), has("api")}
	case ArchLibrary:
		cues = []bool{has("pkg"), !hasEntry("main."), len(p.entrypoints) == 0}
	case ArchCLITool:
		cues = []bool{has("cmd"), hasEntry("main."), has("flags") || has("cli")}
	case ArchPipeline:
		cues = []bool{has("pipeline"), has("stage") || has("stages"), has("worker") || has("workers")}
	case ArchPluginSystem:
		cues = []bool{has("plugin") || has("plugins"), has("registry"), has("extension") || has("extensions")}
	default:
		return 0
	}

	hit := 0
	for _, c := range cues {
		if c {
			hit++
		}
	}
	if len(cues) == 0 {
		return 0
	}
	return float64(hit) / float64(len(cues))
}
