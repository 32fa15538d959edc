package longcot

import (
	"context"
	"sort"
	"strings"

	"github.com/autoforge/autoforge/internal/core"
	"github.com/autoforge/autoforge/internal/scanner"
)

// purposeKeywords is the fixed keyword catalogue used to infer a module's
// purpose from filename frequency.
var purposeKeywords = []string{"agent", "orchestrator", "scanner", "test", "tool", "skill", "config", "server", "client", "util"}

type phase2Prep struct {
	module moduleInfo
}

type phase2Exec struct {
	module     string
	complexity string
	purpose    string
	confidence float64
	fileCount  int
}

// phase2Node is "Module Deep Reasoning (depth, per module)": one Exec per
// module, mirroring the one-Insight-per-module contract directly via the
// engine's native |prepRes| == |execResults| fan-out.
type phase2Node struct{}

func (phase2Node) Prep(s *state) []phase2Prep {
	byModule := map[string][]scanner.FileRecord{}
	for _, f := range s.files {
		mod := topLevelDir(f.Path)
		if mod == "" {
			continue
		}
		byModule[mod] = append(byModule[mod], f)
	}

	names := make([]string, 0, len(byModule))
	for name := range byModule {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic order

	s.modules = make(map[string]moduleInfo, len(names))
	var preps []phase2Prep
	for _, name := range names {
		files := byModule[name]
		if len(files) == 0 {
			continue
		}
		info := moduleInfo{name: name, files: files}
		s.modules[name] = info
		preps = append(preps, phase2Prep{module: info})
	}
	return preps
}

func (phase2Node) Exec(_ context.Context, p phase2Prep) (phase2Exec, error) {
	n := len(p.module.files)
	complexity := "low"
	switch {
	case n > 50:
		complexity = "high"
	case n >= 10:
		complexity = "medium"
	}

	purpose, coverage := inferPurpose(p.module.name, p.module.files)
	langConsistency := languageConsistency(p.module.files)
	confidence := 0.6*coverage + 0.4*langConsistency

	return phase2Exec{
		module:     p.module.name,
		complexity: complexity,
		purpose:    purpose,
		confidence: confidence,
		fileCount:  n,
	}, nil
}

func (phase2Node) Post(s *state, _ []phase2Prep, execResults ...phase2Exec) core.Action {
	for _, r := range execResults {
		s.insights = append(s.insights, Insight{
			Kind: KindModuleAnalysis,
			Payload: ModulePayload{
				Module: r.module, Complexity: r.complexity, Purpose: r.purpose, FileCount: r.fileCount,
			},
			Confidence: r.confidence,
			Rationale:  "purpose-keyword coverage and language consistency",
		})
	}
	return core.ActionContinue
}

func (phase2Node) ExecFallback(err error) phase2Exec {
	return phase2Exec{module: "unknown", complexity: "low", purpose: "unknown"}
}

func topLevelDir(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// inferPurpose scans filenames in the module for the fixed keyword
// catalogue and returns the most frequent match plus its coverage ratio.
func inferPurpose(moduleName string, files []scanner.FileRecord) (string, float64) {
	counts := map[string]int{}
	for _, f := range files {
		lower := strings.ToLower(f.Path)
		for _, kw := range purposeKeywords {
			if strings.Contains(lower, kw) {
				counts[kw]++
			}
		}
	}
	if len(counts) == 0 {
		return moduleName, 0
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	best := keys[0]
	return best, float64(counts[best]) / float64(len(files))
}

func languageConsistency(files []scanner.FileRecord) float64 {
	if len(files) == 0 {
		return 0
	}
	counts := map[string]int{}
	for _, f := range files {
		counts[f.Language]++
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return float64(max) / float64(len(files))
}
