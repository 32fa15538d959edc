package longcot

import (
	"context"
	"sort"
	"strings"

	"github.com/autoforge/autoforge/internal/core"
)

type phase3Prep struct {
	modules     map[string]moduleInfo
	entrypoints []string
}

type phase3Exec struct {
	graph       map[string]map[string]bool // module -> set of modules it imports
	inDegree    map[string]int
	entryModules map[string]bool
}

// phase3Node is "Critical Path Identification": builds the cross-module
// import graph and flags critical modules.
type phase3Node struct{}

func (phase3Node) Prep(s *state) []phase3Prep {
	return []phase3Prep{{modules: s.modules, entrypoints: s.fingerprint.Entrypoints}}
}

func (phase3Node) Exec(_ context.Context, p phase3Prep) (phase3Exec, error) {
	graph := map[string]map[string]bool{}
	for name := range p.modules {
		graph[name] = map[string]bool{}
	}

	for name, mod := range p.modules {
		for _, f := range mod.files {
			for _, imp := range f.Imports {
				target := resolveImportModule(imp, p.modules)
				if target == "" || target == name {
					continue // dangling edge or self-import: not fatal, just skipped
				}
				graph[name][target] = true
			}
		}
	}

	inDegree := map[string]int{}
	for _, targets := range graph {
		for t := range targets {
			inDegree[t]++
		}
	}

	entryModules := map[string]bool{}
	for _, ep := range p.entrypoints {
		entryModules[topLevelDir(ep)] = true
	}

	return phase3Exec{graph: graph, inDegree: inDegree, entryModules: entryModules}, nil
}

func (phase3Node) Post(s *state, prepRes []phase3Prep, execResults ...phase3Exec) core.Action {
	if len(prepRes) == 0 || len(execResults) == 0 {
		return core.ActionContinue
	}
	r := execResults[0]

	threshold := topQuartile(r.inDegree)
	reachable := reachableFrom(r.graph, r.entryModules)

	names := make([]string, 0, len(r.graph))
	for name := range r.graph {
		names = append(names, name)
	}
	sort.Strings(names)

	maxIn := 0
	for _, d := range r.inDegree {
		if d > maxIn {
			maxIn = d
		}
	}

	var critical []CriticalPathPayload
	for _, name := range names {
		var reasons []string
		if r.entryModules[name] {
			reasons = append(reasons, "contains-entrypoint")
		}
		if r.inDegree[name] >= threshold && threshold > 0 {
			reasons = append(reasons, "in-degree-top-quartile")
		}
		if reachable[name] {
			reasons = append(reasons, "reachable-from-entrypoint")
		}
		if len(reasons) == 0 {
			continue
		}
		critical = append(critical, CriticalPathPayload{Module: name, InDegree: r.inDegree[name], Reasons: reasons})
	}

	// Order by (in-degree DESC, name ASC) for determinism (§4.2 Phase 3).
	sort.Slice(critical, func(i, j int) bool {
		if critical[i].InDegree != critical[j].InDegree {
			return critical[i].InDegree > critical[j].InDegree
		}
		return critical[i].Module < critical[j].Module
	})

	s.criticalPaths = critical
	for _, c := range critical {
		confidence := 0.0
		if maxIn > 0 {
			confidence = float64(c.InDegree) / float64(maxIn)
		}
		s.insights = append(s.insights, Insight{
			Kind:       KindCriticalPath,
			Payload:    c,
			Confidence: confidence,
			Rationale:  strings.Join(c.Reasons, ", "),
		})
	}
	return core.ActionContinue
}

func (phase3Node) ExecFallback(err error) phase3Exec {
	return phase3Exec{graph: map[string]map[string]bool{}, inDegree: map[string]int{}, entryModules: map[string]bool{}}
}

// resolveImportModule maps a raw (possibly unresolved) import string to a
// known module name by substring match. Unresolved imports become dangling
// edges (returns "") and never fail the analysis.
func resolveImportModule(imp string, modules map[string]moduleInfo) string {
	for name := range modules {
		if strings.Contains(imp, "/"+name+"/") || strings.HasSuffix(imp, "/"+name) || strings.Contains(imp, name+".") {
			return name
		}
	}
	return ""
}

// topQuartile returns the in-degree value at the 75th percentile; modules
// at or above it are "in the top quartile".
func topQuartile(inDegree map[string]int) int {
	if len(inDegree) == 0 {
		return 0
	}
	vals := make([]int, 0, len(inDegree))
	for _, d := range inDegree {
		vals = append(vals, d)
	}
	sort.Ints(vals)
	idx := (len(vals) * 3) / 4
	if idx >= len(vals) {
		idx = len(vals) - 1
	}
	return vals[idx]
}

// reachableFrom computes, via BFS over the (possibly cyclic) import graph,
// the set of modules reachable from every entrypoint module simultaneously
// — "reachable from every entrypoint" (§4.2 Phase 3c).
func reachableFrom(graph map[string]map[string]bool, entryModules map[string]bool) map[string]bool {
	if len(entryModules) == 0 {
		return map[string]bool{}
	}

	perEntry := make([]map[string]bool, 0, len(entryModules))
	for entry := range entryModules {
		visited := map[string]bool{}
		queue := []string{entry}
		visited[entry] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for next := range graph[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		perEntry = append(perEntry, visited)
	}

	result := map[string]bool{}
	for name := range graph {
		inAll := true
		for _, v := range perEntry {
			if !v[name] {
				inAll = false
				break
			}
		}
		if inAll {
			result[name] = true
		}
	}
	return result
}
