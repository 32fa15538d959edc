package intent

import (
	"regexp"
	"sort"
	"strings"
)

// slashCommands maps an explicit command prefix to its TaskType, in the
// declaration order used for tie-breaking (§4.3 step 1).
var slashCommands = []struct {
	prefix string
	task   TaskType
}{
	{"/scan", TaskScan},
	{"/build", TaskBuildFeature},
	{"/plan", TaskPlan},
	{"/fix", TaskFixBug},
	{"/refactor", TaskRefactor},
	{"/optimize", TaskOptimize},
	{"/test", TaskTest},
	{"/design", TaskDesign},
	{"/review", TaskReview},
	{"/doc", TaskDocument},
	{"/ship", TaskDeploy},
}

// keywordSets is the per-TaskType keyword catalogue used for step 2
// resolution. Declaration order breaks ties when a query matches more than
// one TaskType's set with an equal score.
var keywordOrder = []TaskType{
	TaskBuildFeature, TaskFixBug, TaskRefactor, TaskOptimize, TaskScan,
	TaskDesign, TaskTest, TaskReview, TaskDocument, TaskDeploy,
	TaskExplain, TaskPlan, TaskInstall,
}

var keywordSets = map[TaskType]map[string]bool{
	TaskBuildFeature: set("build", "create", "implement", "add", "develop", "make"),
	TaskFixBug:       set("fix", "bug", "error", "crash", "broken", "issue"),
	TaskRefactor:     set("refactor", "restructure", "cleanup", "reorganize", "simplify"),
	TaskOptimize:     set("optimize", "speed", "performance", "faster", "slow", "bottleneck"),
	TaskScan:         set("scan", "analyze", "inspect", "understand", "explore"),
	TaskDesign:       set("design", "architect", "plan-out", "blueprint"),
	TaskTest:         set("test", "tests", "coverage", "spec", "verify"),
	TaskReview:       set("review", "audit", "lint", "critique"),
	TaskDocument:     set("document", "docs", "readme", "comment"),
	TaskDeploy:       set("deploy", "ship", "release", "publish"),
	TaskExplain:      set("explain", "describe", "what", "how", "why"),
	TaskPlan:         set("plan", "roadmap", "schedule"),
	TaskInstall:      set("install", "setup", "configure", "dependency", "dependencies"),
}

// stopwords is stripped from the raw query before deriving params.subject
// when no quoted substring is present.
var stopwords = set(
	"refactor", "build", "optimize", "the", "app", "code", "please",
	"fix", "bug", "create", "add", "implement", "scan", "test", "review",
	"document", "deploy", "design", "explain", "plan", "install", "a", "an",
	"for", "to", "of", "in", "on", "my",
)

var quotedRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
var tokenRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Parse classifies raw user text into a Task. It never fails; unrecognized
// input yields TaskGeneric.
func Parse(rawQuery string) Task {
	trimmed := strings.TrimSpace(rawQuery)
	tokens := tokenize(trimmed)

	taskType := TaskGeneric
	if t, ok := matchSlashCommand(trimmed); ok {
		taskType = t
	} else if t, ok := matchKeywords(tokens); ok {
		taskType = t
	}

	params := map[string]string{"subject": extractSubject(trimmed, tokens)}

	return Task{
		TaskType: taskType,
		RawQuery: rawQuery,
		Params:   params,
	}
}

func matchSlashCommand(query string) (TaskType, bool) {
	lower := strings.ToLower(query)
	for _, sc := range slashCommands {
		if strings.HasPrefix(lower, sc.prefix) {
			return sc.task, true
		}
	}
	return "", false
}

// matchKeywords scores every TaskType's keyword set against the query's
// tokens, weighting a verb occurring as the first token 2x, and returns the
// highest-scoring TaskType. Ties are broken by keywordOrder declaration
// order. A query with no matches returns ok=false.
func matchKeywords(tokens []string) (TaskType, bool) {
	if len(tokens) == 0 {
		return "", false
	}
	first := strings.ToLower(tokens[0])

	best := TaskType("")
	bestScore := 0.0
	for _, taskType := range keywordOrder {
		kws := keywordSets[taskType]
		score := 0.0
		for _, tok := range tokens {
			lower := strings.ToLower(tok)
			if kws[lower] {
				weight := 1.0
				if lower == first {
					weight = 2.0
				}
				score += weight
			}
		}
		if score > bestScore {
			best, bestScore = taskType, score
		}
	}
	if bestScore == 0 {
		return "", false
	}
	return best, true
}

func tokenize(s string) []string {
	return tokenRe.FindAllString(s, -1)
}

// extractSubject implements the params.subject rule: a quoted substring
// wins; otherwise stopwords are stripped from the tokenized query and the
// remainder is joined back with single spaces.
func extractSubject(query string, tokens []string) string {
	if m := quotedRe.FindStringSubmatch(query); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}

	var kept []string
	for _, tok := range tokens {
		if stopwords[strings.ToLower(tok)] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// KnownTaskTypes returns the full closed TaskType set, TaskGeneric included,
// sorted by name, primarily for validation and test fixtures.
func KnownTaskTypes() []TaskType {
	out := make([]TaskType, 0, len(keywordOrder)+1)
	out = append(out, keywordOrder...)
	out = append(out, TaskGeneric)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
