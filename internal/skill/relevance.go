package skill

import (
	"regexp"
	"sort"
	"strings"

	"github.com/autoforge/autoforge/internal/intent"
)

// DefaultTopK is the default number of skills a step selects (§4.4).
const DefaultTopK = 3

// taskCategoryMap is the pre-declared (task_type → category) table
// categoryMatch consults.
var taskCategoryMap = map[intent.TaskType]string{
	intent.TaskBuildFeature: "feature",
	intent.TaskFixBug:       "debugging",
	intent.TaskRefactor:     "refactoring",
	intent.TaskOptimize:     "performance",
	intent.TaskScan:         "analysis",
	intent.TaskDesign:       "architecture",
	intent.TaskTest:         "testing",
	intent.TaskReview:       "quality",
	intent.TaskDocument:     "documentation",
	intent.TaskDeploy:       "deployment",
	intent.TaskExplain:      "analysis",
	intent.TaskPlan:         "architecture",
	intent.TaskInstall:      "setup",
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Tokens splits free text into lowercase word tokens — the shared tokenizer
// the scoring functions below all use.
func Tokens(text string) []string {
	raw := wordRe.FindAllString(text, -1)
	out := make([]string, len(raw))
	for i, w := range raw {
		out[i] = strings.ToLower(w)
	}
	return out
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// keywordOverlap is |intersection(skill.keywords, tokens)| / |skill.keywords|,
// capped at 1. An empty keyword set has no overlap to offer.
func keywordOverlap(d *Descriptor, tokens map[string]bool) float64 {
	if len(d.Keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range d.Keywords {
		if tokens[strings.ToLower(kw)] {
			hits++
		}
	}
	score := float64(hits) / float64(len(d.Keywords))
	if score > 1 {
		score = 1
	}
	return score
}

// categoryMatch is 1 if the skill's category matches the pre-declared
// category for the query's task type, else 0.
func categoryMatch(d *Descriptor, taskType intent.TaskType) float64 {
	if want, ok := taskCategoryMap[taskType]; ok && want == d.Category {
		return 1
	}
	return 0
}

// agentAffinity is the skill's declared affinity for agentID, normalized by
// the maximum affinity the skill declares for any agent. A skill with no
// affinity table, or none for this agent, scores 0.
func agentAffinity(d *Descriptor, agentID string) float64 {
	if len(d.AgentAffinity) == 0 {
		return 0
	}
	weight, ok := d.AgentAffinity[agentID]
	if !ok || weight <= 0 {
		return 0
	}
	max := 0.0
	for _, w := range d.AgentAffinity {
		if w > max {
			max = w
		}
	}
	if max == 0 {
		return 0
	}
	return weight / max
}

// nameTokenMatch is 1 if any token of the skill's name occurs in the
// query's tokens, else 0.
func nameTokenMatch(d *Descriptor, tokens map[string]bool) float64 {
	for _, part := range Tokens(d.Name) {
		if tokens[part] {
			return 1
		}
	}
	return 0
}

// Score computes the deterministic, bounded-to-[0,1] relevance score for a
// skill against a query and acting agent (§4.4's weighted formula).
func Score(d *Descriptor, query string, taskType intent.TaskType, agentID string) float64 {
	tokens := tokenSet(Tokens(query))
	return 0.40*keywordOverlap(d, tokens) +
		0.25*categoryMatch(d, taskType) +
		0.20*agentAffinity(d, agentID) +
		0.15*nameTokenMatch(d, tokens)
}

// Ranked pairs a descriptor with its computed score for a selection.
type Ranked struct {
	Descriptor *Descriptor
	Score      float64
}

// SelectTop returns the top k skills (score > 0) for a query and agent,
// ties broken by (score DESC, name ASC). An empty registry yields an empty
// selection; SelectTop never fails.
func SelectTop(descs []*Descriptor, query string, taskType intent.TaskType, agentID string, k int) []Ranked {
	if k <= 0 {
		k = DefaultTopK
	}

	var ranked []Ranked
	for _, d := range descs {
		score := Score(d, query, taskType, agentID)
		if score > 0 {
			ranked = append(ranked, Ranked{Descriptor: d, Score: score})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Descriptor.Name < ranked[j].Descriptor.Name
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
