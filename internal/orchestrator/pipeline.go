package orchestrator

import "github.com/autoforge/autoforge/internal/intent"

// pipelines is the static TaskType -> ordered agent_id list map (§4.7.2).
// Locked as the core contract; additional pipelines MAY be added so long
// as they preserve the gating and audit invariants.
var pipelines = map[intent.TaskType][]string{
	intent.TaskBuildFeature: {"00", "01", "02", "03", "04", "05", "09"},
	intent.TaskFixBug:       {"00", "02", "09", "05"},
	intent.TaskRefactor:     {"00", "04", "02", "05"},
	intent.TaskOptimize:     {"00", "02", "09"},
	intent.TaskScan:         {"00"},
	intent.TaskTest:         {"09"},
	intent.TaskReview:       {"04"},
	intent.TaskGeneric:      {"00", "02"},
}

// PipelineFor resolves the ordered agent_id list for a task type. Task
// types with no dedicated entry fall back to the GENERIC pipeline, so
// every TaskType in the closed enum resolves to something runnable.
func PipelineFor(t intent.TaskType) []string {
	if p, ok := pipelines[t]; ok {
		return p
	}
	return pipelines[intent.TaskGeneric]
}
