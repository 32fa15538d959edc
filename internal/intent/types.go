// Package intent implements the Intent Parser (C3): a deterministic
// classifier that turns free-text user input into a Task — a task type plus
// extracted parameters. It never calls an LLM and cannot fail; unparseable
// input degrades to TaskGeneric.
package intent

// TaskType is the closed set of request categories the orchestrator
// recognizes.
type TaskType string

const (
	TaskBuildFeature TaskType = "BUILD_FEATURE"
	TaskFixBug       TaskType = "FIX_BUG"
	TaskRefactor     TaskType = "REFACTOR"
	TaskOptimize     TaskType = "OPTIMIZE"
	TaskScan         TaskType = "SCAN"
	TaskDesign       TaskType = "DESIGN"
	TaskTest         TaskType = "TEST"
	TaskReview       TaskType = "REVIEW"
	TaskDocument     TaskType = "DOCUMENT"
	TaskDeploy       TaskType = "DEPLOY"
	TaskExplain      TaskType = "EXPLAIN"
	TaskPlan         TaskType = "PLAN"
	TaskInstall      TaskType = "INSTALL"
	TaskGeneric      TaskType = "GENERIC"
)

// destructiveTaskTypes is the set gating confirmation/approval policy
// upstream (§4.3, used by C7's confidence gate).
var destructiveTaskTypes = map[TaskType]bool{
	TaskBuildFeature: true,
	TaskRefactor:     true,
	TaskOptimize:     true,
	TaskFixBug:       true,
	TaskDeploy:       true,
}

// IsDestructive reports whether a TaskType requires elevated approval.
func (t TaskType) IsDestructive() bool {
	return destructiveTaskTypes[t]
}

// Task is the parsed output of the Intent Parser.
type Task struct {
	TaskType  TaskType
	RawQuery  string
	Params    map[string]string
	CreatedAt string // RFC3339, set by the caller; intent never calls time.Now()
}
