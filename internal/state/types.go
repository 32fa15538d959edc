// Package state implements the single State/Audit Store (C9): the process
// owns one of these, every other component holds a handle, and it is the
// only thing in the module that writes to <workspace>/.state/.
package state

import "time"

// ArtifactEntry records one write governed by the Artifact Registry.
// Rollback marks entries superseded; it never deletes one.
type ArtifactEntry struct {
	Path             string    `json:"path"`
	SHA256           string    `json:"sha256"`
	ProducingRunID   string    `json:"producing_run_id"`
	ProducingAgentID string    `json:"producing_agent_id"`
	CreatedAt        time.Time `json:"created_at"`
	SupersededBy     string    `json:"superseded_by,omitempty"`
	BackupHash       string    `json:"backup_hash,omitempty"` // empty if the path did not exist before the write
}

// DecisionLogEntry is one Autonomy Decision Log Entry (§3), appended
// whenever the confidence gate (§4.7.3) reaches a verdict.
type DecisionLogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	TaskType     string    `json:"task_type"`
	Confidence   float64   `json:"confidence"`
	IsDestructive bool     `json:"is_destructive"`
	Decision     string    `json:"decision"` // "approve" | "reject"
	Reason       string    `json:"reason"`
}

// Snapshot is the last committed orchestrator snapshot persisted to
// state.json. Readers tolerate unknown fields, so additive changes never
// break an older build reading a newer file.
type Snapshot struct {
	CurrentPipelinePosition int     `json:"current_pipeline_position"`
	LastConfidence          float64 `json:"last_confidence"`
	ArtifactCount           int     `json:"artifact_count"`
	CircuitBreakerState     string  `json:"circuit_breaker_state"`
	LastLongCoTSummary      string  `json:"last_longcot_summary,omitempty"`
}
