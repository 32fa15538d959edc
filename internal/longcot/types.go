// Package longcot implements the Long-CoT Analyzer (C2): a four-phase
// Tree-of-Thought reasoner that builds a confidence-scored understanding of
// a codebase from the File Records and Fingerprint a scan produced.
//
// Unlike the teacher's internal/thinking package — which drives an LLM
// through a self-looping chain-of-thought conversation — every phase here
// is a deterministic structural analysis over file metadata; the engine
// borrowed from the teacher is the same (core.Node/core.Flow, self-looping
// via action routing), but nothing here calls an LLM. Reasoning operates on
// summaries (file counts, import edges, keyword frequency), not raw file
// bytes, which keeps context pressure O(log n) in file count as the
// codebase grows.
package longcot

import "github.com/autoforge/autoforge/internal/scanner"

// Architecture taxonomy — closed set, Phase 1 never emits outside it.
const (
	ArchMultiAgentSystem = "multi_agent_system"
	ArchMicroservices    = "microservices"
	ArchMonolithWebapp   = "monolith_webapp"
	ArchClientServer     = "client_server"
	ArchLibrary          = "library"
	ArchCLITool          = "cli_tool"
	ArchPipeline         = "pipeline"
	ArchPluginSystem     = "plugin_system"
	ArchUnknown          = "unknown"
)

// ArchTaxonomy lists every hypothesis Phase 1 considers, in declaration
// order (used only for deterministic tie-breaking on equal scores, which
// is itself broken by lexicographic name as §4.2.2 requires).
var ArchTaxonomy = []string{
	ArchMultiAgentSystem, ArchMicroservices, ArchMonolithWebapp, ArchClientServer,
	ArchLibrary, ArchCLITool, ArchPipeline, ArchPluginSystem,
}

// Tunable thresholds, all named after the spec's defaults.
const (
	MaxHypotheses      = 5
	ArchMinSupport     = 0.5
	BacktrackThreshold = 0.55
	MaxBacktracks      = 1
)

// InsightKind is one of the four documented insight variants.
type InsightKind string

const (
	KindArchitectureHypothesis InsightKind = "architecture-hypothesis"
	KindModuleAnalysis         InsightKind = "module-analysis"
	KindCriticalPath           InsightKind = "critical-path"
	KindValidationReflection   InsightKind = "validation-reflection"
)

// Insight is the sum type the design notes call for: one case per phase,
// modeled as a single struct with a Kind tag plus an untyped Payload
// rather than four separate Go types, so a Report can hold a uniform
// ordered slice of them.
type Insight struct {
	Kind       InsightKind
	Payload    any
	Confidence float64
	Evidence   []string // supporting file paths
	Rationale  string
	Timestamp  string // RFC3339, set by the caller (longcot never calls time.Now())
}

// ArchitecturePayload is the Payload of a KindArchitectureHypothesis Insight.
type ArchitecturePayload struct {
	Hypothesis string
	Score      float64
}

// ModulePayload is the Payload of a KindModuleAnalysis Insight.
type ModulePayload struct {
	Module     string
	Complexity string // "low", "medium", "high"
	Purpose    string
	FileCount  int
}

// CriticalPathPayload is the Payload of a KindCriticalPath Insight.
type CriticalPathPayload struct {
	Module   string
	InDegree int
	Reasons  []string // which of (a)/(b)/(c) from §4.2 Phase 3 applied
}

// ReflectionPayload is the Payload of a KindValidationReflection Insight.
type ReflectionPayload struct {
	BacktrackTriggered bool
	Decisions          []string
}

// Report is immutable once emitted.
type Report struct {
	Insights               []Insight
	AvgConfidence          float64
	StepCount              int
	ReflectionCount        int
	BacktrackCount         int
	ArchitectureHypothesis string
	CriticalPaths          []string // module names, ordered per Phase 3
}

// state carries working data across the four phases and across backtracks.
// It is rebuilt fresh per Analyze call; nothing here escapes to callers
// except the final Report.
type state struct {
	files       []scanner.FileRecord
	fingerprint scanner.Fingerprint

	maskedHypotheses map[string]bool // distinguishing cues to ignore on retry
	priorReflections []Insight       // validation-reflection insights from earlier, backtracked passes

	insights       []Insight
	hypothesis     string
	hypothesisSet  bool
	modules        map[string]moduleInfo
	criticalPaths  []CriticalPathPayload
	backtrackCount int
	reflections    int
}

type moduleInfo struct {
	name    string
	files   []scanner.FileRecord
	inEdges int
}
