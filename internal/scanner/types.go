// Package scanner implements the Document/Project Scanner: it enumerates a
// workspace, classifies languages, detects entry points, and extracts a
// dependency edge list, producing an immutable Fingerprint the rest of the
// system treats as ground truth for a scan.
package scanner

// Depth controls how much of the tree the scanner walks.
type Depth string

const (
	Shallow Depth = "shallow"
	Deep    Depth = "deep"
)

// Role classifies what a File Record is for.
type Role string

const (
	RoleEntrypoint Role = "entrypoint"
	RoleModule     Role = "module"
	RoleTest       Role = "test"
	RoleConfig     Role = "config"
)

// FileRecord is immutable per scan.
type FileRecord struct {
	Path      string // workspace-relative
	Language  string
	SizeLines int
	Role      Role
	Imports   []string // outgoing import edges, relative paths; may be dangling
}

// Severity is the risk flag severity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// RiskFlag is a single finding surfaced by the scan.
type RiskFlag struct {
	Severity       Severity
	File           string
	Issue          string
	Recommendation string
}

// PackageManager is the detected dependency manager, or "none".
type PackageManager string

const (
	PMNpm    PackageManager = "npm"
	PMPnpm   PackageManager = "pnpm"
	PMYarn   PackageManager = "yarn"
	PMPip    PackageManager = "pip"
	PMPoetry PackageManager = "poetry"
	PMCargo  PackageManager = "cargo"
	PMGo     PackageManager = "go"
	PMNone   PackageManager = "none"
)

// Fingerprint is produced by a scan and immutable thereafter.
type Fingerprint struct {
	Languages      []string // set, sorted
	Frameworks     []string // set, sorted
	PackageManager PackageManager
	Entrypoints    []string // ordered, shallowest first
	RiskFlags      []RiskFlag
}

// MaxFiles is the default cap on files classified in a single scan (§4.1).
const MaxFiles = 50000
