// Package healer implements the Self-Healing Runner (C8): it launches a
// user project's own start/test command, watches its combined output, and
// on a non-zero exit diagnoses the failure from a closed classification
// table, applying the matching remedy through the Tool Registry before
// retrying (§4.8).
package healer

import (
	"regexp"
	"strconv"
	"strings"
)

// RemedyKind is the closed set of automated remedies C8 knows how to
// apply. RemedyNone with fatal=true means the failure is not retriable.
type RemedyKind string

const (
	RemedyPipInstall RemedyKind = "pip_install"
	RemedyNpmInstall RemedyKind = "npm_install"
	RemedyFreePort   RemedyKind = "free_port"
	RemedyNone       RemedyKind = "none"
)

// Diagnosis is Classify's verdict for one failed attempt.
type Diagnosis struct {
	Remedy RemedyKind
	Arg    string // module/package name for install remedies; unused for free_port
	Fatal  bool   // true: do not retry regardless of remaining attempts
	Reason string
}

// maxStderrLines bounds classification to the tail of stderr (§4.8).
const maxStderrLines = 200

var (
	pyModuleNotFound = regexp.MustCompile(`ModuleNotFoundError: No module named '([^']+)'`)
	nodeModuleNotFound = regexp.MustCompile(`Cannot find module '([^']+)'`)
	addrInUse        = regexp.MustCompile(`(?i)EADDRINUSE|port\s+\d+\s+.*in use|address already in use`)
	syntaxErrorRe    = regexp.MustCompile(`(?i)SyntaxError|syntax error`)
)

// Classify applies the classification table verbatim: first match wins,
// evaluated against the last maxStderrLines lines of stderr.
//
// 1. ModuleNotFoundError: No module named 'X' -> pip install X
// 2. Cannot find module 'X' (Node)             -> npm install X
// 3. EADDRINUSE / "port ... in use"            -> choose next free port
// 4. Syntax error                              -> fatal, no retry
// 5. Unknown                                   -> fatal after one retry (caller's concern)
func Classify(stderr string) Diagnosis {
	tail := tailLines(stderr, maxStderrLines)

	if m := pyModuleNotFound.FindStringSubmatch(tail); m != nil {
		return Diagnosis{Remedy: RemedyPipInstall, Arg: m[1], Reason: "ModuleNotFoundError: " + m[1]}
	}
	if m := nodeModuleNotFound.FindStringSubmatch(tail); m != nil {
		return Diagnosis{Remedy: RemedyNpmInstall, Arg: m[1], Reason: "Cannot find module: " + m[1]}
	}
	if addrInUse.MatchString(tail) {
		return Diagnosis{Remedy: RemedyFreePort, Reason: "address already in use"}
	}
	if syntaxErrorRe.MatchString(tail) {
		return Diagnosis{Remedy: RemedyNone, Fatal: true, Reason: "syntax error: not retriable"}
	}
	return Diagnosis{Remedy: RemedyNone, Reason: "unclassified failure"}
}

func tailLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// formatPort is a small helper kept here (rather than in ports.go) so
// classify.go's regexes and its companion formatting stay in one review
// unit.
func formatPort(p int) string { return strconv.Itoa(p) }
