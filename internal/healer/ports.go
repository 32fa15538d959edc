package healer

import (
	"fmt"
	"hash/fnv"
	"net"
)

// portCandidateBase and portCandidateSpan bound the free-port search space
// (§4.8's "candidate set"); chosen to avoid the well-known-port range.
const (
	portCandidateBase = 20000
	portCandidateSpan = 5000
)

// deterministicSeed derives a stable starting offset from a run_id so that
// replaying the same run always probes candidate ports in the same order
// (§4.8 "Determinism: random port-candidate choice uses a deterministic
// seed per run_id").
func deterministicSeed(runID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(runID))
	return int(h.Sum32()) % portCandidateSpan
}

// portProbe abstracts the "is this port free" check so tests can substitute
// a fake without binding real sockets.
type portProbe func(port int) bool

// tcpProbe reports whether port is currently free by attempting to bind a
// TCP listener on it and immediately closing it.
func tcpProbe(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// nextFreePort scans up to portCandidateSpan candidates starting at the
// run's deterministic seed offset, wrapping around the span, and returns
// the first one probe reports free. Returns ok=false if none are free
// (exceedingly unlikely with a 5000-port span).
func nextFreePort(runID string, probe portProbe) (port int, ok bool) {
	start := deterministicSeed(runID)
	for i := 0; i < portCandidateSpan; i++ {
		candidate := portCandidateBase + (start+i)%portCandidateSpan
		if probe(candidate) {
			return candidate, true
		}
	}
	return 0, false
}
