package orchestrator

// Confidence gate thresholds (§4.7.3), overridable via Config.
const (
	DefaultHighConf = 0.8
	DefaultMidConf  = 0.5
)

// GateDecision is the verdict the confidence gate reaches before a step
// runs.
type GateDecision string

const (
	GateAutoApprove    GateDecision = "auto_approve"
	GateAutoReject     GateDecision = "auto_reject"
	GateRequestManual  GateDecision = "request_manual"
	GateManualApproved GateDecision = "manual_approved"
	GateManualRejected GateDecision = "manual_rejected"
)

// gateParams bundles the inputs the gate decision table (§4.7.3) consults.
type gateParams struct {
	confidence   float64
	isDestructive bool
	autoMode     bool
	headless     bool
	headlessOverride bool // caller explicitly asked request_manual to proceed anyway
	highConf     float64
	midConf      float64
}

// decideGate applies the gate decision table verbatim. In headless mode a
// request_manual verdict collapses to auto_reject unless the caller passed
// an override flag.
func decideGate(p gateParams) (GateDecision, string) {
	c := p.confidence
	switch {
	case c >= p.highConf:
		return GateAutoApprove, "confidence at or above HIGH_CONF"
	case c >= p.midConf && !p.isDestructive:
		return GateAutoApprove, "non-destructive, confidence at or above MID_CONF"
	case c >= p.midConf && p.isDestructive && p.autoMode:
		return GateAutoApprove, "destructive but auto_mode is enabled, confidence at or above MID_CONF (warning logged)"
	case c >= p.midConf && p.isDestructive && !p.autoMode:
		return collapseManual(p, "destructive at MID_CONF without auto_mode: manual approval required")
	case c < p.midConf && p.isDestructive:
		return GateAutoReject, "low confidence and destructive"
	default:
		return collapseManual(p, "low confidence, non-destructive: manual approval requested")
	}
}

func collapseManual(p gateParams, reason string) (GateDecision, string) {
	if p.headless && !p.headlessOverride {
		return GateAutoReject, reason + "; headless mode with no override collapses request_manual to auto_reject"
	}
	return GateRequestManual, reason
}
