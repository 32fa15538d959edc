package orchestrator

// circuitBreaker tracks per-(run, agent) step attempts for one run and
// trips when either 3 consecutive failures land on the same agent or 5
// total failures accumulate across the run (§4.7.6).
type circuitBreaker struct {
	consecutiveByAgent map[string]int
	totalFailures      int
	open               bool
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{consecutiveByAgent: map[string]int{}}
}

// recordFailure records one failed step for agentID and reports whether
// the breaker has now tripped.
func (c *circuitBreaker) recordFailure(agentID string) bool {
	c.consecutiveByAgent[agentID]++
	c.totalFailures++
	if c.consecutiveByAgent[agentID] >= 3 || c.totalFailures >= 5 {
		c.open = true
	}
	return c.open
}

// recordSuccess resets the consecutive-failure streak for agentID; total
// failure count is never reset within a run.
func (c *circuitBreaker) recordSuccess(agentID string) {
	c.consecutiveByAgent[agentID] = 0
}

func (c *circuitBreaker) isOpen() bool { return c.open }
