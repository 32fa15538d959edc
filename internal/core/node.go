package core

import (
	"context"
	"log"
)

// Node wraps one Long-CoT phase's BaseNode implementation with retry logic
// and Action-keyed successor routing, and itself satisfies Workflow so
// analyze.go can chain four of them (plus the Phase-4→Phase-1 backtrack
// edge) into a single Flow.
type Node[State any, PrepResult any, ExecResults any] struct {
	phase      BaseNode[State, PrepResult, ExecResults]
	maxRetries int
	successors map[Action]Workflow[State]
}

// NewNode wraps a phase implementation. Every phase1Node..phase4Node in
// internal/longcot is constructed with maxRetries=0: Exec never returns an
// error for any of the four phases (§4.2.3, "the analyzer never raises"),
// so the retry path below is reachable only if a future phase's Exec starts
// reporting transient failures — it is kept because ExecFallback's
// degrade-to-unknown contract depends on it existing, not because anything
// exercises it yet.
func NewNode[State any, PrepResult any, ExecResults any](
	phase BaseNode[State, PrepResult, ExecResults],
	maxRetries int,
) *Node[State, PrepResult, ExecResults] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Node[State, PrepResult, ExecResults]{
		phase:      phase,
		maxRetries: maxRetries,
		successors: make(map[Action]Workflow[State]),
	}
}

// execWithRetry runs Exec for one work item, retrying up to maxRetries
// times before falling back to ExecFallback.
func (n *Node[State, PrepResult, ExecResults]) execWithRetry(ctx context.Context, item PrepResult) (ExecResults, error) {
	var result ExecResults
	var err error

	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result, err = n.phase.Exec(ctx, item)
		if err == nil {
			return result, nil
		}
		if attempt < n.maxRetries {
			log.Printf("[longcot-phase] exec retry %d/%d: %v", attempt+1, n.maxRetries, err)
		}
	}
	return result, err
}

// Run implements Workflow.Run: Prep fans this phase's candidates out, each
// is scored independently through execWithRetry, and Post folds the scored
// batch back into shared state and returns the routing Action.
func (n *Node[State, PrepResult, ExecResults]) Run(ctx context.Context, state *State) Action {
	items := n.phase.Prep(state)
	if len(items) == 0 {
		return n.phase.Post(state, items)
	}

	scored := make([]ExecResults, len(items))
	for i, item := range items {
		result, err := n.execWithRetry(ctx, item)
		if err != nil {
			scored[i] = n.phase.ExecFallback(err)
		} else {
			scored[i] = result
		}
	}

	return n.phase.Post(state, items, scored...)
}

// AddSuccessor wires a successor Workflow for one Action (or ActionDefault
// when none is given) and returns it for chaining.
func (n *Node[State, PrepResult, ExecResults]) AddSuccessor(
	workflow Workflow[State], action ...Action,
) Workflow[State] {
	if workflow == nil {
		return workflow
	}
	if len(action) == 0 {
		n.successors[ActionDefault] = workflow
	} else {
		n.successors[action[0]] = workflow
	}
	return workflow
}

// GetSuccessor returns the Workflow wired to the given Action, or nil.
func (n *Node[State, PrepResult, ExecResults]) GetSuccessor(action Action) Workflow[State] {
	return n.successors[action]
}
