package core

import "context"

// BaseNode is the shape every Long-CoT phase implements (§4.2.1): one node
// per phase of the four-phase Tree-of-Thought reasoner (architecture,
// module, critical-path, reflection), wired into the self-looping Flow
// analyze.go assembles. The three-step lifecycle mirrors the phase
// structure the spec describes directly:
//
//   - Prep fans a phase's candidate set out of shared state — e.g. the N
//     architecture hypotheses Phase 1 scores, or the one PrepResult per
//     source module Phase 2 scores independently.
//   - Exec scores a single candidate (a hypothesis, a module, a critical
//     path, an emitted insight) against its phase's rubric.
//   - Post folds the batch of Exec results back into shared state and
//     decides the next Action: continue to the next phase, accept the
//     report as final, or backtrack to Phase 1 with the losing signals
//     masked (§4.2.1 Phase 4).
//
// Type parameters:
//   - State: the shared analysis state threaded through all four phases
//   - PrepResult: one unit of per-item work handed to Exec (a hypothesis
//     candidate, a module, …)
//   - ExecResults: the scored outcome Exec produces for one PrepResult
type BaseNode[State any, PrepResult any, ExecResults any] interface {
	// Prep reads shared state and generates this phase's work items.
	Prep(state *State) []PrepResult

	// Exec scores a single work item against the phase's rubric.
	Exec(ctx context.Context, prepResult PrepResult) (ExecResults, error)

	// Post aggregates this phase's Exec results into shared state and
	// returns the Action that routes to the next phase (or backtracks).
	Post(state *State, prepRes []PrepResult, execResults ...ExecResults) Action

	// ExecFallback supplies a degraded ExecResults when Exec exhausts its
	// retries — the phase 4 "no fatal failure path" contract (§4.2.3) relies
	// on this rather than propagating an error out of the analyzer.
	ExecFallback(err error) ExecResults
}

// Workflow is what a single phase Node and the four-phase Flow both
// implement, so a Flow can itself be nested as one leg of a larger
// Workflow — unused today (Long-CoT only nests Nodes inside one Flow) but
// kept general since Post's backtrack routing depends on Workflow, not Node,
// for its successor lookup.
type Workflow[State any] interface {
	// Run executes this phase (or sub-flow) and returns the routing Action.
	Run(ctx context.Context, state *State) Action

	// GetSuccessor returns the Workflow wired to handle the given Action.
	GetSuccessor(action Action) Workflow[State]

	// AddSuccessor wires a Workflow to handle one or more Actions, returning
	// the successor so call sites can chain (see analyze.go's n1→n2→n3→n4
	// wiring and n4's ActionBacktrack edge back to n1).
	AddSuccessor(successor Workflow[State], action ...Action) Workflow[State]
}
