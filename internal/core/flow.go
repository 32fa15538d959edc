package core

import (
	"context"
	"log"
)

// maxPhaseTransitions bounds how many phase transitions a single Flow.Run
// may make. Long-CoT's own backtrack budget (MAX_BACKTRACKS, default 1)
// means the longest legitimate run is two full passes through the four
// phases plus the reflection step that triggers the backtrack — at most
// ~9 transitions — so this cap exists purely as an independent safety net
// against a misconfigured successor graph, set far above any run the
// analyzer's own MAX_BACKTRACKS logic would ever produce.
const maxPhaseTransitions = 200

// Flow chains Workflows (Nodes, or nested Flows) together with Action-keyed
// routing. analyze.go builds exactly one Flow: four phase Nodes in a ring,
// closed by Phase 4's ActionBacktrack edge back to Phase 1.
type Flow[State any] struct {
	start      Workflow[State]
	successors map[Action]Workflow[State]
}

// NewFlow creates a Flow beginning at start.
func NewFlow[State any](start Workflow[State]) *Flow[State] {
	return &Flow[State]{
		start:      start,
		successors: make(map[Action]Workflow[State]),
	}
}

// Run drives the chain of phases to completion: each phase's returned
// Action selects its own successor first, falling back to a flow-level
// successor, until no successor is found (acceptance) or the safety cap
// trips.
func (f *Flow[State]) Run(ctx context.Context, state *State) Action {
	current := f.start
	if current == nil {
		log.Println("[longcot-flow] no start phase configured")
		return ActionFailure
	}

	lastAction := ActionSuccess
	for transitions := 0; current != nil; transitions++ {
		if transitions >= maxPhaseTransitions {
			log.Printf("[longcot-flow] maxPhaseTransitions (%d) reached, aborting", maxPhaseTransitions)
			return ActionFailure
		}
		if ctx.Err() != nil {
			log.Printf("[longcot-flow] context cancelled: %v", ctx.Err())
			return ActionFailure
		}

		action := current.Run(ctx, state)
		lastAction = action

		next := current.GetSuccessor(action)
		if next == nil {
			next = f.GetSuccessor(action)
		}
		current = next
	}
	return lastAction
}

// AddSuccessor wires a flow-level successor for one Action (or
// ActionDefault when none is given), consulted when the current phase
// itself has no successor registered for that Action.
func (f *Flow[State]) AddSuccessor(successor Workflow[State], action ...Action) Workflow[State] {
	if successor == nil {
		return successor
	}
	if len(action) == 0 {
		f.successors[ActionDefault] = successor
	} else {
		f.successors[action[0]] = successor
	}
	return successor
}

// GetSuccessor returns the flow-level successor for the given Action.
func (f *Flow[State]) GetSuccessor(action Action) Workflow[State] {
	return f.successors[action]
}
