package core

// Action represents the result of a node execution that determines flow control.
type Action string

// Common actions used throughout the framework.
const (
	ActionContinue Action = "continue"
	ActionEnd      Action = "end"
	ActionSuccess  Action = "success"
	ActionFailure  Action = "failure"
	ActionDefault  Action = "default"

	// ReAct loop routing actions (reasoning engine).
	ActionTool   Action = "tool"
	ActionThink  Action = "think"
	ActionAnswer Action = "answer"

	// Long-CoT phase routing actions (project analyzer).
	ActionReflect   Action = "reflect"
	ActionBacktrack Action = "backtrack"
	ActionAccept    Action = "accept"
)
