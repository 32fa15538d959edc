package reasoning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autoforge/autoforge/internal/llm"
)

// Config bundles the inputs a single Run needs beyond the problem text
// itself.
type Config struct {
	Provider    llm.LLMProvider
	Dispatch    Dispatcher
	ToolsPrompt string
	BudgetSteps int // 0 means DefaultBudgetSteps
}

// Run executes the bounded think/act/observe loop described in §4.6.
// Termination is one of: the policy emits action=answer (OK); the step
// budget is exhausted (Partial, ReasonStepBudget); three consecutive
// identical tool calls are detected (Partial, ReasonLoopDetected); or the
// collaborator itself becomes unreachable (Failed). A tool reporting an
// error is not fatal — it becomes an Observation and the loop continues.
func Run(ctx context.Context, cfg Config, problem string) Outcome {
	budget := cfg.BudgetSteps
	if budget <= 0 {
		budget = DefaultBudgetSteps
	}

	var history []Step
	detector := newLoopDetector()

	for step := 0; step < budget; step++ {
		decision, err := Think(ctx, cfg.Provider, problem, cfg.ToolsPrompt, history, step, budget)
		if err != nil {
			return Outcome{
				Failed:     true,
				FailReason: err.Error(),
				History:    history,
				StepCount:  step,
			}
		}

		switch decision.Action {
		case "answer":
			return Outcome{
				OK:        true,
				Summary:   decision.Answer,
				History:   history,
				StepCount: step + 1,
			}

		case "think":
			history = compress(append(history, Step{Kind: StepThink, Thought: decision.Thought}))

		case "tool":
			history = append(history, Step{Kind: StepTool, ToolName: decision.ToolName, ToolArgs: decision.ToolArgs})

			if detector.observe(decision.ToolName, decision.ToolArgs) {
				return Outcome{
					Partial:   true,
					Reason:    ReasonLoopDetected,
					History:   history,
					StepCount: step + 1,
				}
			}

			result := cfg.Dispatch(ctx, decision.ToolName, json.RawMessage(decision.ToolArgs))
			obs := Step{Kind: StepObservation}
			if result.OK {
				obs.Observation = result.Value
			} else {
				obs.Observation = fmt.Sprintf("%s: %s", result.ErrorKind, result.ErrorMessage)
				obs.IsError = true
			}
			history = compress(append(history, obs))

		default:
			// Unrecognized action: treat as a think step so the loop can
			// recover on the next turn rather than failing outright.
			history = compress(append(history, Step{Kind: StepThink, Thought: decision.Thought}))
		}
	}

	return Outcome{
		Partial:   true,
		Reason:    ReasonStepBudget,
		History:   history,
		StepCount: budget,
	}
}
