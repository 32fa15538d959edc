package reasoning

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autoforge/autoforge/internal/llm"
)

// Decision is the policy's choice for one ReAct turn. Exactly one of
// ToolName (with ToolArgs) or Answer is meaningful, selected by Action.
type Decision struct {
	Action   string `yaml:"action"` // "tool", "think", or "answer"
	Thought  string `yaml:"thought"`
	ToolName string `yaml:"tool_name"`
	ToolArgs string `yaml:"tool_args"` // JSON-encoded
	Answer   string `yaml:"answer"`
}

const decideInstructions = `You are deciding the next step in a bounded reasoning loop.
Respond with a single YAML document and nothing else, matching this shape:

action: tool | think | answer
thought: one sentence on why
tool_name: <name, only when action is tool>
tool_args: <JSON-encoded object, only when action is tool>
answer: <final answer text, only when action is answer>

Do not wrap the YAML in a code fence. Do not include any text before or after it.`

// Think asks the collaborator for the next Decision given the problem
// statement, the tools available, and the history so far.
func Think(ctx context.Context, provider llm.LLMProvider, problem, toolsPrompt string, history []Step, stepCount, budgetSteps int) (Decision, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n\n", problem)
	fmt.Fprintf(&sb, "Step %d of at most %d.\n\n", stepCount+1, budgetSteps)
	if toolsPrompt != "" {
		sb.WriteString(toolsPrompt)
		sb.WriteString("\n\n")
	}
	if len(history) > 0 {
		sb.WriteString("History so far:\n")
		for _, h := range history {
			sb.WriteString(renderStep(h))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(decideInstructions)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a precise, terse autonomous reasoning policy."},
		{Role: llm.RoleUser, Content: sb.String()},
	}

	reply, err := provider.CallLLM(ctx, messages)
	if err != nil {
		return Decision{}, fmt.Errorf("reasoning: collaborator call failed: %w", err)
	}

	return parseDecision(reply.Content)
}

func renderStep(s Step) string {
	switch s.Kind {
	case StepThink:
		return fmt.Sprintf("- thought: %s\n", s.Thought)
	case StepTool:
		return fmt.Sprintf("- called %s(%s)\n", s.ToolName, s.ToolArgs)
	case StepObservation:
		return fmt.Sprintf("- observed: %s\n", s.Observation)
	case StepSummary:
		return fmt.Sprintf("- (summary of earlier steps): %s\n", s.Observation)
	default:
		return ""
	}
}

// parseDecision extracts the YAML document from a reply, tolerating a
// fenced code block since collaborators sometimes wrap output regardless
// of instruction.
func parseDecision(content string) (Decision, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```yaml")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(body, "```")
		body = strings.TrimSpace(body)
	}

	var d Decision
	if err := yaml.Unmarshal([]byte(body), &d); err != nil {
		return Decision{}, fmt.Errorf("reasoning: could not parse decision: %w", err)
	}
	d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	if d.Action == "" {
		return Decision{}, fmt.Errorf("reasoning: decision missing action")
	}
	return d, nil
}
