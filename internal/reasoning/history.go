package reasoning

import "strings"

// compress collapses the oldest half of history into a single synthetic
// summary step once the history exceeds HistoryMax, so long-running loops
// don't grow the prompt without bound. A summary step is never itself
// re-compressed; only the think/tool/observation steps ahead of it are.
func compress(history []Step) []Step {
	if len(history) <= HistoryMax {
		return history
	}

	splitAt := len(history) / 2
	var head []Step
	if history[0].IsSummary {
		head = append(head, history[0])
		history = history[1:]
		splitAt = len(history) / 2
	}

	older, rest := history[:splitAt], history[splitAt:]

	var sb strings.Builder
	for _, s := range older {
		sb.WriteString(renderStep(s))
	}

	summary := Step{
		Kind:        StepSummary,
		Observation: strings.TrimSpace(sb.String()),
		IsSummary:   true,
	}

	out := make([]Step, 0, len(head)+1+len(rest))
	out = append(out, head...)
	out = append(out, summary)
	out = append(out, rest...)
	return out
}
