package engine

import (
	"strings"

	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// composeInstructions picks the guidance text for a transition. A transition
// with explicit instructions replaces the target's defaults entirely;
// additional_instructions are appended to the defaults, but only when the
// conversation actually enters the phase — a self-transition repeats the
// defaults unchanged.
func composeInstructions(def *workflow.Definition, tr workflow.Transition, self bool) string {
	if tr.Instructions != "" {
		return tr.Instructions
	}
	target, ok := def.Phase(tr.To)
	if !ok {
		return tr.AdditionalInstructions
	}
	if tr.AdditionalInstructions != "" && !self {
		return target.DefaultInstructions + "\n\n" + tr.AdditionalInstructions
	}
	return target.DefaultInstructions
}

// substitute expands document variables in instruction text.
func substitute(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, name, value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
