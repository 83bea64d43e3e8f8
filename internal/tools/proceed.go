package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
)

// ProceedToPhaseTool handles the proceed_to_phase MCP tool: the explicit
// transition half of the engine.
type ProceedToPhaseTool struct {
	engine *engine.Engine
	cfg    config.Config
}

// NewProceedToPhaseTool creates a ProceedToPhaseTool.
func NewProceedToPhaseTool(eng *engine.Engine, cfg config.Config) *ProceedToPhaseTool {
	return &ProceedToPhaseTool{engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *ProceedToPhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("proceed_to_phase",
		mcp.WithDescription(
			"Fire a named trigger to move the development workflow to its next phase. "+
				"Triggers are scoped to the phase you are in; whats_next lists the valid "+
				"ones. You must state the phase you believe you are in, so stale state is "+
				"caught instead of silently corrupting progress, and you must state the "+
				"review status of the transition even when no review applies.",
		),
		mcp.WithString("trigger",
			mcp.Required(),
			mcp.Description("The transition trigger to fire, e.g. \"exploration_complete\". "+
				"Must be one of the triggers the current phase declares."),
		),
		mcp.WithString("current_phase",
			mcp.Required(),
			mcp.Description("The phase you believe the conversation is currently in. "+
				"Mismatch with the stored phase fails the call instead of mis-firing."),
		),
		mcp.WithString("review_state",
			mcp.Required(),
			mcp.Description("Review status for this transition: \"performed\" after "+
				"conducting a required review, \"pending\" when one is still owed, "+
				"\"not-required\" otherwise."),
			mcp.Enum("not-required", "pending", "performed"),
		),
	)
}

// Handle processes the proceed_to_phase tool call.
func (t *ProceedToPhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trigger := strings.TrimSpace(req.GetString("trigger", ""))
	if trigger == "" {
		return mcp.NewToolResultError("'trigger' is required — whats_next lists the valid triggers"), nil
	}
	reportedPhase := strings.TrimSpace(req.GetString("current_phase", ""))
	if reportedPhase == "" {
		return mcp.NewToolResultError("'current_phase' is required — state the phase you believe you are in"), nil
	}
	reviewState, err := engine.ParseReviewState(req.GetString("review_state", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.Proceed(engine.ProceedRequest{
		ProjectPath:   projectPath,
		Branch:        branch,
		Trigger:       trigger,
		ReportedPhase: reportedPhase,
		Review:        reviewState,
	})
	if err != nil {
		if res := callerError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("firing transition %q: %w", trigger, err)
	}

	var b strings.Builder
	if result.SelfTransition {
		fmt.Fprintf(&b, "# Phase Re-entered: %s\n\n", result.To)
	} else {
		fmt.Fprintf(&b, "# Phase Transition: %s → %s\n\n", result.From, result.To)
	}
	fmt.Fprintf(&b, "**Trigger:** `%s`\n", trigger)
	if result.Reason != "" {
		fmt.Fprintf(&b, "**Reason:** %s\n", result.Reason)
	}
	fmt.Fprintf(&b, "\n## Instructions\n\n%s\n", result.Instructions)

	return mcp.NewToolResultText(b.String()), nil
}
