package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
)

// ResetDevelopmentTool handles the reset_development MCP tool. Destructive,
// so it demands explicit confirmation.
type ResetDevelopmentTool struct {
	engine *engine.Engine
	cfg    config.Config
}

// NewResetDevelopmentTool creates a ResetDevelopmentTool.
func NewResetDevelopmentTool(eng *engine.Engine, cfg config.Config) *ResetDevelopmentTool {
	return &ResetDevelopmentTool{engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *ResetDevelopmentTool) Definition() mcp.Tool {
	return mcp.NewTool("reset_development",
		mcp.WithDescription(
			"Abandon the development workflow for this project and branch: deletes "+
				"the conversation record and the plan file, and flags the interaction "+
				"history as reset (it is retained for audit, not erased). Project "+
				"documents are left untouched. Use this to start over or to switch to a "+
				"different workflow. Irreversible, so confirm must be exactly true.",
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true. Asking for confirmation keeps a casually "+
				"phrased request from wiping real progress."),
		),
		mcp.WithString("reason",
			mcp.Description("Why the workflow is being reset; recorded in the audit trail."),
		),
	)
}

// Handle processes the reset_development tool call.
func (t *ResetDevelopmentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !boolArg(req, "confirm", false) {
		return mcp.NewToolResultError(
			"Reset not performed: 'confirm' must be true. This deletes the " +
				"conversation and its plan file for the current branch."), nil
	}

	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	outcome, err := t.engine.Reset(projectPath, branch, req.GetString("reason", ""))
	if err != nil {
		if res := callerError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("resetting development: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Development Reset\n\n")
	fmt.Fprintf(&b, "Workflow %q was abandoned in phase %q.\n\n", outcome.Workflow, outcome.Phase)
	b.WriteString("**Removed:**\n")
	b.WriteString("- conversation record\n")
	if outcome.PlanDeleted {
		b.WriteString("- plan file\n")
	}
	fmt.Fprintf(&b, "\n**Retained:** %d interaction rows, flagged as reset.\n", outcome.InteractionsFlagged)
	for _, w := range outcome.Warnings {
		fmt.Fprintf(&b, "\n⚠️ %s\n", w)
	}
	b.WriteString("\nStart fresh with `start_development`.")

	return mcp.NewToolResultText(b.String()), nil
}
