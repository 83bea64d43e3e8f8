package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
)

// WhatsNextTool handles the whats_next MCP tool: the inspect/continue half
// of the engine. It answers "what should I be doing right now" without
// moving the conversation.
type WhatsNextTool struct {
	engine *engine.Engine
	cfg    config.Config
}

// NewWhatsNextTool creates a WhatsNextTool.
func NewWhatsNextTool(eng *engine.Engine, cfg config.Config) *WhatsNextTool {
	return &WhatsNextTool{engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *WhatsNextTool) Definition() mcp.Tool {
	return mcp.NewTool("whats_next",
		mcp.WithDescription(
			"Get the instructions for the current phase of the running development "+
				"workflow. Call this whenever you are unsure what to do next, after "+
				"completing a piece of work, or to re-sync after an error told you your "+
				"phase was stale. Read-only: it never advances the phase. To move to "+
				"another phase, call proceed_to_phase with one of the listed triggers.",
		),
	)
}

// Handle processes the whats_next tool call.
func (t *WhatsNextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.WhatsNext(projectPath, branch)
	if err != nil {
		if res := callerError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("resolving current phase: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Current Phase: %s\n\n", result.State.CurrentPhase)
	fmt.Fprintf(&b, "**Workflow:** %s\n", result.State.Workflow)
	fmt.Fprintf(&b, "**Branch:** %s\n", result.State.Branch)
	if result.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", result.Description)
	}
	fmt.Fprintf(&b, "\n## Instructions\n\n%s\n", result.Instructions)
	fmt.Fprintf(&b, "\n## Available Transitions\n\n%s", transitionList(result.Transitions))

	return mcp.NewToolResultText(b.String()), nil
}
