package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
)

// ResumeWorkflowTool handles the resume_workflow MCP tool: a read-only
// snapshot for reattaching after a restart or context loss.
type ResumeWorkflowTool struct {
	engine *engine.Engine
	cfg    config.Config
}

// NewResumeWorkflowTool creates a ResumeWorkflowTool.
func NewResumeWorkflowTool(eng *engine.Engine, cfg config.Config) *ResumeWorkflowTool {
	return &ResumeWorkflowTool{engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *ResumeWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("resume_workflow",
		mcp.WithDescription(
			"Reattach to the development workflow already running for this project "+
				"and branch, typically after a restart or a fresh conversation with no "+
				"context. Returns the workflow, the current phase with its instructions, "+
				"the plan file to re-read, and the state of the project documents. "+
				"Read-only: nothing is created or advanced.",
		),
	)
}

// Handle processes the resume_workflow tool call.
func (t *ResumeWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.Resume(projectPath, branch)
	if err != nil {
		if res := callerError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("resuming workflow: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Resuming: %s\n\n", result.Definition.Name)
	fmt.Fprintf(&b, "**Phase:** %s\n", result.State.CurrentPhase)
	fmt.Fprintf(&b, "**Branch:** %s\n", result.State.Branch)
	fmt.Fprintf(&b, "**Plan file:** `%s` — read it to recover context\n", result.PlanPath)
	fmt.Fprintf(&b, "**Commit behaviour:** %s\n", result.State.CommitBehaviour)
	if result.State.RequireReviews {
		b.WriteString("**Reviews:** required before gated transitions\n")
	}
	if !result.DocsReady {
		slots := make([]string, 0, len(result.MissingDocs))
		for _, slot := range result.MissingDocs {
			slots = append(slots, string(slot))
		}
		fmt.Fprintf(&b, "**Project docs:** not set up (missing: %s)\n", strings.Join(slots, ", "))
	}
	if result.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", result.Description)
	}
	fmt.Fprintf(&b, "\n## Instructions\n\n%s\n", result.Instructions)
	fmt.Fprintf(&b, "\n## Available Transitions\n\n%s", transitionList(result.Transitions))

	if len(result.Recent) > 0 {
		b.WriteString("\n## Recent Activity\n\n")
		for _, row := range result.Recent {
			fmt.Fprintf(&b, "- %s: %s", row.CreatedAt, row.ToolName)
			if row.Phase != "" {
				fmt.Fprintf(&b, " (phase: %s)", row.Phase)
			}
			b.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}
