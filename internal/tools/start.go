package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
)

// StartDevelopmentTool handles the start_development MCP tool. It creates
// the conversation for the current checkout, or re-enters the existing one.
type StartDevelopmentTool struct {
	engine *engine.Engine
	cfg    config.Config
}

// NewStartDevelopmentTool creates a StartDevelopmentTool.
func NewStartDevelopmentTool(eng *engine.Engine, cfg config.Config) *StartDevelopmentTool {
	return &StartDevelopmentTool{engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *StartDevelopmentTool) Definition() mcp.Tool {
	return mcp.NewTool("start_development",
		mcp.WithDescription(
			"Begin a structured development workflow for the current project and branch. "+
				"Creates a persistent conversation that tracks which phase the work is in, "+
				"creates the plan file the workflow uses as working memory, and returns the "+
				"instructions for the first phase. Calling it again for the same branch "+
				"re-enters the existing conversation at its current phase; it never restarts "+
				"progress. Use list_workflows to see what is available.",
		),
		mcp.WithString("workflow",
			mcp.Required(),
			mcp.Description("Name of the workflow to run, e.g. \"epcc\", \"waterfall\", \"bugfix\". "+
				"Project-installed workflows take precedence over built-ins of the same name."),
		),
		mcp.WithBoolean("require_reviews",
			mcp.Description("Gate review-carrying phase transitions until the review has been "+
				"performed. Off by default."),
		),
		mcp.WithString("commit_behaviour",
			mcp.Description("When the agent should commit: after each step, after each phase, "+
				"once at the end, or never."),
			mcp.Enum("step", "phase", "end", "none"),
			mcp.DefaultString("end"),
		),
	)
}

// Handle processes the start_development tool call.
func (t *StartDevelopmentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflowName := strings.TrimSpace(req.GetString("workflow", ""))
	if workflowName == "" {
		return mcp.NewToolResultError("'workflow' is required — call list_workflows to see what is available"), nil
	}

	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.Start(engine.StartRequest{
		ProjectPath:     projectPath,
		Branch:          branch,
		Workflow:        workflowName,
		RequireReviews:  boolArg(req, "require_reviews", false),
		CommitBehaviour: req.GetString("commit_behaviour", ""),
	})
	if err != nil {
		if res := callerError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("starting development: %w", err)
	}

	heading := "Development Started"
	if !result.Created {
		heading = "Development Resumed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", heading, result.Definition.Name)
	fmt.Fprintf(&b, "**Phase:** %s\n", result.State.CurrentPhase)
	fmt.Fprintf(&b, "**Branch:** %s\n", result.State.Branch)
	fmt.Fprintf(&b, "**Plan file:** `%s`\n", result.PlanPath)
	fmt.Fprintf(&b, "**Commit behaviour:** %s\n", result.State.CommitBehaviour)
	if result.State.RequireReviews {
		b.WriteString("**Reviews:** required before gated transitions\n")
	}
	if !result.Created {
		b.WriteString("\nThis branch already had a conversation in progress; you are " +
			"re-entering it where it left off. Use reset_development to start over.\n")
	}
	fmt.Fprintf(&b, "\n## Instructions\n\n%s\n", result.Instructions)

	return mcp.NewToolResultText(b.String()), nil
}
