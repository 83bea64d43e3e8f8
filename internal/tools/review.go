package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
)

// ConductReviewTool handles the conduct_review MCP tool. There is no model
// to delegate to, so it always returns review guidance for the caller to
// execute itself; it never produces a verdict.
type ConductReviewTool struct {
	engine *engine.Engine
	cfg    config.Config
}

// NewConductReviewTool creates a ConductReviewTool.
func NewConductReviewTool(eng *engine.Engine, cfg config.Config) *ConductReviewTool {
	return &ConductReviewTool{engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *ConductReviewTool) Definition() mcp.Tool {
	return mcp.NewTool("conduct_review",
		mcp.WithDescription(
			"Get the review perspectives declared for moving from the current phase "+
				"into a target phase. Perform each perspective yourself against the work "+
				"done so far, present the findings, and once the review is genuinely done "+
				"call proceed_to_phase with review_state \"performed\". This tool only "+
				"returns guidance; whether the review passes is your call to make.",
		),
		mcp.WithString("target_phase",
			mcp.Required(),
			mcp.Description("The phase you want to move into, e.g. \"implementation\"."),
		),
	)
}

// Handle processes the conduct_review tool call.
func (t *ConductReviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetPhase := strings.TrimSpace(req.GetString("target_phase", ""))
	if targetPhase == "" {
		return mcp.NewToolResultError("'target_phase' is required — which phase are you trying to enter?"), nil
	}

	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.ConductReview(projectPath, branch, targetPhase)
	if err != nil {
		if res := callerError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("gathering review perspectives: %w", err)
	}

	if len(result.Perspectives) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"# No Review Declared\n\n"+
				"No transition from %q into %q declares review perspectives. "+
				"Proceed with `proceed_to_phase` and review_state \"not-required\".",
			result.State.CurrentPhase, targetPhase)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Review Before Entering: %s\n\n", targetPhase)
	if result.Required {
		b.WriteString("This conversation requires reviews before gated transitions. " +
			"Work through every perspective below before proceeding.\n\n")
	} else {
		b.WriteString("Reviews are not enforced for this conversation, but these " +
			"perspectives are declared and worth applying.\n\n")
	}
	for _, p := range result.Perspectives {
		fmt.Fprintf(&b, "## Perspective: %s\n\n%s\n\n", p.Role, p.Prompt)
	}
	fmt.Fprintf(&b, "Present your findings, address what needs addressing, then call "+
		"`proceed_to_phase` targeting %q with review_state \"performed\".", targetPhase)

	return mcp.NewToolResultText(b.String()), nil
}
