package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
	"github.com/stepwise-mcp/stepwise/internal/plan"
	"github.com/stepwise-mcp/stepwise/internal/projectdocs"
)

// SetupProjectDocsTool handles the setup_project_docs MCP tool. Each
// document slot takes a template identifier, a path to an existing document
// to link, or the literal "none".
type SetupProjectDocsTool struct {
	docs   *projectdocs.Manager
	engine *engine.Engine
	cfg    config.Config
}

// NewSetupProjectDocsTool creates a SetupProjectDocsTool.
func NewSetupProjectDocsTool(docs *projectdocs.Manager, eng *engine.Engine, cfg config.Config) *SetupProjectDocsTool {
	return &SetupProjectDocsTool{docs: docs, engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *SetupProjectDocsTool) Definition() mcp.Tool {
	return mcp.NewTool("setup_project_docs",
		mcp.WithDescription(
			"Set up the project's architecture, requirements and design documents in "+
				".stepwise/docs. Each slot accepts a template name (a skeleton is "+
				"generated), a path to an existing document or directory inside the "+
				"project (a symlink is created, keeping the original's extension), or "+
				"\"none\" (a placeholder points readers at the plan file). Workflow "+
				"instructions refer to these documents through variables like "+
				"$ARCHITECTURE_DOC; required before starting workflows that depend on "+
				"documentation. All three inputs are validated before anything is written.",
		),
		mcp.WithString("architecture",
			mcp.Required(),
			mcp.Description("Architecture slot: \"arc42\", \"freestyle\", a path, or \"none\"."),
		),
		mcp.WithString("requirements",
			mcp.Required(),
			mcp.Description("Requirements slot: \"ears\", \"freestyle\", a path, or \"none\"."),
		),
		mcp.WithString("design",
			mcp.Required(),
			mcp.Description("Design slot: \"comprehensive\", \"freestyle\", a path, or \"none\"."),
		),
	)
}

// Handle processes the setup_project_docs tool call.
func (t *SetupProjectDocsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inputs := map[projectdocs.Slot]string{
		projectdocs.SlotArchitecture: strings.TrimSpace(req.GetString("architecture", "")),
		projectdocs.SlotRequirements: strings.TrimSpace(req.GetString("requirements", "")),
		projectdocs.SlotDesign:       strings.TrimSpace(req.GetString("design", "")),
	}
	for slot, input := range inputs {
		if input == "" {
			return mcp.NewToolResultError(fmt.Sprintf(
				"'%s' is required — pass a template name (%s), a path to an existing "+
					"document, or \"none\"", slot, strings.Join(projectdocs.TemplateIDs(slot), ", "))), nil
		}
	}

	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	planPath := plan.Path(projectPath, branch)
	paths, err := t.docs.Setup(projectPath, planPath, inputs)
	if err != nil {
		if res := callerError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("setting up project documents: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Project Documents Ready\n\n")
	for _, slot := range projectdocs.SlotOrder {
		fmt.Fprintf(&b, "- **%s** (%s): `%s`\n", slot, inputs[slot], paths[slot])
	}
	b.WriteString("\nWorkflow instructions resolve these through variables:\n\n")
	subs := projectdocs.Substitutions(projectPath, planPath)
	for _, name := range []string{projectdocs.VarArchitectureDoc, projectdocs.VarRequirementsDoc, projectdocs.VarDesignDoc, projectdocs.VarPlanFile} {
		fmt.Fprintf(&b, "- `%s` → `%s`\n", name, subs[name])
	}
	b.WriteString("\nFill the generated skeletons as the workflow directs.")

	t.engine.RecordAudit(projectPath, branch, "setup_project_docs", inputs)
	return mcp.NewToolResultText(b.String()), nil
}
