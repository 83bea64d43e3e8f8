package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// ListWorkflowsTool handles the list_workflows MCP tool.
type ListWorkflowsTool struct {
	catalog *workflow.Catalog
	engine  *engine.Engine
	cfg     config.Config
}

// NewListWorkflowsTool creates a ListWorkflowsTool.
func NewListWorkflowsTool(catalog *workflow.Catalog, eng *engine.Engine, cfg config.Config) *ListWorkflowsTool {
	return &ListWorkflowsTool{catalog: catalog, engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *ListWorkflowsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_workflows",
		mcp.WithDescription(
			"List the development workflows available for this project: the built-in "+
				"library filtered to the configured domains, plus any workflows installed "+
				"in the project's .stepwise/workflows directory (which shadow built-ins of "+
				"the same name). Full definitions are served as resources under "+
				"stepwise://workflows/<name>.",
		),
		mcp.WithBoolean("include_unloaded",
			mcp.Description("Also list built-in workflows outside the configured domains, "+
				"marked as unloaded. They can still be installed into the project."),
		),
	)
}

// Handle processes the list_workflows tool call.
func (t *ListWorkflowsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	entries := t.catalog.ResolveForProject(projectPath)
	names := t.catalog.Names(projectPath)

	var b strings.Builder
	b.WriteString("# Available Workflows\n\n")
	fmt.Fprintf(&b, "**Domain filter:** %s\n\n", strings.Join(t.catalog.Domains(), ", "))
	for _, name := range names {
		entry := entries[name]
		writeWorkflowSummary(&b, entry.Definition, string(entry.Source))
	}

	if boolArg(req, "include_unloaded", false) {
		unloaded := t.catalog.UnloadedBuiltIn()
		if len(unloaded) > 0 {
			b.WriteString("## Unloaded (outside configured domains)\n\n")
			b.WriteString("Available via install_workflow or the domains config.\n\n")
			for _, def := range unloaded {
				writeWorkflowSummary(&b, def, "built-in, unloaded")
			}
		}
	}

	b.WriteString("Start one with `start_development`.")

	t.engine.RecordAudit(projectPath, branch, "list_workflows", req.GetArguments())
	return mcp.NewToolResultText(b.String()), nil
}

func writeWorkflowSummary(b *strings.Builder, def *workflow.Definition, source string) {
	fmt.Fprintf(b, "## %s (%s)\n\n", def.Name, source)
	if def.Description != "" {
		fmt.Fprintf(b, "%s\n\n", def.Description)
	}
	fmt.Fprintf(b, "**Domain:** %s\n", def.Domain)
	if def.Metadata.Complexity != "" {
		fmt.Fprintf(b, "**Complexity:** %s\n", def.Metadata.Complexity)
	}
	if len(def.Metadata.BestFor) > 0 {
		fmt.Fprintf(b, "**Best for:** %s\n", strings.Join(def.Metadata.BestFor, "; "))
	}
	if def.RequiresDocumentation {
		b.WriteString("**Requires:** project documents set up first\n")
	}
	fmt.Fprintf(b, "**Phases:** %s\n", strings.Join(def.PhaseNames(), ", "))
	fmt.Fprintf(b, "**Definition:** `stepwise://workflows/%s`\n\n", def.Name)
}
