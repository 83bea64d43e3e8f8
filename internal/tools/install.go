package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// InstallWorkflowTool handles the install_workflow MCP tool. It accepts a
// definition as inline YAML or as a path to a YAML file and installs it
// into the project's workflow directory.
type InstallWorkflowTool struct {
	catalog *workflow.Catalog
	engine  *engine.Engine
	cfg     config.Config
}

// NewInstallWorkflowTool creates an InstallWorkflowTool.
func NewInstallWorkflowTool(catalog *workflow.Catalog, eng *engine.Engine, cfg config.Config) *InstallWorkflowTool {
	return &InstallWorkflowTool{catalog: catalog, engine: eng, cfg: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *InstallWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("install_workflow",
		mcp.WithDescription(
			"Install a workflow definition into this project's .stepwise/workflows "+
				"directory, making it available to start_development and shadowing any "+
				"built-in of the same name. The definition is validated before anything "+
				"is written; malformed workflows are rejected here, never at transition "+
				"time. Accepts the YAML inline or as a path to a YAML file (for example "+
				"a built-in exported from its resource, then edited).",
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("The workflow definition: either the YAML content itself or "+
				"a path to a readable YAML file."),
		),
		mcp.WithString("name",
			mcp.Description("Install under this name instead of the one the definition "+
				"declares. Useful for customized copies, e.g. \"epcc-strict\"."),
		),
	)
}

// Handle processes the install_workflow tool call.
func (t *InstallWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", "")
	if strings.TrimSpace(source) == "" {
		return mcp.NewToolResultError("'source' is required — pass the workflow YAML or a path to it"), nil
	}

	projectPath, branch, err := resolveCheckout(ctx, t.cfg)
	if err != nil {
		return nil, err
	}

	content, origin, err := readSource(source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	def, err := t.catalog.Install(projectPath, content, req.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Workflow rejected: %v\n\nFix the definition and try again; nothing was installed.", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Workflow Installed: %s\n\n", def.Name)
	fmt.Fprintf(&b, "**Source:** %s\n", origin)
	fmt.Fprintf(&b, "**Domain:** %s\n", def.Domain)
	fmt.Fprintf(&b, "**Phases:** %s\n", strings.Join(def.PhaseNames(), ", "))
	fmt.Fprintf(&b, "**Installed to:** `%s`\n\n", config.WorkflowsDir(projectPath))
	fmt.Fprintf(&b, "Run it with `start_development` and workflow %q.", def.Name)

	t.engine.RecordAudit(projectPath, branch, "install_workflow",
		map[string]string{"origin": origin, "name": def.Name})
	return mcp.NewToolResultText(b.String()), nil
}

// readSource decides whether source is inline YAML or a file path. A YAML
// workflow is necessarily multi-line, so anything with a newline is inline;
// a single line must point at a readable file.
func readSource(source string) (content []byte, origin string, err error) {
	if strings.ContainsRune(source, '\n') {
		return []byte(source), "inline YAML", nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("'source' looks like a file path but could not be read: %v — "+
			"pass either the YAML content or a readable file path", err)
	}
	return data, fmt.Sprintf("file `%s`", source), nil
}
