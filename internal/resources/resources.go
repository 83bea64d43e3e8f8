// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data that the host can consume for context:
// the workflow catalog as JSON, individual definitions as YAML, and the
// current conversation's plan document. URIs follow the stepwise:// scheme.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/conversation"
	"github.com/stepwise-mcp/stepwise/internal/plan"
	"github.com/stepwise-mcp/stepwise/internal/vcs"
	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

const (
	workflowIndexURI  = "stepwise://workflows"
	workflowURIPrefix = "stepwise://workflows/"
	planURI           = "stepwise://plan"
)

// Handler serves the stepwise resource endpoints.
type Handler struct {
	catalog *workflow.Catalog
	store   *conversation.Store
	cfg     config.Config
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(catalog *workflow.Catalog, store *conversation.Store, cfg config.Config) *Handler {
	return &Handler{catalog: catalog, store: store, cfg: cfg}
}

// workflowInfo is one catalog entry in the JSON index.
type workflowInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Domain      string   `json:"domain"`
	Source      string   `json:"source"`
	Complexity  string   `json:"complexity,omitempty"`
	BestFor     []string `json:"best_for,omitempty"`
	Phases      []string `json:"phases"`
	URI         string   `json:"uri"`
}

// IndexResource returns the MCP resource definition for the catalog index.
func (h *Handler) IndexResource() mcp.Resource {
	return mcp.NewResource(
		workflowIndexURI,
		"Workflow Catalog",
		mcp.WithResourceDescription("The workflows available for this project: built-ins plus project-installed ones"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleIndex returns the resolved workflow catalog as JSON.
func (h *Handler) HandleIndex(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectPath, _ := h.resolveProject(ctx)

	entries := h.catalog.ResolveForProject(projectPath)
	infos := make([]workflowInfo, 0, len(entries))
	for _, name := range h.catalog.Names(projectPath) {
		entry := entries[name]
		infos = append(infos, workflowInfo{
			Name:        entry.Definition.Name,
			Description: entry.Definition.Description,
			Domain:      entry.Definition.Domain,
			Source:      string(entry.Source),
			Complexity:  entry.Definition.Metadata.Complexity,
			BestFor:     entry.Definition.Metadata.BestFor,
			Phases:      entry.Definition.PhaseNames(),
			URI:         workflowURIPrefix + entry.Definition.Name,
		})
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling workflow index: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// DefinitionTemplate returns the resource template for single definitions.
func (h *Handler) DefinitionTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		workflowURIPrefix+"{name}",
		"Workflow Definition",
		mcp.WithTemplateDescription("One workflow definition as YAML; a starting point for customized copies"),
		mcp.WithTemplateMIMEType("application/yaml"),
	)
}

// HandleDefinition serves one workflow definition as YAML.
func (h *Handler) HandleDefinition(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := strings.TrimPrefix(req.Params.URI, workflowURIPrefix)
	if name == "" || strings.Contains(name, "/") {
		return errorResource(req.Params.URI, fmt.Sprintf("invalid workflow URI %q", req.Params.URI)), nil
	}

	projectPath, _ := h.resolveProject(ctx)
	def, err := h.catalog.Get(projectPath, name)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := workflow.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshaling workflow %s: %w", name, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/yaml",
			Text:     string(data),
		},
	}, nil
}

// PlanResource returns the MCP resource definition for the plan document.
func (h *Handler) PlanResource() mcp.Resource {
	return mcp.NewResource(
		planURI,
		"Development Plan",
		mcp.WithResourceDescription("The plan document of the development conversation on the current branch"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandlePlan serves the current conversation's plan markdown.
func (h *Handler) HandlePlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectPath, branch := h.resolveProject(ctx)

	st, err := h.store.Get(conversation.ID(projectPath, branch))
	if err != nil {
		return errorResource(req.Params.URI,
			"no development conversation for this checkout; start one with start_development"), nil
	}

	planPath := st.PlanFilePath
	if planPath == "" {
		planPath = plan.Path(projectPath, branch)
	}
	data, err := os.ReadFile(planPath)
	if err != nil {
		return errorResource(req.Params.URI, fmt.Sprintf("plan file unreadable: %v", err)), nil
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     string(data),
		},
	}, nil
}

// resolveProject mirrors the tools' checkout resolution. Resources cannot
// fail the protocol call over it, so errors degrade to the working
// directory.
func (h *Handler) resolveProject(ctx context.Context) (projectPath, branch string) {
	projectPath = h.cfg.ProjectPath
	if projectPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", vcs.DefaultBranch
		}
		if root, err := vcs.RepoRoot(ctx, cwd); err == nil {
			projectPath = root
		} else {
			projectPath = cwd
		}
	}
	return projectPath, vcs.BranchOrDefault(ctx, projectPath)
}

// errorResource wraps an error message as readable resource content.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     "Error: " + message,
		},
	}
}
