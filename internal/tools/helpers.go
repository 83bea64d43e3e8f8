// Package tools implements the MCP tool handlers.
//
// Each tool is one file: a struct carrying its dependencies, a Definition()
// returning the mcp.Tool schema, and a Handle() processing the call. Errors
// the calling agent can correct come back as tool results with a concrete
// next step; infrastructure failures propagate as Go errors.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/engine"
	"github.com/stepwise-mcp/stepwise/internal/projectdocs"
	"github.com/stepwise-mcp/stepwise/internal/vcs"
	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// resolveCheckout determines which project and branch a tool call operates
// on: an explicit config override wins, otherwise the enclosing git repo of
// the working directory, otherwise the working directory itself. The branch
// falls back to a fixed name outside git.
func resolveCheckout(ctx context.Context, cfg config.Config) (projectPath, branch string, err error) {
	projectPath = cfg.ProjectPath
	if projectPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("getting working directory: %w", err)
		}
		if root, err := vcs.RepoRoot(ctx, cwd); err == nil {
			projectPath = root
		} else {
			projectPath = cwd
		}
	}
	return projectPath, vcs.BranchOrDefault(ctx, projectPath), nil
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// callerError maps domain errors the calling agent can fix on its own to a
// tool result. Returns nil for errors that are genuinely ours.
func callerError(err error) *mcp.CallToolResult {
	var (
		notStarted  *engine.NotStartedError
		mismatch    *engine.PhaseMismatchError
		noSuch      *engine.NoSuchTransitionError
		unknown     *engine.UnknownPhaseError
		review      *engine.ReviewRequiredError
		docsNeeded  *engine.DocumentationRequiredError
		conflict    *engine.WorkflowConflictError
		wfNotFound  *workflow.NotFoundError
		badTemplate *projectdocs.UnknownTemplateError
		badPath     *projectdocs.PathNotFoundError
		traversal   *projectdocs.PathTraversalError
	)
	switch {
	case errors.As(err, &notStarted):
		return mcp.NewToolResultError(
			"No development conversation exists for this project and branch yet. " +
				"Call `start_development` with a workflow name to begin; " +
				"`list_workflows` shows what is available.")
	case errors.As(err, &mismatch):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Phase mismatch: you reported %q but the conversation is in %q. "+
				"Call `whats_next` to re-sync, then retry with the actual phase.",
			mismatch.Reported, mismatch.Actual))
	case errors.As(err, &noSuch):
		return mcp.NewToolResultError(renderNoSuchTransition(noSuch))
	case errors.As(err, &unknown):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Phase %q does not exist in workflow %q. The definition may have "+
				"changed; `reset_development` starts the workflow over.",
			unknown.Phase, unknown.Workflow))
	case errors.As(err, &review):
		return mcp.NewToolResultError(renderReviewRequired(review))
	case errors.As(err, &docsNeeded):
		return mcp.NewToolResultError(renderDocsRequired(docsNeeded))
	case errors.As(err, &conflict):
		return mcp.NewToolResultError(fmt.Sprintf(
			"This project and branch already run workflow %q. Call "+
				"`reset_development` (with confirm: true) before starting %q.",
			conflict.Existing, conflict.Requested))
	case errors.As(err, &wfNotFound):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Unknown workflow %q. Available: %s.",
			wfNotFound.Name, strings.Join(wfNotFound.Available, ", ")))
	case errors.As(err, &badTemplate):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Unknown %s template %q. Valid templates: %s. "+
				"Pass a file path to link an existing document, or \"none\".",
			badTemplate.Slot, badTemplate.Input, strings.Join(badTemplate.Valid, ", ")))
	case errors.As(err, &badPath):
		return mcp.NewToolResultError(fmt.Sprintf(
			"The %s document path %q does not exist. Create the file first or "+
				"pick a template instead.", badPath.Slot, badPath.Input))
	case errors.As(err, &traversal):
		return mcp.NewToolResultError(fmt.Sprintf(
			"The %s document path %q resolves outside the project root. "+
				"Documents must live inside the project.", traversal.Slot, traversal.Input))
	}
	return nil
}

func renderNoSuchTransition(e *engine.NoSuchTransitionError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No transition %q from phase %q.\n\n", e.Trigger, e.Phase)
	if len(e.Valid) == 0 {
		fmt.Fprintf(&b, "%q is a terminal phase; `reset_development` starts a new run.", e.Phase)
		return b.String()
	}
	b.WriteString("Valid triggers from here:\n")
	for _, trigger := range e.Valid {
		fmt.Fprintf(&b, "- `%s`\n", trigger)
	}
	b.WriteString("\nCall `whats_next` if you are unsure where you are.")
	return b.String()
}

func renderReviewRequired(e *engine.ReviewRequiredError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The transition to %q is gated behind a review.\n\n", e.TargetPhase)
	b.WriteString("Perspectives to apply:\n")
	for _, p := range e.Perspectives {
		fmt.Fprintf(&b, "- **%s**: %s\n", p.Role, p.Prompt)
	}
	fmt.Fprintf(&b, "\nCall `conduct_review` with target_phase %q, perform the review, "+
		"then retry `proceed_to_phase` with review_state \"performed\".", e.TargetPhase)
	return b.String()
}

func renderDocsRequired(e *engine.DocumentationRequiredError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workflow %q requires project documentation before starting.\n\n", e.Workflow)
	b.WriteString("Missing document slots:\n")
	for _, slot := range e.Missing {
		fmt.Fprintf(&b, "- %s", slot)
		if candidates := e.Candidates[slot]; len(candidates) > 0 {
			fmt.Fprintf(&b, " (existing files you could link: %s)", strings.Join(candidates, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nCall `setup_project_docs` first. Each slot takes a template name, " +
		"a path to an existing document, or \"none\".")
	return b.String()
}

// transitionList renders the triggers available from a phase.
func transitionList(transitions []workflow.Transition) string {
	if len(transitions) == 0 {
		return "This is a terminal phase; no transitions remain.\n"
	}
	var b strings.Builder
	for _, tr := range transitions {
		fmt.Fprintf(&b, "- `%s` → %s", tr.Trigger, tr.To)
		if tr.Reason != "" {
			fmt.Fprintf(&b, " (%s)", tr.Reason)
		}
		if len(tr.ReviewPerspectives) > 0 {
			b.WriteString(" — review gated")
		}
		b.WriteString("\n")
	}
	return b.String()
}
