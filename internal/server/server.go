// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts, and resources that depend on them.
// No business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/conversation"
	"github.com/stepwise-mcp/stepwise/internal/engine"
	"github.com/stepwise-mcp/stepwise/internal/log"
	"github.com/stepwise-mcp/stepwise/internal/plan"
	"github.com/stepwise-mcp/stepwise/internal/projectdocs"
	"github.com/stepwise-mcp/stepwise/internal/prompts"
	"github.com/stepwise-mcp/stepwise/internal/resources"
	"github.com/stepwise-mcp/stepwise/internal/templates"
	"github.com/stepwise-mcp/stepwise/internal/tools"
	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the conversation store and the
// workflow catalog watcher and must be called on shutdown (typically via
// defer). It is always non-nil and safe to call even after an error.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	log.Configure(log.Options{
		Level: log.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})

	// --- Create shared dependencies ---

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	store, err := conversation.New(conversation.Config{DataDir: cfg.ResolveDataDir()})
	if err != nil {
		return nil, noop, fmt.Errorf("opening conversation store: %w", err)
	}

	catalog := workflow.NewCatalog(cfg.ResolveDomains())

	// Hot reload of project workflow directories is a convenience, not a
	// requirement. The catalog still re-scans on demand without it.
	if err := catalog.Watch(); err != nil {
		log.Warn("workflow hot-reload disabled", log.Err(err))
	}

	cleanup := func() {
		if err := catalog.Close(); err != nil {
			log.Warn("catalog close", log.Err(err))
		}
		if err := store.Close(); err != nil {
			log.Warn("conversation store close", log.Err(err))
		}
	}

	plans := plan.NewManager(renderer)
	docs := projectdocs.NewManager(renderer)
	eng := engine.New(catalog, store, plans, docs)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"stepwise",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register phase loop tools ---

	startTool := tools.NewStartDevelopmentTool(eng, *cfg)
	s.AddTool(startTool.Definition(), startTool.Handle)

	nextTool := tools.NewWhatsNextTool(eng, *cfg)
	s.AddTool(nextTool.Definition(), nextTool.Handle)

	proceedTool := tools.NewProceedToPhaseTool(eng, *cfg)
	s.AddTool(proceedTool.Definition(), proceedTool.Handle)

	reviewTool := tools.NewConductReviewTool(eng, *cfg)
	s.AddTool(reviewTool.Definition(), reviewTool.Handle)

	resumeTool := tools.NewResumeWorkflowTool(eng, *cfg)
	s.AddTool(resumeTool.Definition(), resumeTool.Handle)

	resetTool := tools.NewResetDevelopmentTool(eng, *cfg)
	s.AddTool(resetTool.Definition(), resetTool.Handle)

	// --- Register workflow catalog tools ---

	listTool := tools.NewListWorkflowsTool(catalog, eng, *cfg)
	s.AddTool(listTool.Definition(), listTool.Handle)

	installTool := tools.NewInstallWorkflowTool(catalog, eng, *cfg)
	s.AddTool(installTool.Definition(), installTool.Handle)

	// --- Register project document tools ---

	docsTool := tools.NewSetupProjectDocsTool(docs, eng, *cfg)
	s.AddTool(docsTool.Definition(), docsTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(catalog, store, *cfg)
	s.AddResource(resourceHandler.IndexResource(), resourceHandler.HandleIndex)
	s.AddResourceTemplate(resourceHandler.DefinitionTemplate(), resourceHandler.HandleDefinition)
	s.AddResource(resourceHandler.PlanResource(), resourceHandler.HandlePlan)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when construction
// fails before anything needs closing.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use stepwise effectively.
func serverInstructions() string {
	return `You have access to stepwise, a workflow-guided development MCP server.

## WHEN TO ACTIVATE stepwise

You MUST proactively suggest using stepwise when the user:
- Asks to build a new feature, app, or system
- Reports a bug that needs more than a one-line fix
- Describes a vague idea and wants to start coding
- Says things like "I want to build...", "let's add...", "something is broken in..."
- Asks you to plan, architect, or restructure something

When you detect any of these, say something like:
"Let's run this through a structured workflow so nothing gets skipped.
I'll use stepwise to track phases and keep a plan file. Should I start?"

You do NOT need stepwise for:
- One-liner changes or config tweaks
- Questions, explanations, or documentation lookups
- Anything the user explicitly wants done ad hoc

## How stepwise Works

stepwise models development as a state machine. Each workflow (waterfall,
epcc, bugfix, minor, greenfield, ...) defines phases and the transitions
between them. stepwise never writes code and never decides for you —
it tells you which phase you are in and what that phase expects, and YOU
do the engineering work. Think of it as a process conscience:

1. YOU do the work of the current phase (analyze, plan, code, test...)
2. stepwise tells you what the phase expects and when you may move on
3. The plan file carries your working memory between calls and sessions

State is tracked per project and git branch. Two branches of the same
repository are two independent conversations with independent phases.

## The Core Loop

1. Call start_development ONCE per project+branch with a workflow name.
   Pick the workflow by the shape of the task:
   - waterfall: large features needing requirements/design/implementation rigor
   - epcc: explore-plan-code-commit, good general-purpose default
   - bugfix: reproduce-analyze-fix-verify for defects
   - minor: tiny two-phase flow for small, well-understood changes
   - greenfield: new projects from an empty directory (architecture
     domain — visible when the server's domain filter includes it)
   Use list_workflows when unsure — it says what each one is best for.

2. Call whats_next after EVERY meaningful step. It returns the current
   phase's instructions and the transitions available from here. It never
   advances the state — call it as often as you like.

3. When the current phase's exit criteria are met, call proceed_to_phase
   with the trigger named by whats_next. Pass current_phase as the phase
   YOU believe you are in — if your view is stale, stepwise tells you to
   re-sync instead of silently jumping states.

NEVER skip ahead. If a transition is not offered from the current phase,
the work of this phase is not done — finish it or talk to the user.

## The Plan File

start_development creates a markdown plan file and every response names
its path. This file is YOUR working memory:
- Record decisions, open questions, and task lists as you work
- Check off completed tasks with [x] so progress survives compaction
- Read it at the start of every session to recover context
- Never delete it; reset_development removes it when the user wants out

## Reviews

Transitions can declare review perspectives (security, architecture,
testing, ...). When the conversation was started with require_reviews
enabled, a gated transition will not fire until a review happened:

1. Call conduct_review with the target phase — it returns one prompt per
   declared perspective
2. Perform each perspective review honestly against the actual artifacts
3. Present findings to the user and resolve what must be resolved
4. Call proceed_to_phase with review_state="performed"

Without require_reviews the gates are advisory: conduct_review still
works, it is just never mandatory.

## Project Documents

Some workflows (waterfall, for one) require architecture, requirements,
and design documents before starting. If start_development reports missing
documents, call setup_project_docs with one choice per slot:
- a template name (e.g. "arc42", "ears", "comprehensive") to scaffold a new file
- a path to an existing file in the project to link it instead
- "none" to create a minimal placeholder

Phase instructions reference the documents through the variables
$ARCHITECTURE_DOC, $REQUIREMENTS_DOC, $DESIGN_DOC, and $PLAN_FILE —
stepwise substitutes the real paths before you see them.

## Resuming After a Break

At the start of a new session on a project that already has state, call
resume_workflow. It reports the workflow, phase, plan file, and available
transitions without changing anything. Read the plan file next, then
continue the loop with whats_next.

## Starting Over

reset_development deletes the conversation state and the plan file for
the current branch. It requires confirm=true — ask the user before
calling it. The interaction log is kept (marked as reset) so history is
not silently lost. After a reset, start_development begins fresh with
any workflow.

## Custom Workflows

Projects can carry their own workflow definitions in .stepwise/workflows/.
A project workflow with the same name as a built-in shadows it. Use
install_workflow to add one from YAML content or a file path — it
validates the state machine (reachable phases, known targets, default
instructions) and rejects broken definitions before anything is written.

## Resources

- stepwise://workflows — JSON index of everything the catalog can see
- stepwise://workflows/{name} — full YAML definition of one workflow
- stepwise://plan — the current branch's plan document

## Important Rules

- Let the workflow drive the sequencing — never invent your own phases
- Report current_phase honestly in proceed_to_phase; stale is fine, lying is not
- Keep the plan file current — it is the single source of progress truth
- One workflow per branch; switching mid-stream requires reset_development
- Do the phase work yourself — stepwise instructions are process, not content
- When a tool returns an error with a suggested next step, follow it`
}
