// Package prompts implements MCP prompt handlers for stepwise.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the start-development MCP prompt.
// It guides the AI to pick a workflow and enter the phase loop.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("start-development",
		mcp.WithPromptDescription(
			"Begin structured development on this project. "+
				"Picks a workflow (waterfall, epcc, bugfix, ...) and starts "+
				"the phase loop that guides the work from here on.",
		),
		mcp.WithArgument("workflow",
			mcp.ArgumentDescription(
				"Workflow to use. Leave empty to review the available workflows and choose one that fits the task.",
			),
		),
	)
}

// Handle processes the start-development prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	workflowName := ""
	if args := req.Params.Arguments; args != nil {
		if w, ok := args["workflow"]; ok && w != "" {
			workflowName = w
		}
	}

	if workflowName != "" {
		return &mcp.GetPromptResult{
			Description: fmt.Sprintf("Start development with the %s workflow", workflowName),
			Messages: []mcp.PromptMessage{
				{
					Role: mcp.RoleUser,
					Content: mcp.NewTextContent(fmt.Sprintf(
						"I want to start structured development using the '%s' workflow.\n\n"+
							"Please:\n"+
							"1. Run `start_development` with workflow='%s'\n"+
							"2. Follow the instructions it returns for the first phase\n"+
							"3. Keep the plan file it names up to date as you work\n"+
							"4. Call `whats_next` after each step so the workflow stays in charge of sequencing",
						workflowName, workflowName,
					)),
				},
			},
		}, nil
	}

	return &mcp.GetPromptResult{
		Description: "Start development",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to start structured development on this project.\n\n" +
						"Please:\n" +
						"1. Run `list_workflows` and look at what each workflow is best for\n" +
						"2. Recommend one based on what I'm trying to do (ask me if it's not clear yet)\n" +
						"3. Run `start_development` with the chosen workflow\n" +
						"4. Follow the instructions it returns and call `whats_next` after each step",
				),
			},
		},
	}, nil
}
