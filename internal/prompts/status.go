package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the workflow-status MCP prompt.
// It instructs the AI to recover the current workflow state and report it.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("workflow-status",
		mcp.WithPromptDescription(
			"Check where development currently stands. "+
				"Shows the active workflow, current phase, plan progress, "+
				"and what to do next.",
		),
	)
}

// Handle processes the workflow-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Workflow status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `resume_workflow` to recover the current development state.\n\n" +
						"Then:\n" +
						"1. Read the plan file it names and summarize what's done and what's open\n" +
						"2. Tell me which workflow and phase we're in and what that phase is for\n" +
						"3. List the transitions available from here\n" +
						"4. Propose the next concrete step and wait for my go-ahead",
				),
			},
		},
	}, nil
}
