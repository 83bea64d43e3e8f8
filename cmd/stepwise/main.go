// Stepwise: workflow-guided development MCP server
//
// A universal MCP server that integrates with any AI coding tool
// (Claude Code, OpenCode, Gemini CLI, Codex, Cursor, VS Code Copilot)
// and guides the agent through structured development workflows —
// waterfall, epcc, bugfix, and custom state machines.
//
// Usage:
//
//	stepwise serve    # Start MCP server (stdio transport)
//	stepwise update   # Update to the latest version
package main

import (
	"fmt"
	"os"

	"github.com/stepwise-mcp/stepwise/cmd/stepwise/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
