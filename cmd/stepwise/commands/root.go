// Package commands implements the stepwise CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stepwise-mcp/stepwise/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Workflow-guided development MCP server",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Long: `Stepwise is an MCP server that guides AI coding agents through
structured development workflows.

Workflows are small state machines (waterfall, epcc, bugfix, ...) with
per-phase instructions. The agent does the engineering work; stepwise
tracks which phase the work is in, gates transitions behind reviews,
and keeps a per-branch plan document alive across sessions.

Quick Start:
  stepwise serve     Start the MCP server (stdio transport)
  stepwise config    Show the effective configuration
  stepwise version   Print the running version
  stepwise update    Self-update from GitHub releases

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "stepwise": {
        "command": "stepwise",
        "args": ["serve"]
      }
    }
  }`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env first so STEPWISE_* variables from the file are
		// visible to the config layer. Parse errors are reported but
		// never stop the command.
		if err := config.LoadDotEnvFromCwd(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .stepwise/.env: %v\n", err)
		}

		if err := config.Init(); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		return nil
	},
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}
