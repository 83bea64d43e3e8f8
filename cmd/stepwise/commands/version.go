package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	stepserver "github.com/stepwise-mcp/stepwise/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "stepwise %s\n", stepserver.Version)
		_, _ = fmt.Fprintf(out, "  Go: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
