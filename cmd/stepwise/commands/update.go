package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	stepserver "github.com/stepwise-mcp/stepwise/internal/server"
	"github.com/stepwise-mcp/stepwise/internal/updater"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update stepwise to the latest version",
	Long: `Update stepwise to the latest version from GitHub releases.

The update process:
1. Checks for the latest release
2. Downloads the binary for your platform
3. Replaces the current binary atomically

After a successful update, restart stepwise to use the new version.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false,
		"Check for updates without installing")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(os.Stderr, "🔍 Checking for updates...\n")

	result := updater.CheckVersion(stepserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
		return nil
	}

	fmt.Fprintf(os.Stderr, "📦 New version available: v%s → v%s\n", result.CurrentVersion, result.LatestVersion)
	if updateCheckOnly {
		fmt.Fprintf(os.Stderr, "   Release: %s\n", result.ReleaseURL)
		return nil
	}

	fmt.Fprintf(os.Stderr, "⬇️  Downloading...\n")

	if err := updater.SelfUpdate(stepserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "\n   You can download manually from:\n   %s\n", result.ReleaseURL)
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Updated to v%s!\n", result.LatestVersion)
	fmt.Fprintf(os.Stderr, "   Restart stepwise to use the new version.\n")
	return nil
}
