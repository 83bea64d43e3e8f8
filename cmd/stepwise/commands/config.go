package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stepwise-mcp/stepwise/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration the server would run with, after merging
defaults, the config file, and STEPWISE_* environment variables.

Useful to find where the config file and the conversation database
live, and to verify that an override actually took effect.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out := cmd.OutOrStdout()

	configFile := config.ConfigFile()
	status := "not present, defaults apply"
	if _, err := os.Stat(configFile); err == nil {
		status = "loaded"
	}
	fmt.Fprintf(out, "Config file:  %s (%s)\n", configFile, status)
	fmt.Fprintf(out, "Data dir:     %s\n", cfg.ResolveDataDir())
	fmt.Fprintf(out, "Database:     %s\n", cfg.DatabasePath())
	fmt.Fprintf(out, "Domains:      %s\n", strings.Join(cfg.ResolveDomains(), ", "))
	fmt.Fprintf(out, "Log level:    %s\n", cfg.Log.Level)
	if cfg.Log.JSON {
		fmt.Fprintln(out, "Log format:   json")
	}
	if cfg.ProjectPath != "" {
		fmt.Fprintf(out, "Project pin:  %s\n", cfg.ProjectPath)
	}
	return nil
}
