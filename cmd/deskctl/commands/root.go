package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profile string
	baseURL string
	apiKey  string
	format  string
	quiet   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deskctl",
	Short: "CLI tool for managing helpdesk automation rules",
	Long: `Deskctl is a command-line tool for managing automation rules in the
deskforge automation service.

It provides commands for creating, reading, updating, and deleting rules,
importing and exporting rule sets, and firing test events at the engine.

Examples:
  deskctl list
  deskctl get 7f3c1f9a-...
  deskctl create --file escalate-high.json
  deskctl export --output rules.yaml
  deskctl fire --trigger TICKET_CREATED --entity T-1001 --snapshot '{"priority":"HIGH"}'`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Config profile to use")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the automation API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
