package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskforge/automation/internal/cli"
	"github.com/deskforge/automation/internal/client"
	"github.com/deskforge/automation/internal/rules"
)

var listActiveOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all automation rules",
	Long: `List all automation rules known to the service.

Examples:
  deskctl list
  deskctl list --format json
  deskctl list --active-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		list, err := c.ListRules(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		if listActiveOnly {
			var active []rules.Rule
			for _, r := range list {
				if r.IsActive {
					active = append(active, r)
				}
			}
			list = active
		}

		if !quiet {
			if len(list) == 0 {
				fmt.Println("No rules found")
				return nil
			}
			return cli.PrintRules(list, cli.OutputFormat(format))
		}
		return nil
	},
}

// newClient resolves the effective profile and builds an API client.
func newClient() (*client.Client, error) {
	resolved, err := cli.ResolveProfile(profile, baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return client.NewClient(resolved.BaseURL, resolved.APIKey), nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listActiveOnly, "active-only", false, "Show only active rules")
}
