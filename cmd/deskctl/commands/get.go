package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskforge/automation/internal/cli"
)

var getCmd = &cobra.Command{
	Use:   "get <rule-id>",
	Short: "Show one automation rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		rule, err := c.GetRule(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get rule: %w", err)
		}

		if !quiet {
			return cli.PrintRule(rule, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
