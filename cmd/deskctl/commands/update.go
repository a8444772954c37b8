package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskforge/automation/internal/cli"
)

var updateFile string

var updateCmd = &cobra.Command{
	Use:   "update <rule-id>",
	Short: "Replace an automation rule from a definition file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := loadRulePayload(updateFile)
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		rule, err := c.UpdateRule(context.Background(), args[0], payload)
		if err != nil {
			return fmt.Errorf("failed to update rule: %w", err)
		}

		if !quiet {
			return cli.PrintRule(rule, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(&updateFile, "file", "", "Rule definition file (JSON or YAML)")
	_ = updateCmd.MarkFlagRequired("file")
}
