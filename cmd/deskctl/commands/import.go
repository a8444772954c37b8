package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deskforge/automation/internal/client"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rules from a YAML file",
	Long: `Import automation rules from a YAML file produced by "deskctl export"
or written by hand. Each rule is created as a new definition.

Examples:
  deskctl import rules.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}

		var doc struct {
			Rules []client.RulePayload `yaml:"rules"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse import file: %w", err)
		}
		if len(doc.Rules) == 0 {
			return fmt.Errorf("no rules found in %s", args[0])
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		created := 0
		for _, payload := range doc.Rules {
			if _, err := c.CreateRule(ctx, payload); err != nil {
				return fmt.Errorf("failed to import rule %q: %w", payload.Name, err)
			}
			created++
		}

		if !quiet {
			fmt.Printf("Imported %d rule(s)\n", created)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
