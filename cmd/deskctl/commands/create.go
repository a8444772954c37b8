package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deskforge/automation/internal/cli"
	"github.com/deskforge/automation/internal/client"
)

var createFile string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an automation rule from a definition file",
	Long: `Create an automation rule from a JSON or YAML definition file.

Examples:
  deskctl create --file escalate-high.json
  deskctl create --file notify-assignee.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := loadRulePayload(createFile)
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		rule, err := c.CreateRule(context.Background(), payload)
		if err != nil {
			return fmt.Errorf("failed to create rule: %w", err)
		}

		if !quiet {
			fmt.Printf("Created rule %s\n", rule.ID)
			return cli.PrintRule(rule, cli.OutputFormat(format))
		}
		return nil
	},
}

// loadRulePayload reads a rule definition file, choosing the decoder by
// extension (.yaml/.yml, anything else is JSON).
func loadRulePayload(path string) (client.RulePayload, error) {
	var payload client.RulePayload

	data, err := os.ReadFile(path)
	if err != nil {
		return payload, fmt.Errorf("failed to read rule file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &payload)
	default:
		err = json.Unmarshal(data, &payload)
	}
	if err != nil {
		return payload, fmt.Errorf("failed to parse rule file: %w", err)
	}
	return payload, nil
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createFile, "file", "", "Rule definition file (JSON or YAML)")
	_ = createCmd.MarkFlagRequired("file")
}
