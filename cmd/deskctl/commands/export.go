package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all rules to a YAML file",
	Long: `Export all automation rules as YAML, suitable for re-import with
"deskctl import".

Examples:
  deskctl export --output rules.yaml
  deskctl export`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		list, err := c.ListRules(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		data, err := yaml.Marshal(map[string]any{"rules": list})
		if err != nil {
			return fmt.Errorf("failed to marshal rules: %w", err)
		}

		if exportOutput == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
		if !quiet {
			fmt.Printf("Exported %d rule(s) to %s\n", len(list), exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file (default stdout)")
}
