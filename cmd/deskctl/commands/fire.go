package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskforge/automation/internal/cli"
	"github.com/deskforge/automation/internal/client"
	"github.com/deskforge/automation/internal/rules"
)

var (
	fireTrigger  string
	fireEntity   string
	fireSnapshot string
	firePrevious string
)

var fireCmd = &cobra.Command{
	Use:   "fire",
	Short: "Fire a test domain event at the engine",
	Long: `Fire a domain event and print the resulting run report. Useful for
testing rules against a known snapshot before wiring them to real traffic.

Examples:
  deskctl fire --trigger TICKET_CREATED --entity T-1001 --snapshot '{"priority":"HIGH"}'
  deskctl fire --trigger ASSET_UPDATED --entity A-17 \
    --snapshot '{"status":"retired"}' --previous '{"status":"active"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := client.EventPayload{
			TriggerType: rules.TriggerType(fireTrigger),
			EntityID:    fireEntity,
		}
		if err := json.Unmarshal([]byte(fireSnapshot), &payload.Snapshot); err != nil {
			return fmt.Errorf("invalid --snapshot JSON: %w", err)
		}
		if firePrevious != "" {
			if err := json.Unmarshal([]byte(firePrevious), &payload.PreviousSnapshot); err != nil {
				return fmt.Errorf("invalid --previous JSON: %w", err)
			}
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		record, err := c.SendEvent(context.Background(), payload)
		if err != nil {
			return fmt.Errorf("failed to send event: %w", err)
		}

		if !quiet {
			return cli.PrintRunRecord(record, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fireCmd)
	fireCmd.Flags().StringVar(&fireTrigger, "trigger", "", "Trigger type (e.g. TICKET_CREATED)")
	fireCmd.Flags().StringVar(&fireEntity, "entity", "", "Entity ID the event concerns")
	fireCmd.Flags().StringVar(&fireSnapshot, "snapshot", "{}", "Snapshot JSON object")
	fireCmd.Flags().StringVar(&firePrevious, "previous", "", "Previous snapshot JSON object (update triggers)")
	_ = fireCmd.MarkFlagRequired("trigger")
	_ = fireCmd.MarkFlagRequired("entity")
}
