package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/deskforge/automation/internal/history"
	"github.com/deskforge/automation/internal/rules"
)

// OutputFormat specifies the output format for CLI commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintRules outputs rules in the specified format.
func PrintRules(list []rules.Rule, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]rules.Rule{"rules": list})
	case FormatYAML:
		return printYAML(list)
	case FormatTable:
		return printRuleTable(list)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintRule outputs a single rule in the specified format.
func PrintRule(rule *rules.Rule, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(rule)
	case FormatYAML:
		return printYAML(rule)
	case FormatTable:
		return printRuleTable([]rules.Rule{*rule})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintRunRecord outputs an automation run report.
func PrintRunRecord(record *history.RunRecord, format OutputFormat) error {
	switch format {
	case FormatYAML:
		return printYAML(record)
	case FormatTable, FormatJSON:
		return printJSON(record)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(data)
}

func printRuleTable(list []rules.Rule) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Trigger", "Conditions", "Actions", "Active"})
	table.SetBorder(false)

	for _, r := range list {
		table.Append([]string{
			r.ID,
			r.Name,
			string(r.TriggerType),
			strconv.Itoa(len(r.Conditions)),
			strconv.Itoa(len(r.Actions)),
			strconv.FormatBool(r.IsActive),
		})
	}
	table.Render()
	return nil
}
