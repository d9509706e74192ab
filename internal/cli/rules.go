package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/shiftcover/internal/config"
	"github.com/example/shiftcover/internal/wire"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect escalation rules",
	Long:  "Show the effective escalation ladder and validate rule configuration files",
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective escalation ladder",
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, _ := cmd.Flags().GetString("location")

		rules, err := wire.Config().RulesFor(locationID)
		if err != nil {
			return fmt.Errorf("failed to resolve rules: %w", err)
		}

		if locationID != "" {
			fmt.Printf("Escalation ladder for location %s:\n\n", locationID)
		} else {
			fmt.Println("Default escalation ladder:")
			fmt.Println()
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AFTER\tACTION\tDETAIL")
		fmt.Fprintln(w, "-----\t------\t------")
		for _, r := range rules {
			detail := "-"
			switch {
			case r.NewUrgency != "":
				detail = "urgency -> " + r.NewUrgency
			case r.ExtendMinutes > 0:
				detail = fmt.Sprintf("deadline +%dm", r.ExtendMinutes)
			}
			fmt.Fprintf(w, "%dm\t%s\t%s\n", r.TriggerAfterMinutes, r.Action, detail)
		}
		w.Flush()
		return nil
	},
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check [config-file]",
	Short: "Validate a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		} else {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}

		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		total := len(cfg.Rules)
		for _, rules := range cfg.LocationRules {
			total += len(rules)
		}
		fmt.Printf("✓ Configuration valid: %d rules across %d location overrides\n",
			total, len(cfg.LocationRules))
		return nil
	},
}

func init() {
	rulesShowCmd.Flags().String("location", "", "Show the ladder for a specific location")

	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
}

// RulesCmd returns the rules command
func RulesCmd() *cobra.Command {
	return rulesCmd
}
