package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/shiftcover/internal/wire"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one escalation pass over pending broadcasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		verbose, _ := cmd.Flags().GetBool("verbose")

		logger := zap.NewNop()
		if verbose {
			var err error
			logger, err = zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()
		}

		result, err := wire.Sweeper(logger).Sweep(ctx)
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		fmt.Printf("✓ Sweep complete: %d evaluated, %d rules applied, %d expired, %d conflicts\n",
			result.Evaluated, result.Applied, result.Expired, result.Conflicts)
		for id, ruleID := range result.AppliedRules {
			fmt.Printf("  %s: %s\n", id, ruleID)
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolP("verbose", "v", false, "Log each evaluation")
}

// SweepCmd returns the sweep command
func SweepCmd() *cobra.Command {
	return sweepCmd
}
