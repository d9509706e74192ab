package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/shiftcover/internal/cli"
	"github.com/example/shiftcover/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "shiftcover",
		Short:   "shiftcover - escalation engine for unfilled shift broadcasts",
		Version: version.String(),
		Long: `shiftcover tracks shifts broadcast to external staffing partners and
escalates them on a time-driven ladder until they are filled, expired,
or cancelled.`,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.BroadcastCmd())
	rootCmd.AddCommand(cli.RulesCmd())
	rootCmd.AddCommand(cli.SweepCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
