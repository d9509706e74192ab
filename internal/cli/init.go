package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/shiftcover/internal/config"
	"github.com/example/shiftcover/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the shiftcover database and config",
		Long:  `Initialize the shiftcover database at ~/.shiftcover/shiftcover.db and write a default config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing shiftcover database at %s\n", dbPath)

			if err := db.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}

			fmt.Println("✓ Database initialized successfully")

			created, err := initConfig()
			if err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			if created {
				fmt.Println("✓ Default config written to ~/.shiftcover/config.yaml")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  shiftcover broadcast create SHIFT-001 --location LOC-EAST --deadline-in 8h")
			fmt.Println("  shiftcover serve")

			return nil
		},
	}
}

// initConfig writes the default config file if none exists.
func initConfig() (bool, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	return true, config.Save(config.Default(), path)
}
