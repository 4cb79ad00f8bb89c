// migrate applies the embedded schema migrations to DATABASE_URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inventory-audit/backend/internal/config"
	"inventory-audit/backend/internal/db/migrate"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply embedded migrations to DATABASE_URL",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := migrate.Run(cfg.DatabaseURL, direction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", direction)
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "up", "migration direction: up or down")
	return cmd
}
