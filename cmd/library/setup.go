// cmd/library/setup.go
package main

import (
	"log"

	"libraryweb/internal/config"
	"libraryweb/internal/database"

	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the database, migrate the schema and seed sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := database.Bootstrap(cmd.Context(), cfg.DB); err != nil {
				return err
			}
			log.Printf("Database %q is ready", cfg.DB.Name)
			return nil
		},
	}
}
