package main

import (
	"fmt"

	"github.com/kindredapp/kindred/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gdb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s\n", cfg.Database.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kindred.yaml", "path to Kindred config file")
	return cmd
}
