package main

import (
	"fmt"

	"github.com/kindredapp/kindred/internal/quota"
	"github.com/spf13/cobra"
)

func newResetUsageCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset-usage",
		Short: "Reset every user's usage counter to zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			n, err := quota.ResetAll(gdb)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset usage for %d users\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kindred.yaml", "path to Kindred config file")
	return cmd
}
