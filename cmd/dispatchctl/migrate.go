package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oficio/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the dispatch tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, s, err := openSession(cmd.Context(), func(cfg *config.Config) {
			cfg.Database.Migrate = true
		})
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.store.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", s.store.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
