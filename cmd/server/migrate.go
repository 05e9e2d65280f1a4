package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aquatallyon/internal/adapters/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cmd.Context(), a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", a.cfg.DBPath, v)
			return nil
		},
	}
}
