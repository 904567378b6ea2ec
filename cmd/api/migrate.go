package main

import (
	"github.com/spf13/cobra"

	"github.com/Tomlord1122/todo-api/internal/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the todo schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			dbService, err := database.New(cfg.DB, log)
			if err != nil {
				return err
			}
			defer dbService.Close()

			log.Info("running database migration", "driver", cfg.DB.Driver)
			if err := database.Migrate(dbService.GetDB()); err != nil {
				return err
			}
			log.Info("database migration complete")
			return nil
		},
	}
}
