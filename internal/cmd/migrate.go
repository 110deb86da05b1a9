package cmd

import (
	"errors"
	"log/slog"

	"github.com/leighmacdonald/fraglog/internal/config"
	"github.com/leighmacdonald/fraglog/internal/database"
	"github.com/leighmacdonald/fraglog/pkg/log"
	"github.com/spf13/cobra"
)

var errMigrate = errors.New("failed to migrate database schema")

// migrateCmd applies the db schema without starting the service.
func migrateCmd() *cobra.Command {
	var downAll = false

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, errConf := config.Read(cfgFile)
			if errConf != nil {
				return errConf
			}

			logCloser := log.MustCreateLogger(cmd.Context(), conf.Log.File, conf.Log.Level, false, BuildVersion)
			defer logCloser()

			action := database.MigrateUp
			if downAll {
				action = database.MigrateDn
			}

			dbConn := database.New(conf.DB.DSN, false, conf.DB.LogQueries)
			if errApply := dbConn.Migrate(action); errApply != nil {
				slog.Error("Could not migrate schema", log.ErrAttr(errApply))

				return errors.Join(errApply, errMigrate)
			}

			slog.Info("Migration completed successfully")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&downAll, "down", "d", false, "Fully reverts all migrations")

	return cmd
}
