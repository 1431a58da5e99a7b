package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/imaginify/usersync/internal/daemon"
	"github.com/imaginify/usersync/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables and exit",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := readConfig(); err != nil {
			return err
		}

		return logger.Init(cfg.Log)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := daemon.Migrate(&cfg)
		if err != nil {
			return err
		}

		log.Info().Str("engine", cfg.DB.GormEngine).Msg("database migrated")

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}

		return sqlDB.Close()
	},
}
