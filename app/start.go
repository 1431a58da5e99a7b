package app

import (
	"github.com/spf13/cobra"

	"github.com/imaginify/usersync/internal/daemon"
	"github.com/imaginify/usersync/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the usersync web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if err := readConfig(); err != nil {
				return err
			}

			if devMode {
				cfg.DevMode = true
			}

			return logger.Init(cfg.Log)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)
