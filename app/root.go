// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/imaginify/usersync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "usersync",
	Short: "usersync keeps the application's users in sync with Clerk",
	Long: `usersync receives Clerk user lifecycle webhooks, verifies their Svix
signatures and applies them to the application's user table. It also serves
the Clerk sign-in pages and gates every other route behind a Clerk session.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	configPath string // Path to the configuration directory

	cfg config.Config
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory holding main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func readConfig() error {
	var err error

	cfg, err = config.ReadConfig(configPath)

	return err
}
