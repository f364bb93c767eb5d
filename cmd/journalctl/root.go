package main

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "journalctl",
		Short:   "Inspect and manage write-ahead journal files",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
	_ = viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newRollCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

func initConfig() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("journalctl: read config %s: %w", cfgFile, err)
	}
	applyConfig()

	// A config edit re-applies the file's log-level to logLevel. Each
	// subcommand builds its journal options once, when it opens its
	// journal, so an edit made while a command runs (watch included)
	// does not change that command's logger.
	viper.OnConfigChange(func(fsnotify.Event) { applyConfig() })
	viper.WatchConfig()
	return nil
}

func applyConfig() {
	if v := viper.GetString("log-level"); v != "" {
		logLevel = v
	}
}
