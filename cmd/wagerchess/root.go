package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/park285/wager-chess/internal/config"
	"github.com/park285/wager-chess/internal/obslog"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "wagerchess",
	Short:         "Wagered chess matches against people or the computer",
	Long:          "wagerchess runs wagered chess matches: coins are escrowed at the start and paid out when the game ends.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries command output
		o := obslog.OptionsFromEnv()
		o.ConsoleWriter = cmd.ErrOrStderr()
		return obslog.Init(o)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./wagerchess.yaml)")
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
