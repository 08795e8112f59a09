package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/park285/wager-chess/internal/chess"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the computer's difficulty presets and their search budgets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.ChessPresetFile != "" {
			if _, err := chess.LoadPresetFile(cfg.ChessPresetFile); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		for _, name := range chess.PresetNames() {
			p, err := chess.GetPreset(name)
			if err != nil {
				return err
			}
			limits, err := chess.FormatLimits(p)
			if err != nil {
				return err
			}
			marker := " "
			if name == cfg.ChessDefaultDifficulty {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-8s %s\n", marker, name, limits)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
