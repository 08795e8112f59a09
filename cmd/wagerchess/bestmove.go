package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/park285/wager-chess/internal/chess"
	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/chess/notation"
	"github.com/park285/wager-chess/internal/obslog"
)

var bestmoveCmd = &cobra.Command{
	Use:   "bestmove",
	Short: "Ask the computer opponent for its move in a position",
	RunE: func(cmd *cobra.Command, args []string) error {
		fen, _ := cmd.Flags().GetString("fen")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return err
		}

		eng := chess.NewEngine(chess.EngineConfig{Workers: 1, Logger: obslog.L()})
		defer eng.Close()
		res, err := eng.Choose(cmd.Context(), chess.ChooseRequest{PresetName: difficulty, Position: pos})
		if err != nil {
			return err
		}
		san, err := notation.SAN(pos, res.Move)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bestmove %s (%s)\n", res.Move.UCI(), san)
		fmt.Fprintf(out, "preset %s score %d depth %d nodes %d time %s",
			res.Preset.Name, res.Score, res.Depth, res.Nodes, res.Duration)
		if res.TimedOut {
			fmt.Fprint(out, " timed-out")
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	bestmoveCmd.Flags().String("fen", board.StartFEN, "position to search")
	bestmoveCmd.Flags().String("difficulty", "medium", "preset name (easy, medium, hard or an alias)")
	rootCmd.AddCommand(bestmoveCmd)
}
