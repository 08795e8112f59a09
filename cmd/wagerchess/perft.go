package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/park285/wager-chess/internal/chess/board"
)

var perftCmd = &cobra.Command{
	Use:   "perft",
	Short: "Count leaf nodes of the move tree to a fixed depth",
	RunE: func(cmd *cobra.Command, args []string) error {
		fen, _ := cmd.Flags().GetString("fen")
		depth, _ := cmd.Flags().GetInt("depth")
		divide, _ := cmd.Flags().GetBool("divide")
		if depth < 1 {
			return fmt.Errorf("depth must be at least 1")
		}
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		start := time.Now()
		var total int64
		if divide {
			lines := make([]string, 0, 48)
			for _, m := range board.LegalMoves(pos) {
				next, err := board.Apply(pos, m)
				if err != nil {
					return err
				}
				n := board.Perft(next, depth-1)
				total += n
				lines = append(lines, fmt.Sprintf("%s: %d", m.UCI(), n))
			}
			sort.Strings(lines)
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
		} else {
			total = board.Perft(pos, depth)
		}
		fmt.Fprintf(out, "nodes %d (depth %d, %s)\n", total, depth, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	perftCmd.Flags().String("fen", board.StartFEN, "position to count from")
	perftCmd.Flags().Int("depth", 4, "search depth in plies")
	perftCmd.Flags().Bool("divide", false, "print counts per root move")
	rootCmd.AddCommand(perftCmd)
}
