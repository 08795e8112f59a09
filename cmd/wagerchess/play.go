package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/chess/notation"
	"github.com/park285/wager-chess/internal/match"
	"github.com/park285/wager-chess/internal/matchbuilder"
	"github.com/park285/wager-chess/internal/matchsvc"
	"github.com/park285/wager-chess/internal/msgcat"
	"github.com/park285/wager-chess/internal/obslog"
	"github.com/park285/wager-chess/internal/wallet"
	"github.com/park285/wager-chess/pkg/matchdto"
)

type playOptions struct {
	Player     string
	House      string
	Color      board.Color
	Stake      int64
	Balance    int64
	Difficulty string
	FEN        string
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a wagered match against the computer in the terminal",
	Long: `Play a match against the computer using in-process storage and wallet.

Enter moves in coordinate form (e2e4, e7e8q). Other commands:
  board         show the position
  moves [sq]    list legal moves, optionally from one square
  draw          offer a draw
  resign        give up the match
  quit          resign and exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		colorName, _ := cmd.Flags().GetString("color")
		color, err := board.ParseColor(colorName)
		if err != nil {
			return err
		}
		opts := playOptions{Player: "you", House: cfg.HouseAccountID, Color: color}
		opts.Stake, _ = cmd.Flags().GetInt64("stake")
		opts.Balance, _ = cmd.Flags().GetInt64("balance")
		opts.Difficulty, _ = cmd.Flags().GetString("difficulty")
		opts.FEN, _ = cmd.Flags().GetString("fen")

		local := *cfg
		local.RedisURL, local.DatabaseURL, local.SQLitePath = "", "", ""
		local.WalletURL, local.EventsWSURL = "", ""
		// info logs would interleave with the board on stdout
		quiet := obslog.L().WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
		deps, err := matchbuilder.New(cmd.Context(), &local, quiet)
		if err != nil {
			return err
		}
		defer deps.Close()

		cat, err := msgcat.New(cfg.MessagesDir)
		if err != nil {
			return err
		}
		return runPlay(cmd.Context(), deps, cat, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	playCmd.Flags().String("color", "white", "side you play")
	playCmd.Flags().Int64("stake", 10, "coins each side puts in the pot")
	playCmd.Flags().Int64("balance", 100, "starting coins for you and the house")
	playCmd.Flags().String("difficulty", "", "computer preset (default from config)")
	playCmd.Flags().String("fen", "", "start from this position instead of the initial one")
	rootCmd.AddCommand(playCmd)
}

func runPlay(ctx context.Context, deps *matchbuilder.Deps, cat *msgcat.Catalog, opts playOptions, in io.Reader, out io.Writer) error {
	if mem, ok := deps.Wallet.(*wallet.Memory); ok {
		mem.Deposit(opts.Player, opts.Balance)
		mem.Deposit(opts.House, opts.Balance)
	}
	svc := deps.Service

	computer := opts.Color.Other()
	req := matchsvc.CreateRequest{Computer: &computer, Stake: opts.Stake, Difficulty: opts.Difficulty, FEN: opts.FEN}
	if opts.Color == board.White {
		req.White = opts.Player
	} else {
		req.Black = opts.Player
	}
	res, err := svc.CreateMatch(ctx, req)
	if err != nil {
		return fmt.Errorf("%s", describeError(cat, err))
	}
	sess := res.Session
	id := sess.ID
	fmt.Fprintln(out, cat.RenderOr("match.created", map[string]any{
		"ID": id, "White": sess.White.ID, "Black": sess.Black.ID, "Pot": sess.Pot,
	}, "Match "+id+" started."))
	fmt.Fprint(out, renderBoard(sess.Current(), opts.Color))

	lines := bufio.NewScanner(in)
	for {
		if sess.Status.Terminal() {
			printOutcome(out, cat, res)
			return nil
		}
		if sess.Turn() == computer {
			res, err = svc.RequestAIMove(ctx, id)
			if err != nil {
				return fmt.Errorf("%s", describeError(cat, err))
			}
			sess = res.Session
			if res.Search != nil {
				fmt.Fprintln(out, cat.RenderOr("match.computer_move", map[string]any{
					"SAN": res.Event.LastSAN, "UCI": res.Search.Move.UCI(), "Nodes": res.Search.Nodes,
					"Depth": res.Search.Depth, "TimedOut": res.Search.TimedOut,
				}, "Computer plays "+res.Event.LastSAN+"."))
			}
			fmt.Fprint(out, renderBoard(sess.Current(), opts.Color))
			continue
		}

		fmt.Fprintln(out, cat.RenderOr("match.turn", map[string]any{
			"Turn": sess.Turn().String(), "InCheck": sess.InCheck,
		}, "Your move."))
		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			fmt.Fprintln(out)
			res, err = svc.Resign(ctx, id, opts.Player)
			if err != nil {
				return fmt.Errorf("%s", describeError(cat, err))
			}
			sess = res.Session
			continue
		}
		fields := strings.Fields(lines.Text())
		if len(fields) == 0 {
			continue
		}

		var next matchsvc.Result
		switch strings.ToLower(fields[0]) {
		case "board":
			fmt.Fprint(out, renderBoard(sess.Current(), opts.Color))
			continue
		case "moves":
			listMoves(ctx, out, cat, svc, sess, fields[1:])
			continue
		case "draw":
			next, err = svc.OfferDraw(ctx, id, opts.Player)
			if err == nil {
				fmt.Fprintln(out, cat.RenderOr("match.draw_declined", nil, "Draw declined."))
			}
		case "resign", "quit":
			next, err = svc.Resign(ctx, id, opts.Player)
		default:
			var mr matchdto.MoveRequest
			mr, err = matchdto.ParseMoveRequest(fields[0])
			if err == nil {
				var sreq matchsvc.MoveRequest
				if sreq, err = mr.ToService(); err == nil {
					next, err = svc.SubmitMove(ctx, id, opts.Player, sreq)
				}
			}
			if err == nil {
				fmt.Fprintln(out, cat.RenderOr("match.player_move", map[string]any{
					"Player": opts.Player, "SAN": next.Event.LastSAN,
				}, next.Event.LastSAN))
			}
		}
		if err != nil {
			fmt.Fprintln(out, describeError(cat, err))
			continue
		}
		res, sess = next, next.Session
	}
}

func listMoves(ctx context.Context, out io.Writer, cat *msgcat.Catalog, svc *matchsvc.Service, sess *match.Session, args []string) {
	from := board.NoSquare
	if len(args) > 0 {
		sq, err := board.ParseSquare(args[0])
		if err != nil {
			fmt.Fprintln(out, describeError(cat, err))
			return
		}
		from = sq
	}
	moves, err := svc.LegalMoves(ctx, sess.ID, from)
	if err != nil {
		fmt.Fprintln(out, describeError(cat, err))
		return
	}
	names := make([]string, 0, len(moves))
	for _, m := range moves {
		s, err := notation.SAN(sess.Current(), m)
		if err != nil {
			s = m.UCI()
		}
		names = append(names, s)
	}
	fmt.Fprintln(out, strings.Join(names, " "))
}

func printOutcome(out io.Writer, cat *msgcat.Catalog, res matchsvc.Result) {
	sess := res.Session
	o := sess.Outcome
	data := map[string]any{}
	if o.Decisive() {
		data["Winner"] = sess.Player(o.Winner).ID
		data["Loser"] = sess.Player(o.Winner.Other()).ID
	}
	fmt.Fprint(out, renderBoard(sess.Current(), board.White))
	fmt.Fprintln(out, cat.RenderOr("outcome."+string(o.Kind), data, o.String()))
	if res.SettlementPending {
		fmt.Fprintln(out, cat.RenderOr("settlement.pending", nil, "Settlement pending."))
		return
	}
	for _, c := range sess.Settlement {
		fmt.Fprintln(out, cat.RenderOr("settlement.line", map[string]any{"Player": c.Player, "Amount": c.Amount},
			fmt.Sprintf("  %s receives %d", c.Player, c.Amount)))
	}
}

// describeError turns a service error into a catalog message keyed by its
// stable code.
func describeError(cat *msgcat.Catalog, err error) string {
	de := matchdto.FromError(err)
	if s, rerr := cat.Render("error."+de.Code, nil); rerr == nil {
		return s
	}
	return cat.RenderOr("error.default", map[string]any{"Message": de.Message}, de.Message)
}
