package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/config"
	"github.com/park285/wager-chess/internal/matchbuilder"
	"github.com/park285/wager-chess/internal/msgcat"
	"github.com/park285/wager-chess/internal/wallet"
)

func TestRenderBoard(t *testing.T) {
	pos := board.StartingPosition()
	white := strings.Split(renderBoard(pos, board.White), "\n")
	if white[0] != "8  r n b q k b n r" || white[7] != "1  R N B Q K B N R" || white[8] != "   a b c d e f g h" {
		t.Fatalf("white view:\n%s", strings.Join(white, "\n"))
	}
	black := strings.Split(renderBoard(pos, board.Black), "\n")
	if black[0] != "1  R N B K Q B N R" || black[8] != "   h g f e d c b a" {
		t.Fatalf("black view:\n%s", strings.Join(black, "\n"))
	}
}

func TestPerftCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"perft", "--depth", "2", "--divide"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("perft: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "nodes 400 (depth 2") {
		t.Fatalf("output:\n%s", got)
	}
	if !strings.Contains(got, "e2e4: 20") {
		t.Fatalf("divide line missing:\n%s", got)
	}
}

func newPlayDeps(t *testing.T) (*matchbuilder.Deps, *msgcat.Catalog) {
	t.Helper()
	deps, err := matchbuilder.New(context.Background(), &config.AppConfig{
		HouseAccountID:         "house",
		ChessDefaultDifficulty: "easy",
		SearchWorkers:          1,
		MatchTTL:               time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("matchbuilder.New: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return deps, cat
}

func TestRunPlayResign(t *testing.T) {
	deps, cat := newPlayDeps(t)
	opts := playOptions{Player: "you", House: "house", Color: board.White, Stake: 10, Balance: 100}
	in := strings.NewReader("e2e5\nmoves g1\ne2e4\nresign\n")
	var out bytes.Buffer
	if err := runPlay(context.Background(), deps, cat, opts, in, &out); err != nil {
		t.Fatalf("runPlay: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"That move is not legal here.",
		"Nf3",
		"you plays e4.",
		"Computer plays",
		"you resigns. house wins.",
		"house receives 20",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	mem := deps.Wallet.(*wallet.Memory)
	if n, _ := mem.Balance(context.Background(), "you"); n != 90 {
		t.Fatalf("player balance = %d, want 90", n)
	}
	if n, _ := mem.Balance(context.Background(), "house"); n != 110 {
		t.Fatalf("house balance = %d, want 110", n)
	}
}

func TestRunPlayEOFResigns(t *testing.T) {
	deps, cat := newPlayDeps(t)
	opts := playOptions{Player: "you", House: "house", Color: board.Black, Stake: 5, Balance: 50}
	var out bytes.Buffer
	if err := runPlay(context.Background(), deps, cat, opts, strings.NewReader(""), &out); err != nil {
		t.Fatalf("runPlay: %v", err)
	}
	if !strings.Contains(out.String(), "you resigns. house wins.") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestRunPlayInsufficientFunds(t *testing.T) {
	deps, cat := newPlayDeps(t)
	opts := playOptions{Player: "you", House: "house", Color: board.White, Stake: 500, Balance: 100}
	err := runPlay(context.Background(), deps, cat, opts, strings.NewReader(""), &bytes.Buffer{})
	if err == nil || err.Error() != "Not enough coins for that stake." {
		t.Fatalf("err = %v", err)
	}
}

func TestPresetsCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"presets"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("presets: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		"  easy     depth 2 movetime 1000 nodes 50000",
		"* medium   depth 3 movetime 3000 nodes 400000",
		"  hard     depth 4 movetime 8000 nodes 3000000",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("output:\n%s", out.String())
	}
}
