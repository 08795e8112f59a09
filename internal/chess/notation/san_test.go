package notation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/wager-chess/internal/chess/board"
)

func moves(t *testing.T, p board.Position, uci ...string) []board.Move {
	t.Helper()
	out := make([]board.Move, 0, len(uci))
	for _, s := range uci {
		m, err := board.ParseUCI(p, s)
		if err != nil {
			t.Fatalf("ParseUCI(%s): %v", s, err)
		}
		out = append(out, m)
		p, err = board.Apply(p, m)
		if err != nil {
			t.Fatalf("Apply(%s): %v", s, err)
		}
	}
	return out
}

func TestSANLineFoolsMate(t *testing.T) {
	start := board.StartingPosition()
	got, err := SANLine(start, moves(t, start, "f2f3", "e7e5", "g2g4", "d8h4"))
	if err != nil {
		t.Fatalf("SANLine: %v", err)
	}
	want := []string{"f3", "e5", "g4", "Qh4#"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("SANLine mismatch (-want +got):\n%s", diff)
	}
}

func TestSANCastle(t *testing.T) {
	p, err := board.ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m, err := board.ParseUCI(p, "e1g1")
	if err != nil {
		t.Fatalf("ParseUCI: %v", err)
	}
	san, err := SAN(p, m)
	if err != nil {
		t.Fatalf("SAN: %v", err)
	}
	if san != "O-O" {
		t.Fatalf("SAN = %q, want O-O", san)
	}
}

func TestParseSAN(t *testing.T) {
	m, err := ParseSAN(board.StartingPosition(), "Nf3")
	if err != nil {
		t.Fatalf("ParseSAN: %v", err)
	}
	if m.UCI() != "g1f3" {
		t.Fatalf("ParseSAN(Nf3) = %s", m.UCI())
	}
	if _, err := ParseSAN(board.StartingPosition(), "Ke2"); !errors.Is(err, board.ErrIllegalMove) {
		t.Fatalf("illegal SAN err = %v", err)
	}
}
