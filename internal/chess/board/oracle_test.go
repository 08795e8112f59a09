package board

import (
	"math/rand"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

// Random playouts checked move-for-move against an independent generator.
func TestLegalMovesMatchReferenceLibrary(t *testing.T) {
	seeds := []int64{1, 7, 42, 1337, 2024}
	if testing.Short() {
		seeds = seeds[:2]
	}
	for _, seed := range seeds {
		rng := rand.New(rand.NewSource(seed))
		game := nchess.NewGame()
		p := StartingPosition()
		for ply := 0; ply < 120; ply++ {
			if game.Outcome() != nchess.NoOutcome {
				break
			}
			ours := LegalMoves(p)
			theirs := game.ValidMoves()
			if len(ours) != len(theirs) {
				t.Fatalf("seed %d ply %d %s: %d moves, reference has %d", seed, ply, p.FEN(), len(ours), len(theirs))
			}
			if len(ours) == 0 {
				break
			}
			m := ours[rng.Intn(len(ours))]
			if err := game.PushNotationMove(m.UCI(), nchess.UCINotation{}, nil); err != nil {
				t.Fatalf("seed %d ply %d: reference rejected %s: %v", seed, ply, m.UCI(), err)
			}
			next, err := Apply(p, m)
			if err != nil {
				t.Fatalf("seed %d ply %d: Apply(%s): %v", seed, ply, m.UCI(), err)
			}
			p = next
			if again, err := ParseFEN(p.FEN()); err != nil || again != p {
				t.Fatalf("seed %d ply %d: %s does not reparse to the same position (err %v)", seed, ply, p.FEN(), err)
			}
			if got, want := fenPrefix(p.FEN()), fenPrefix(game.FEN()); got != want {
				t.Fatalf("seed %d ply %d: fen %q, reference %q", seed, ply, got, want)
			}
		}
	}
}

// fenPrefix keeps placement, side to move and castling rights. Libraries
// disagree on when to print the en-passant square.
func fenPrefix(fen string) string {
	f := strings.Fields(fen)
	if len(f) < 3 {
		return fen
	}
	return strings.Join(f[:3], " ")
}
