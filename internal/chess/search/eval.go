package search

import "github.com/park285/wager-chess/internal/chess/board"

// Piece values in centipawns.
var pieceValue = [...]int{
	board.NoKind: 0,
	board.Pawn:   100,
	board.Knight: 320,
	board.Bishop: 330,
	board.Rook:   500,
	board.Queen:  900,
	board.King:   0,
}

// pawnTable is indexed by square from white's side; black mirrors ranks.
var pawnTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// Evaluate scores a quiet position from white's point of view.
func Evaluate(p board.Position) int {
	return evaluate(board.NewScratch(p))
}

func evaluate(s *board.Scratch) int {
	score := 0
	heavy := false
	var minors [2]int
	for sq := board.Square(0); sq < 64; sq++ {
		pc := s.PieceAt(sq)
		if pc.IsZero() {
			continue
		}
		v := pieceValue[pc.Kind]
		switch pc.Kind {
		case board.Pawn:
			heavy = true
			idx := int(sq)
			if pc.Color == board.Black {
				idx = int(board.NewSquare(sq.File(), 7-sq.Rank()))
			}
			v += pawnTable[idx]
		case board.Rook, board.Queen:
			heavy = true
		case board.Knight, board.Bishop:
			minors[pc.Color]++
		}
		if pc.Color == board.White {
			score += v
		} else {
			score -= v
		}
	}
	if !heavy && minors[board.White] <= 1 && minors[board.Black] <= 1 {
		return 0
	}
	return score
}
