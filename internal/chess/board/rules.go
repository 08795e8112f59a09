package board

// IsInCheck reports whether c's king is attacked.
func IsInCheck(p Position, c Color) bool {
	return p.attacked(p.KingSquare(c), c.Other())
}

func IsCheckmate(p Position) bool {
	return IsInCheck(p, p.turn) && !HasLegalMoves(p)
}

func IsStalemate(p Position) bool {
	return !IsInCheck(p, p.turn) && !HasLegalMoves(p)
}

// IsInsufficientMaterial is true when neither side has a pawn, rook or queen
// and each side holds at most one minor piece.
func IsInsufficientMaterial(p Position) bool {
	var minors [2]int
	for _, pc := range p.squares {
		switch pc.Kind {
		case Pawn, Rook, Queen:
			return false
		case Knight, Bishop:
			minors[pc.Color]++
			if minors[pc.Color] > 1 {
				return false
			}
		}
	}
	return true
}

// RepetitionKey identifies a position for repetition counting. Move counters
// are excluded.
type RepetitionKey struct {
	squares  [64]Piece
	turn     Color
	castling CastlingRights
	ep       Square
}

// RepetitionKey drops the en-passant square unless the side to move has a
// legal en-passant capture onto it.
func (p Position) RepetitionKey() RepetitionKey {
	k := RepetitionKey{squares: p.squares, turn: p.turn, castling: p.castling, ep: NoSquare}
	if p.ep != NoSquare && p.epCapturable() {
		k.ep = p.ep
	}
	return k
}

func (p Position) epCapturable() bool {
	dir := 1
	if p.turn == Black {
		dir = -1
	}
	pawn := Piece{Kind: Pawn, Color: p.turn}
	for _, df := range [2]int{-1, 1} {
		from, ok := p.ep.offset(df, -dir)
		if !ok || p.squares[from] != pawn {
			continue
		}
		m := Move{From: from, To: p.ep, Piece: pawn, Captured: Piece{Kind: Pawn, Color: p.turn.Other()}, Flag: FlagEnPassant}
		q := p
		q.make(m)
		if !q.attacked(q.KingSquare(p.turn), p.turn.Other()) {
			return true
		}
	}
	return false
}

// IsThreefoldRepetition reports whether any position occurs at least three
// times in history.
func IsThreefoldRepetition(history []Position) bool {
	seen := make(map[RepetitionKey]int, len(history))
	for _, p := range history {
		k := p.RepetitionKey()
		seen[k]++
		if seen[k] >= 3 {
			return true
		}
	}
	return false
}
