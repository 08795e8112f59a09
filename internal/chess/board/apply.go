package board

// undo carries the irreversible fields a move overwrites.
type undo struct {
	castling CastlingRights
	ep       Square
	halfmove int
	fullmove int
}

// Apply plays m on p and returns the successor. m is matched against the
// legal moves by From, To and Promotion, so callers may pass a bare
// Move{From, To}; a promoting move without a kind promotes to a queen.
func Apply(p Position, m Move) (Position, error) {
	legal, err := Resolve(p, m.From, m.To, m.Promotion)
	if err != nil {
		return p, err
	}
	next := p
	next.make(legal)
	return next, nil
}

// make assumes m is pseudo-legal in p.
func (p *Position) make(m Move) undo {
	u := undo{castling: p.castling, ep: p.ep, halfmove: p.halfmove, fullmove: p.fullmove}
	us := p.turn
	rank := m.From.Rank()

	moving := m.Piece
	p.squares[m.From] = Piece{}
	switch m.Flag {
	case FlagEnPassant:
		p.squares[NewSquare(m.To.File(), rank)] = Piece{}
	case FlagCastleKingside:
		p.squares[NewSquare(5, rank)] = p.squares[NewSquare(7, rank)]
		p.squares[NewSquare(7, rank)] = Piece{}
	case FlagCastleQueenside:
		p.squares[NewSquare(3, rank)] = p.squares[NewSquare(0, rank)]
		p.squares[NewSquare(0, rank)] = Piece{}
	}
	if m.Promotion != NoKind {
		moving = Piece{Kind: m.Promotion, Color: us}
	}
	p.squares[m.To] = moving

	p.castling &^= castleMask[m.From] | castleMask[m.To]

	p.ep = NoSquare
	if m.Piece.Kind == Pawn {
		if d := m.To.Rank() - rank; d == 2 || d == -2 {
			p.ep = NewSquare(m.From.File(), rank+d/2)
		}
	}

	if m.Piece.Kind == Pawn || m.IsCapture() {
		p.halfmove = 0
	} else {
		p.halfmove++
	}
	if us == Black {
		p.fullmove++
	}
	p.turn = us.Other()
	return u
}

func (p *Position) unmake(m Move, u undo) {
	p.turn = p.turn.Other()
	rank := m.From.Rank()

	p.squares[m.From] = m.Piece
	switch m.Flag {
	case FlagEnPassant:
		p.squares[m.To] = Piece{}
		p.squares[NewSquare(m.To.File(), rank)] = m.Captured
	case FlagCastleKingside:
		p.squares[m.To] = Piece{}
		p.squares[NewSquare(7, rank)] = p.squares[NewSquare(5, rank)]
		p.squares[NewSquare(5, rank)] = Piece{}
	case FlagCastleQueenside:
		p.squares[m.To] = Piece{}
		p.squares[NewSquare(0, rank)] = p.squares[NewSquare(3, rank)]
		p.squares[NewSquare(3, rank)] = Piece{}
	default:
		p.squares[m.To] = m.Captured
	}

	p.castling = u.castling
	p.ep = u.ep
	p.halfmove = u.halfmove
	p.fullmove = u.fullmove
}
