package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is an immutable-by-convention snapshot. It is a comparable value:
// copying it is cheap and two positions are == when every field matches.
type Position struct {
	squares  [64]Piece
	turn     Color
	castling CastlingRights
	ep       Square
	halfmove int
	fullmove int
}

// StartingPosition returns the standard initial setup.
func StartingPosition() Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Position) PieceAt(sq Square) Piece {
	if !sq.Valid() {
		return Piece{}
	}
	return p.squares[sq]
}

func (p Position) Turn() Color              { return p.turn }
func (p Position) Castling() CastlingRights { return p.castling }
func (p Position) HalfmoveClock() int       { return p.halfmove }
func (p Position) FullmoveNumber() int      { return p.fullmove }

// EnPassant returns the en-passant target square, if any.
func (p Position) EnPassant() (Square, bool) {
	return p.ep, p.ep != NoSquare
}

// KingSquare returns NoSquare when c has no king on the board.
func (p Position) KingSquare(c Color) Square {
	king := Piece{Kind: King, Color: c}
	for sq := Square(0); sq < 64; sq++ {
		if p.squares[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// ParseFEN decodes Forsyth-Edwards notation. The clock fields may be omitted
// and default to "0 1".
func ParseFEN(fen string) (Position, error) {
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return Position{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	var p Position
	p.ep = NoSquare

	rows := strings.Split(fields[0], "/")
	if len(rows) != 8 {
		return Position{}, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(rows))
	}
	for i, row := range rows {
		rank, file := 7-i, 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece, ok := pieceFromFEN(c)
			if !ok {
				return Position{}, fmt.Errorf("%w: bad piece %q", ErrInvalidFEN, c)
			}
			if file > 7 {
				return Position{}, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
			}
			p.squares[NewSquare(file, rank)] = piece
			file++
		}
		if file != 8 {
			return Position{}, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, rank+1, file)
		}
	}

	switch fields[1] {
	case "w":
		p.turn = White
	case "b":
		p.turn = Black
	default:
		return Position{}, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, fields[1])
	}

	if fields[2] != "-" {
		for _, c := range fields[2] {
			var r CastlingRights
			switch c {
			case 'K':
				r = WhiteKingside
			case 'Q':
				r = WhiteQueenside
			case 'k':
				r = BlackKingside
			case 'q':
				r = BlackQueenside
			default:
				return Position{}, fmt.Errorf("%w: bad castling field %q", ErrInvalidFEN, fields[2])
			}
			if p.castling.Has(r) {
				return Position{}, fmt.Errorf("%w: repeated castling right %q", ErrInvalidFEN, c)
			}
			p.castling |= r
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Position{}, fmt.Errorf("%w: bad en-passant square %q", ErrInvalidFEN, fields[3])
		}
		wantRank, dir := 5, 1
		if p.turn == Black {
			wantRank, dir = 2, -1
		}
		if sq.Rank() != wantRank {
			return Position{}, fmt.Errorf("%w: en-passant square %s on wrong rank", ErrInvalidFEN, sq)
		}
		// The pawn that just moved two squares must be in front of the
		// target, with the target and its start square empty.
		start, _ := sq.offset(0, dir)
		landed, _ := sq.offset(0, -dir)
		if !p.squares[sq].IsZero() || !p.squares[start].IsZero() ||
			p.squares[landed] != (Piece{Kind: Pawn, Color: p.turn.Other()}) {
			return Position{}, fmt.Errorf("%w: no double-pushed pawn behind en-passant square %s", ErrInvalidFEN, sq)
		}
		p.ep = sq
	}

	half, err := strconv.Atoi(fields[4])
	if err != nil || half < 0 {
		return Position{}, fmt.Errorf("%w: bad halfmove clock %q", ErrInvalidFEN, fields[4])
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return Position{}, fmt.Errorf("%w: bad fullmove number %q", ErrInvalidFEN, fields[5])
	}
	p.halfmove, p.fullmove = half, full

	if err := p.validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

func (p *Position) validate() error {
	var kings [2]int
	for sq := Square(0); sq < 64; sq++ {
		pc := p.squares[sq]
		if pc.Kind == King {
			kings[pc.Color]++
		}
		if pc.Kind == Pawn && (sq.Rank() == 0 || sq.Rank() == 7) {
			return fmt.Errorf("%w: pawn on back rank %s", ErrInvalidFEN, sq)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}

	rook := func(c Color) Piece { return Piece{Kind: Rook, Color: c} }
	king := func(c Color) Piece { return Piece{Kind: King, Color: c} }
	checks := []struct {
		right  CastlingRights
		kingSq Square
		rookSq Square
		color  Color
	}{
		{WhiteKingside, E1, H1, White},
		{WhiteQueenside, E1, A1, White},
		{BlackKingside, E8, H8, Black},
		{BlackQueenside, E8, A8, Black},
	}
	for _, c := range checks {
		if !p.castling.Has(c.right) {
			continue
		}
		if p.squares[c.kingSq] != king(c.color) || p.squares[c.rookSq] != rook(c.color) {
			return fmt.Errorf("%w: castling right %s without king and rook at home", ErrInvalidFEN, c.right)
		}
	}

	them := p.turn.Other()
	if p.attacked(p.KingSquare(them), p.turn) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}
	return nil
}

// FEN encodes the position. ParseFEN(p.FEN()) == p for every valid p.
func (p Position) FEN() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.squares[NewSquare(file, rank)]
			if pc.IsZero() {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(pc.fenByte())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}
	b.WriteByte(' ')
	if p.turn == White {
		b.WriteByte('w')
	} else {
		b.WriteByte('b')
	}
	b.WriteByte(' ')
	b.WriteString(p.castling.String())
	b.WriteByte(' ')
	b.WriteString(p.ep.String())
	fmt.Fprintf(&b, " %d %d", p.halfmove, p.fullmove)
	return b.String()
}

func (p Position) String() string { return p.FEN() }
