// Package board holds the chess rules: positions, move generation, move
// application and the draw/checkmate predicates. Everything here is a pure
// function of a Position value; nothing is shared between calls.
package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidFEN    = errors.New("invalid FEN")
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidMove   = errors.New("invalid move text")
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

// PieceKind is the type of a piece. NoKind marks an empty square or an
// absent promotion.
type PieceKind uint8

const (
	NoKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}
var kindLetters = [...]byte{0, 'p', 'n', 'b', 'r', 'q', 'k'}

func (k PieceKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Letter returns the lower-case FEN/UCI letter of the kind.
func (k PieceKind) Letter() byte {
	if int(k) < len(kindLetters) {
		return kindLetters[k]
	}
	return 0
}

// ParsePieceKind accepts a letter ("q") or a name ("queen") in any case.
// The empty string parses to NoKind.
func ParsePieceKind(s string) (PieceKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return NoKind, nil
	}
	for k := Pawn; k <= King; k++ {
		if v == kindNames[k] || (len(v) == 1 && v[0] == kindLetters[k]) {
			return k, nil
		}
	}
	return NoKind, fmt.Errorf("unknown piece kind %q", s)
}

// Piece is a coloured piece. The zero value is an empty square.
type Piece struct {
	Kind  PieceKind
	Color Color
}

func (p Piece) IsZero() bool { return p.Kind == NoKind }

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

func (p Piece) fenByte() byte {
	b := p.Kind.Letter()
	if p.Color == White {
		b -= 'a' - 'A'
	}
	return b
}

func pieceFromFEN(b byte) (Piece, bool) {
	color := Black
	if b >= 'A' && b <= 'Z' {
		color = White
		b += 'a' - 'A'
	}
	for k := Pawn; k <= King; k++ {
		if kindLetters[k] == b {
			return Piece{Kind: k, Color: color}, true
		}
	}
	return Piece{}, false
}

// Square is rank*8+file, a1 = 0, h8 = 63.
type Square int8

const NoSquare Square = -1

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
)

const (
	A8 Square = iota + 56
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

func NewSquare(file, rank int) Square { return Square(rank*8 + file) }

func (s Square) File() int   { return int(s) % 8 }
func (s Square) Rank() int   { return int(s) / 8 }
func (s Square) Valid() bool { return s >= 0 && s < 64 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

func ParseSquare(s string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return NewSquare(int(v[0]-'a'), int(v[1]-'1')), nil
}

// offset steps df files and dr ranks away from s.
func (s Square) offset(df, dr int) (Square, bool) {
	f, r := s.File()+df, s.Rank()+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

// CastlingRights is a set of the four castling flags.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

func (c CastlingRights) Has(r CastlingRights) bool { return c&r == r }

func (c CastlingRights) String() string {
	if c == NoCastling {
		return "-"
	}
	var b strings.Builder
	if c.Has(WhiteKingside) {
		b.WriteByte('K')
	}
	if c.Has(WhiteQueenside) {
		b.WriteByte('Q')
	}
	if c.Has(BlackKingside) {
		b.WriteByte('k')
	}
	if c.Has(BlackQueenside) {
		b.WriteByte('q')
	}
	return b.String()
}

// castleMask[sq] lists the rights lost when a piece leaves or lands on sq.
var castleMask = func() [64]CastlingRights {
	var m [64]CastlingRights
	m[A1] = WhiteQueenside
	m[E1] = WhiteKingside | WhiteQueenside
	m[H1] = WhiteKingside
	m[A8] = BlackQueenside
	m[E8] = BlackKingside | BlackQueenside
	m[H8] = BlackKingside
	return m
}()
