package board

import (
	"fmt"
	"strings"
)

// MoveFlag classifies a move. A capturing promotion carries FlagPromotion
// and a non-zero Captured.
type MoveFlag uint8

const (
	FlagNormal MoveFlag = iota
	FlagCapture
	FlagCastleKingside
	FlagCastleQueenside
	FlagEnPassant
	FlagPromotion
)

var flagNames = [...]string{"normal", "capture", "castle-kingside", "castle-queenside", "en-passant", "promotion"}

func (f MoveFlag) String() string {
	if int(f) < len(flagNames) {
		return flagNames[f]
	}
	return fmt.Sprintf("flag(%d)", uint8(f))
}

// Move is a plain value. Applied to the position it was generated from, it
// yields exactly one successor position.
type Move struct {
	From      Square
	To        Square
	Piece     Piece
	Captured  Piece
	Promotion PieceKind
	Flag      MoveFlag
}

func (m Move) IsCapture() bool   { return !m.Captured.IsZero() }
func (m Move) IsPromotion() bool { return m.Promotion != NoKind }
func (m Move) IsCastle() bool {
	return m.Flag == FlagCastleKingside || m.Flag == FlagCastleQueenside
}

// UCI renders the move in coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}

func (m Move) String() string { return m.UCI() }

// Resolve finds the legal move from -> to in p. A promotion kind of NoKind
// on a promoting move selects a queen; a promotion kind on a non-promoting
// move is rejected.
func Resolve(p Position, from, to Square, promotion PieceKind) (Move, error) {
	want := promotion
	for _, m := range LegalMoves(p) {
		if m.From != from || m.To != to {
			continue
		}
		if !m.IsPromotion() {
			if promotion != NoKind {
				break
			}
			return m, nil
		}
		if want == NoKind {
			want = Queen
		}
		if m.Promotion == want {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s%s%s", ErrIllegalMove, from, to, promoSuffix(promotion))
}

// ParseUCI decodes coordinate notation against p and returns the matching
// legal move.
func ParseUCI(p Position, text string) (Move, error) {
	v := strings.ToLower(strings.TrimSpace(text))
	if len(v) != 4 && len(v) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, text)
	}
	from, err := ParseSquare(v[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, text)
	}
	to, err := ParseSquare(v[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, text)
	}
	promo := NoKind
	if len(v) == 5 {
		promo, err = ParsePieceKind(v[4:])
		if err != nil || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, text)
		}
	}
	return Resolve(p, from, to, promo)
}

func promoSuffix(k PieceKind) string {
	if k == NoKind {
		return ""
	}
	return string(k.Letter())
}
