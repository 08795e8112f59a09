// Package notation renders moves in standard algebraic notation for move
// lists and archive records.
package notation

import (
	"errors"
	"fmt"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/wager-chess/internal/chess/board"
)

var ErrNotation = errors.New("notation")

// SAN renders m, legal in p, as e.g. "Nf3", "exd6", "O-O" or "e8=Q+".
func SAN(p board.Position, m board.Move) (string, error) {
	game, err := gameAt(p)
	if err != nil {
		return "", err
	}
	pos := game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, m.UCI())
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", ErrNotation, m.UCI(), err)
	}
	return nchess.AlgebraicNotation{}.Encode(pos, mv), nil
}

// SANLine renders a sequence of moves starting at p. It stops at the first
// move that does not apply.
func SANLine(p board.Position, moves []board.Move) ([]string, error) {
	game, err := gameAt(p)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		pos := game.Position()
		mv, err := nchess.UCINotation{}.Decode(pos, m.UCI())
		if err != nil {
			return out, fmt.Errorf("%w: decode %s: %v", ErrNotation, m.UCI(), err)
		}
		out = append(out, nchess.AlgebraicNotation{}.Encode(pos, mv))
		if err := game.Move(mv, nil); err != nil {
			return out, fmt.Errorf("%w: play %s: %v", ErrNotation, m.UCI(), err)
		}
	}
	return out, nil
}

// ParseSAN resolves algebraic text such as "Nbd2" against p.
func ParseSAN(p board.Position, text string) (board.Move, error) {
	game, err := gameAt(p)
	if err != nil {
		return board.Move{}, err
	}
	mv, err := nchess.AlgebraicNotation{}.Decode(game.Position(), text)
	if err != nil {
		return board.Move{}, fmt.Errorf("%w: %v", board.ErrIllegalMove, err)
	}
	return board.ParseUCI(p, nchess.UCINotation{}.Encode(game.Position(), mv))
}

func gameAt(p board.Position) (*nchess.Game, error) {
	opt, err := nchess.FEN(p.FEN())
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrNotation, p.FEN(), err)
	}
	return nchess.NewGame(opt), nil
}
