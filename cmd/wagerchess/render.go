package main

import (
	"strings"

	"github.com/park285/wager-chess/internal/chess/board"
)

// renderBoard draws pos as text with the given side at the bottom.
// White pieces are upper case, empty squares are dots.
func renderBoard(pos board.Position, bottom board.Color) string {
	var b strings.Builder
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if bottom == board.Black {
			rank = row
		}
		b.WriteByte(byte('1' + rank))
		b.WriteString(" ")
		for col := 0; col < 8; col++ {
			file := col
			if bottom == board.Black {
				file = 7 - col
			}
			b.WriteByte(' ')
			b.WriteByte(pieceGlyph(pos.PieceAt(board.NewSquare(file, rank))))
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	for col := 0; col < 8; col++ {
		file := col
		if bottom == board.Black {
			file = 7 - col
		}
		b.WriteByte(' ')
		b.WriteByte(byte('a' + file))
	}
	b.WriteByte('\n')
	return b.String()
}

func pieceGlyph(p board.Piece) byte {
	if p.IsZero() {
		return '.'
	}
	c := p.Kind.Letter()
	if p.Color == board.White {
		c -= 'a' - 'A'
	}
	return c
}
