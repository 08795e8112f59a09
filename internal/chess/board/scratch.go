package board

// Scratch is a mutable working board for tree search. Push and Pop make and
// unmake moves in place; the Position it was built from is never touched.
// A Scratch must not be shared between goroutines.
type Scratch struct {
	pos   Position
	moves []Move
	undos []undo
}

func NewScratch(p Position) *Scratch {
	return &Scratch{
		pos:   p,
		moves: make([]Move, 0, 32),
		undos: make([]undo, 0, 32),
	}
}

// Position returns a copy of the current working position.
func (s *Scratch) Position() Position { return s.pos }

func (s *Scratch) Turn() Color { return s.pos.turn }
func (s *Scratch) Ply() int    { return len(s.moves) }

// PieceAt indexes the working board directly; sq must be valid.
func (s *Scratch) PieceAt(sq Square) Piece { return s.pos.squares[sq] }

// LegalMoves appends the legal moves of the working position into buf[:0].
func (s *Scratch) LegalMoves(buf []Move) []Move {
	return s.pos.legalMoves(buf)
}

func (s *Scratch) InCheck() bool {
	return s.pos.attacked(s.pos.KingSquare(s.pos.turn), s.pos.turn.Other())
}

// Push plays m, which must come from LegalMoves of the working position.
func (s *Scratch) Push(m Move) {
	u := s.pos.make(m)
	s.moves = append(s.moves, m)
	s.undos = append(s.undos, u)
}

// Pop takes back the last pushed move. It reports false when nothing was
// pushed.
func (s *Scratch) Pop() bool {
	n := len(s.moves)
	if n == 0 {
		return false
	}
	s.pos.unmake(s.moves[n-1], s.undos[n-1])
	s.moves = s.moves[:n-1]
	s.undos = s.undos[:n-1]
	return true
}

// Perft counts leaf nodes of the legal move tree to the given depth.
func Perft(p Position, depth int) int64 {
	if depth <= 0 {
		return 1
	}
	s := NewScratch(p)
	bufs := make([][]Move, depth)
	for i := range bufs {
		bufs[i] = make([]Move, 0, 64)
	}
	return s.perft(depth, bufs)
}

func (s *Scratch) perft(depth int, bufs [][]Move) int64 {
	moves := s.LegalMoves(bufs[depth-1])
	bufs[depth-1] = moves
	if depth == 1 {
		return int64(len(moves))
	}
	var n int64
	for _, m := range moves {
		s.Push(m)
		n += s.perft(depth-1, bufs)
		s.Pop()
	}
	return n
}
