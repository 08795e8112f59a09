package board

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	bishopDirs  = [4][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	rookDirs    = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
)

var promotionOrder = [4]PieceKind{Queen, Rook, Bishop, Knight}

// LegalMoves returns every legal move for the side to move. The order is
// deterministic: origin squares a1..h8, then the generator's per-piece order,
// with promotions listed queen, rook, bishop, knight.
func LegalMoves(p Position) []Move {
	return p.legalMoves(make([]Move, 0, 48))
}

// LegalMovesFrom filters LegalMoves to the piece standing on from.
func LegalMovesFrom(p Position, from Square) []Move {
	all := LegalMoves(p)
	out := all[:0]
	for _, m := range all {
		if m.From == from {
			out = append(out, m)
		}
	}
	return out
}

// HasLegalMoves reports whether the side to move can move at all.
func HasLegalMoves(p Position) bool {
	return len(LegalMoves(p)) > 0
}

// legalMoves appends into buf[:0]. p is mutated during filtering and
// restored before returning.
func (p *Position) legalMoves(buf []Move) []Move {
	us := p.turn
	them := us.Other()
	king := p.KingSquare(us)

	pseudo := p.pseudoMoves(buf[:0])
	legal := pseudo[:0]
	for _, m := range pseudo {
		ksq := king
		if m.Piece.Kind == King {
			ksq = m.To
		}
		u := p.make(m)
		ok := !p.attacked(ksq, them)
		p.unmake(m, u)
		if ok {
			legal = append(legal, m)
		}
	}
	return legal
}

func (p *Position) pseudoMoves(buf []Move) []Move {
	us := p.turn
	for sq := Square(0); sq < 64; sq++ {
		pc := p.squares[sq]
		if pc.IsZero() || pc.Color != us {
			continue
		}
		switch pc.Kind {
		case Pawn:
			buf = p.pawnMoves(buf, sq, pc)
		case Knight:
			buf = p.stepMoves(buf, sq, pc, knightSteps[:])
		case Bishop:
			buf = p.slideMoves(buf, sq, pc, bishopDirs[:])
		case Rook:
			buf = p.slideMoves(buf, sq, pc, rookDirs[:])
		case Queen:
			buf = p.slideMoves(buf, sq, pc, rookDirs[:])
			buf = p.slideMoves(buf, sq, pc, bishopDirs[:])
		case King:
			buf = p.stepMoves(buf, sq, pc, kingSteps[:])
			buf = p.castleMoves(buf, sq, pc)
		}
	}
	return buf
}

func (p *Position) pawnMoves(buf []Move, from Square, pc Piece) []Move {
	dir, startRank, lastRank := 1, 1, 7
	if pc.Color == Black {
		dir, startRank, lastRank = -1, 6, 0
	}

	add := func(to Square, captured Piece) {
		if to.Rank() == lastRank {
			for _, k := range promotionOrder {
				buf = append(buf, Move{From: from, To: to, Piece: pc, Captured: captured, Promotion: k, Flag: FlagPromotion})
			}
			return
		}
		flag := FlagNormal
		if !captured.IsZero() {
			flag = FlagCapture
		}
		buf = append(buf, Move{From: from, To: to, Piece: pc, Captured: captured, Flag: flag})
	}

	if one, ok := from.offset(0, dir); ok && p.squares[one].IsZero() {
		add(one, Piece{})
		if from.Rank() == startRank {
			if two, ok := from.offset(0, 2*dir); ok && p.squares[two].IsZero() {
				add(two, Piece{})
			}
		}
	}
	for _, df := range [2]int{-1, 1} {
		to, ok := from.offset(df, dir)
		if !ok {
			continue
		}
		target := p.squares[to]
		switch {
		case !target.IsZero() && target.Color != pc.Color:
			add(to, target)
		case target.IsZero() && p.ep != NoSquare && to == p.ep:
			buf = append(buf, Move{
				From: from, To: to, Piece: pc,
				Captured: Piece{Kind: Pawn, Color: pc.Color.Other()},
				Flag:     FlagEnPassant,
			})
		}
	}
	return buf
}

func (p *Position) stepMoves(buf []Move, from Square, pc Piece, steps [][2]int) []Move {
	for _, s := range steps {
		to, ok := from.offset(s[0], s[1])
		if !ok {
			continue
		}
		target := p.squares[to]
		switch {
		case target.IsZero():
			buf = append(buf, Move{From: from, To: to, Piece: pc, Flag: FlagNormal})
		case target.Color != pc.Color:
			buf = append(buf, Move{From: from, To: to, Piece: pc, Captured: target, Flag: FlagCapture})
		}
	}
	return buf
}

func (p *Position) slideMoves(buf []Move, from Square, pc Piece, dirs [][2]int) []Move {
	for _, d := range dirs {
		to := from
		for {
			var ok bool
			to, ok = to.offset(d[0], d[1])
			if !ok {
				break
			}
			target := p.squares[to]
			if target.IsZero() {
				buf = append(buf, Move{From: from, To: to, Piece: pc, Flag: FlagNormal})
				continue
			}
			if target.Color != pc.Color {
				buf = append(buf, Move{From: from, To: to, Piece: pc, Captured: target, Flag: FlagCapture})
			}
			break
		}
	}
	return buf
}

// castleMoves requires the right, the rook at home, an empty path and a king
// that neither starts in nor crosses an attacked square.
func (p *Position) castleMoves(buf []Move, from Square, pc Piece) []Move {
	home, kside, qside := E1, WhiteKingside, WhiteQueenside
	if pc.Color == Black {
		home, kside, qside = E8, BlackKingside, BlackQueenside
	}
	if from != home {
		return buf
	}
	them := pc.Color.Other()
	rook := Piece{Kind: Rook, Color: pc.Color}
	rank := home.Rank()
	sq := func(file int) Square { return NewSquare(file, rank) }

	if !p.castling.Has(kside) && !p.castling.Has(qside) {
		return buf
	}
	if p.attacked(home, them) {
		return buf
	}

	if p.castling.Has(kside) &&
		p.squares[sq(7)] == rook &&
		p.squares[sq(5)].IsZero() && p.squares[sq(6)].IsZero() &&
		!p.attacked(sq(5), them) && !p.attacked(sq(6), them) {
		buf = append(buf, Move{From: home, To: sq(6), Piece: pc, Flag: FlagCastleKingside})
	}
	if p.castling.Has(qside) &&
		p.squares[sq(0)] == rook &&
		p.squares[sq(1)].IsZero() && p.squares[sq(2)].IsZero() && p.squares[sq(3)].IsZero() &&
		!p.attacked(sq(3), them) && !p.attacked(sq(2), them) {
		buf = append(buf, Move{From: home, To: sq(2), Piece: pc, Flag: FlagCastleQueenside})
	}
	return buf
}

// attacked reports whether any piece of color by attacks sq.
func (p *Position) attacked(sq Square, by Color) bool {
	if !sq.Valid() {
		return false
	}
	dir := 1
	if by == Black {
		dir = -1
	}
	pawn := Piece{Kind: Pawn, Color: by}
	for _, df := range [2]int{-1, 1} {
		if from, ok := sq.offset(df, -dir); ok && p.squares[from] == pawn {
			return true
		}
	}

	knight := Piece{Kind: Knight, Color: by}
	for _, s := range knightSteps {
		if from, ok := sq.offset(s[0], s[1]); ok && p.squares[from] == knight {
			return true
		}
	}
	king := Piece{Kind: King, Color: by}
	for _, s := range kingSteps {
		if from, ok := sq.offset(s[0], s[1]); ok && p.squares[from] == king {
			return true
		}
	}

	if p.rayHits(sq, by, rookDirs[:], Rook) || p.rayHits(sq, by, bishopDirs[:], Bishop) {
		return true
	}
	return false
}

// rayHits looks for a slider of kind (or a queen) of color by along dirs.
func (p *Position) rayHits(sq Square, by Color, dirs [][2]int, kind PieceKind) bool {
	for _, d := range dirs {
		cur := sq
		for {
			var ok bool
			cur, ok = cur.offset(d[0], d[1])
			if !ok {
				break
			}
			pc := p.squares[cur]
			if pc.IsZero() {
				continue
			}
			if pc.Color == by && (pc.Kind == kind || pc.Kind == Queen) {
				return true
			}
			break
		}
	}
	return false
}
