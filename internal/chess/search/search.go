// Package search picks a move for the side to move with iterative-deepening
// minimax and alpha-beta pruning. White maximises, black minimises, and all
// scores are from white's point of view.
package search

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/park285/wager-chess/internal/chess/board"
)

const (
	// MateScore minus the ply of the mate is returned for a side that mates.
	MateScore = 100_000
	infinity  = 1_000_000

	// checkEvery is the node interval between context polls.
	checkEvery = 1024
)

var (
	ErrNoLegalMoves   = errors.New("no legal moves")
	ErrSearchTimedOut = errors.New("search timed out")
)

// Limits bound a search. Depth counts plies including the root move; zero
// Nodes or MoveTime means no cap.
type Limits struct {
	Depth    int
	Nodes    int64
	MoveTime time.Duration
}

type Result struct {
	Move     board.Move
	Score    int
	Depth    int
	Nodes    int64
	TimedOut bool
	Elapsed  time.Duration
}

// Err reports ErrSearchTimedOut when the budget cut the search short. The
// move is still usable.
func (r Result) Err() error {
	if r.TimedOut {
		return ErrSearchTimedOut
	}
	return nil
}

// ChooseMove searches pos and returns the move of the deepest fully completed
// iteration. Root moves keep generator order and a later move replaces the
// current best only on a strictly better score, so among equal scores the
// first legal move wins. If no iteration completes
// before the budget runs out, the first legal move is returned with TimedOut
// set.
func ChooseMove(ctx context.Context, pos board.Position, lim Limits) (Result, error) {
	start := time.Now()
	root := board.LegalMoves(pos)
	if len(root) == 0 {
		return Result{}, ErrNoLegalMoves
	}

	if lim.MoveTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lim.MoveTime)
		defer cancel()
	}
	maxDepth := max(lim.Depth, 1)

	sr := &searcher{
		ctx:     ctx,
		nodeCap: lim.Nodes,
		s:       board.NewScratch(pos),
		bufs:    make([][]board.Move, maxDepth+2),
	}
	for i := range sr.bufs {
		sr.bufs[i] = make([]board.Move, 0, 64)
	}

	res := Result{Move: root[0]}
	if ctx.Err() != nil {
		res.TimedOut = true
	}
	for depth := 1; depth <= maxDepth && !res.TimedOut; depth++ {
		move, score, ok := sr.searchRoot(root, depth)
		if !ok {
			res.TimedOut = true
			break
		}
		res.Move, res.Score, res.Depth = move, score, depth
	}
	res.Nodes = sr.nodes
	res.Elapsed = time.Since(start)
	return res, nil
}

type searcher struct {
	ctx     context.Context
	nodeCap int64
	nodes   int64
	stopped bool
	s       *board.Scratch
	bufs    [][]board.Move
}

func (sr *searcher) shouldStop() bool {
	if sr.stopped {
		return true
	}
	if sr.nodeCap > 0 && sr.nodes >= sr.nodeCap {
		sr.stopped = true
	} else if sr.nodes%checkEvery == 0 && sr.ctx.Err() != nil {
		sr.stopped = true
	}
	return sr.stopped
}

func (sr *searcher) searchRoot(moves []board.Move, depth int) (board.Move, int, bool) {
	maximizing := sr.s.Turn() == board.White
	best := moves[0]
	bestScore := infinity
	if maximizing {
		bestScore = -infinity
	}
	alpha, beta := -infinity, infinity

	for i, m := range moves {
		sr.s.Push(m)
		score := sr.alphaBeta(depth-1, 1, alpha, beta)
		sr.s.Pop()
		if sr.stopped {
			return board.Move{}, 0, false
		}
		if maximizing {
			if i == 0 || score > bestScore {
				best, bestScore = m, score
			}
			alpha = max(alpha, bestScore)
		} else {
			if i == 0 || score < bestScore {
				best, bestScore = m, score
			}
			beta = min(beta, bestScore)
		}
	}
	return best, bestScore, true
}

func (sr *searcher) alphaBeta(depth, ply, alpha, beta int) int {
	sr.nodes++
	if sr.shouldStop() {
		return 0
	}

	moves := sr.s.LegalMoves(sr.bufs[ply])
	sr.bufs[ply] = moves
	white := sr.s.Turn() == board.White
	if len(moves) == 0 {
		if !sr.s.InCheck() {
			return 0
		}
		if white {
			return -(MateScore - ply)
		}
		return MateScore - ply
	}
	if board.IsInsufficientMaterial(sr.s.Position()) {
		return 0
	}
	if depth <= 0 {
		return evaluate(sr.s)
	}

	orderMoves(moves)
	if white {
		v := -infinity
		for _, m := range moves {
			sr.s.Push(m)
			v = max(v, sr.alphaBeta(depth-1, ply+1, alpha, beta))
			sr.s.Pop()
			if sr.stopped {
				return 0
			}
			alpha = max(alpha, v)
			if alpha >= beta {
				break
			}
		}
		return v
	}
	v := infinity
	for _, m := range moves {
		sr.s.Push(m)
		v = min(v, sr.alphaBeta(depth-1, ply+1, alpha, beta))
		sr.s.Pop()
		if sr.stopped {
			return 0
		}
		beta = min(beta, v)
		if alpha >= beta {
			break
		}
	}
	return v
}

// orderMoves puts captures and promotions first, most valuable victim first.
// Quiet moves keep generator order.
func orderMoves(moves []board.Move) {
	slices.SortStableFunc(moves, func(a, b board.Move) int {
		return moveWeight(b) - moveWeight(a)
	})
}

func moveWeight(m board.Move) int {
	w := 0
	if m.IsCapture() {
		w += 10*pieceValue[m.Captured.Kind] - pieceValue[m.Piece.Kind]/10 + 1
	}
	if m.IsPromotion() {
		w += pieceValue[m.Promotion]
	}
	return w
}
