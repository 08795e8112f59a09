// Package match is the lifecycle state machine of a single wagered match.
// A Session is not safe for concurrent use; callers serialise access per
// match id.
package match

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/wager-chess/internal/chess/board"
)

var (
	ErrNotYourTurn          = errors.New("not your turn")
	ErrMatchAlreadyTerminal = errors.New("match already finished")
	ErrDrawAlreadyPending   = errors.New("draw offer already pending")
	ErrNoPendingDrawOffer   = errors.New("no pending draw offer")
	ErrDrawOfferBySameSide  = errors.New("cannot answer your own draw offer")
	ErrInvalidMatch         = errors.New("invalid match")
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Participant is an opaque player id. Computer marks the engine side, whose
// id is the house account backing its stake.
type Participant struct {
	ID       string `json:"id"`
	Computer bool   `json:"computer,omitempty"`
}

// Credit is one settlement line: coins paid to a player.
type Credit struct {
	Player string `json:"player"`
	Amount int64  `json:"amount"`
}

type DrawResult string

const (
	DrawPending  DrawResult = "pending"
	DrawAccepted DrawResult = "accepted"
	DrawDeclined DrawResult = "declined"
	// DrawLapsed marks an offer cleared by a move or by the match ending.
	DrawLapsed DrawResult = "lapsed"
)

type DrawEvent struct {
	By     board.Color `json:"by"`
	Ply    int         `json:"ply"`
	Result DrawResult  `json:"result"`
	At     time.Time   `json:"at"`
}

type Session struct {
	ID         string
	White      Participant
	Black      Participant
	WhiteStake int64
	BlackStake int64
	Pot        int64
	Difficulty string

	Status  Status
	Outcome *Outcome
	InCheck bool

	// Positions[0] is the initial position; Positions[i] follows Moves[i-1].
	Positions []board.Position
	Moves     []board.Move

	DrawOffer   *board.Color
	DrawHistory []DrawEvent

	Settled    bool
	Settlement []Credit

	// Version increases with every accepted mutation.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	EndedAt   time.Time
}

type Config struct {
	ID         string
	White      Participant
	Black      Participant
	WhiteStake int64
	BlackStake int64
	Difficulty string
	// Initial defaults to the standard start position when nil.
	Initial *board.Position
}

func New(cfg Config) (*Session, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("%w: id required", ErrInvalidMatch)
	}
	if strings.TrimSpace(cfg.White.ID) == "" || strings.TrimSpace(cfg.Black.ID) == "" {
		return nil, fmt.Errorf("%w: both players required", ErrInvalidMatch)
	}
	if cfg.White.ID == cfg.Black.ID {
		return nil, fmt.Errorf("%w: a player cannot face themselves", ErrInvalidMatch)
	}
	if cfg.White.Computer && cfg.Black.Computer {
		return nil, fmt.Errorf("%w: at least one side must be human", ErrInvalidMatch)
	}
	if cfg.WhiteStake < 0 || cfg.BlackStake < 0 {
		return nil, fmt.Errorf("%w: stakes must be >= 0", ErrInvalidMatch)
	}

	initial := board.StartingPosition()
	if cfg.Initial != nil {
		initial = *cfg.Initial
	}
	if !board.HasLegalMoves(initial) {
		return nil, fmt.Errorf("%w: initial position is already decided", ErrInvalidMatch)
	}

	now := nowFunc()
	s := &Session{
		ID:         cfg.ID,
		White:      cfg.White,
		Black:      cfg.Black,
		WhiteStake: cfg.WhiteStake,
		BlackStake: cfg.BlackStake,
		Pot:        cfg.WhiteStake + cfg.BlackStake,
		Difficulty: cfg.Difficulty,
		Status:     StatusActive,
		Positions:  []board.Position{initial},
		InCheck:    board.IsInCheck(initial, initial.Turn()),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return s, nil
}

func (s *Session) Current() board.Position { return s.Positions[len(s.Positions)-1] }
func (s *Session) Turn() board.Color       { return s.Current().Turn() }

func (s *Session) Player(c board.Color) Participant {
	if c == board.White {
		return s.White
	}
	return s.Black
}

// ColorOf reports which side playerID plays.
func (s *Session) ColorOf(playerID string) (board.Color, bool) {
	switch playerID {
	case s.White.ID:
		return board.White, true
	case s.Black.ID:
		return board.Black, true
	}
	return board.White, false
}

func (s *Session) Stake(c board.Color) int64 {
	if c == board.White {
		return s.WhiteStake
	}
	return s.BlackStake
}

// ComputerColor returns the engine's side in a computer match.
func (s *Session) ComputerColor() (board.Color, bool) {
	switch {
	case s.White.Computer:
		return board.White, true
	case s.Black.Computer:
		return board.Black, true
	}
	return board.White, false
}

func (s *Session) LastMove() (board.Move, bool) {
	if len(s.Moves) == 0 {
		return board.Move{}, false
	}
	return s.Moves[len(s.Moves)-1], true
}

// SubmitMove plays m for color. m is matched against the legal moves by
// From, To and Promotion; the fully resolved move is returned.
func (s *Session) SubmitMove(color board.Color, m board.Move) (board.Move, error) {
	if s.Status.Terminal() {
		return board.Move{}, ErrMatchAlreadyTerminal
	}
	cur := s.Current()
	if color != cur.Turn() {
		return board.Move{}, ErrNotYourTurn
	}
	legal, err := board.Resolve(cur, m.From, m.To, m.Promotion)
	if err != nil {
		return board.Move{}, err
	}
	next, err := board.Apply(cur, legal)
	if err != nil {
		return board.Move{}, err
	}

	s.Positions = append(s.Positions, next)
	s.Moves = append(s.Moves, legal)
	s.lapseDrawOffer()
	s.InCheck = board.IsInCheck(next, next.Turn())

	switch {
	case board.IsCheckmate(next):
		s.finish(Checkmate(color))
	case board.IsStalemate(next):
		s.finish(Stalemate())
	case board.IsThreefoldRepetition(s.Positions):
		s.finish(DrawRepetition())
	case board.IsInsufficientMaterial(next):
		s.finish(DrawInsufficientMaterial())
	}
	s.touch()
	return legal, nil
}

func (s *Session) OfferDraw(color board.Color) error {
	if s.Status.Terminal() {
		return ErrMatchAlreadyTerminal
	}
	if s.DrawOffer != nil {
		return ErrDrawAlreadyPending
	}
	by := color
	s.DrawOffer = &by
	s.DrawHistory = append(s.DrawHistory, DrawEvent{By: color, Ply: len(s.Moves), Result: DrawPending, At: nowFunc()})
	s.touch()
	return nil
}

func (s *Session) RespondDraw(color board.Color, accept bool) error {
	if s.Status.Terminal() {
		return ErrMatchAlreadyTerminal
	}
	if s.DrawOffer == nil {
		return ErrNoPendingDrawOffer
	}
	if *s.DrawOffer == color {
		return ErrDrawOfferBySameSide
	}
	if accept {
		s.resolveDrawOffer(DrawAccepted)
		s.finish(DrawAgreed())
	} else {
		s.resolveDrawOffer(DrawDeclined)
	}
	s.touch()
	return nil
}

func (s *Session) Resign(color board.Color) error {
	if s.Status.Terminal() {
		return ErrMatchAlreadyTerminal
	}
	s.finish(Resigned(color.Other()))
	s.touch()
	return nil
}

// ClaimTimeout ends the match against the side whose clock ran out. Clock
// keeping happens outside this package.
func (s *Session) ClaimTimeout(flagged board.Color) error {
	if s.Status.Terminal() {
		return ErrMatchAlreadyTerminal
	}
	s.finish(Timeout(flagged.Other()))
	s.touch()
	return nil
}

// MarkSettled records the payout. It may be called once, after the match
// has ended.
func (s *Session) MarkSettled(credits []Credit) error {
	if !s.Status.Terminal() {
		return fmt.Errorf("%w: match %s is still active", ErrInvalidMatch, s.ID)
	}
	if s.Settled {
		return fmt.Errorf("%w: match %s already settled", ErrInvalidMatch, s.ID)
	}
	s.Settled = true
	s.Settlement = append([]Credit(nil), credits...)
	s.touch()
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	dup.Positions = append([]board.Position(nil), s.Positions...)
	dup.Moves = append([]board.Move(nil), s.Moves...)
	dup.DrawHistory = append([]DrawEvent(nil), s.DrawHistory...)
	dup.Settlement = append([]Credit(nil), s.Settlement...)
	if s.Outcome != nil {
		o := *s.Outcome
		dup.Outcome = &o
	}
	if s.DrawOffer != nil {
		c := *s.DrawOffer
		dup.DrawOffer = &c
	}
	return &dup
}

func (s *Session) finish(o Outcome) {
	s.lapseDrawOffer()
	s.Outcome = &o
	s.Status = o.Status()
	s.EndedAt = nowFunc()
}

func (s *Session) lapseDrawOffer() {
	if s.DrawOffer != nil {
		s.resolveDrawOffer(DrawLapsed)
	}
}

func (s *Session) resolveDrawOffer(r DrawResult) {
	s.DrawOffer = nil
	for i := len(s.DrawHistory) - 1; i >= 0; i-- {
		if s.DrawHistory[i].Result == DrawPending {
			s.DrawHistory[i].Result = r
			break
		}
	}
}

func (s *Session) touch() {
	s.Version++
	s.UpdatedAt = nowFunc()
}
