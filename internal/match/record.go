package match

import (
	"errors"
	"fmt"
	"time"

	"github.com/park285/wager-chess/internal/chess/board"
)

var ErrCorruptRecord = errors.New("corrupt match record")

// Record is the persisted form of a Session. Positions are not stored; they
// are rebuilt by replaying Moves from InitialFEN.
type Record struct {
	ID          string       `json:"id"`
	White       Participant  `json:"white"`
	Black       Participant  `json:"black"`
	WhiteStake  int64        `json:"white_stake"`
	BlackStake  int64        `json:"black_stake"`
	Pot         int64        `json:"pot"`
	Difficulty  string       `json:"difficulty,omitempty"`
	Status      Status       `json:"status"`
	Outcome     *Outcome     `json:"outcome,omitempty"`
	InitialFEN  string       `json:"initial_fen"`
	Moves       []string     `json:"moves"`
	FEN         string       `json:"fen"`
	DrawOffer   *board.Color `json:"draw_offer,omitempty"`
	DrawHistory []DrawEvent  `json:"draw_history,omitempty"`
	Settled     bool         `json:"settled"`
	Settlement  []Credit     `json:"settlement,omitempty"`
	Version     int64        `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	EndedAt     *time.Time   `json:"ended_at,omitempty"`
}

func (s *Session) ToRecord() Record {
	moves := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		moves[i] = m.UCI()
	}
	rec := Record{
		ID:          s.ID,
		White:       s.White,
		Black:       s.Black,
		WhiteStake:  s.WhiteStake,
		BlackStake:  s.BlackStake,
		Pot:         s.Pot,
		Difficulty:  s.Difficulty,
		Status:      s.Status,
		InitialFEN:  s.Positions[0].FEN(),
		Moves:       moves,
		FEN:         s.Current().FEN(),
		DrawHistory: append([]DrawEvent(nil), s.DrawHistory...),
		Settled:     s.Settled,
		Settlement:  append([]Credit(nil), s.Settlement...),
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Outcome != nil {
		o := *s.Outcome
		rec.Outcome = &o
	}
	if s.DrawOffer != nil {
		c := *s.DrawOffer
		rec.DrawOffer = &c
	}
	if !s.EndedAt.IsZero() {
		t := s.EndedAt
		rec.EndedAt = &t
	}
	return rec
}

// FromRecord rebuilds a Session, replaying every move through the rules so a
// tampered or truncated record is rejected.
func FromRecord(rec Record) (*Session, error) {
	pos, err := board.ParseFEN(rec.InitialFEN)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, rec.ID, err)
	}
	positions := make([]board.Position, 0, len(rec.Moves)+1)
	positions = append(positions, pos)
	moves := make([]board.Move, 0, len(rec.Moves))
	for i, text := range rec.Moves {
		m, err := board.ParseUCI(pos, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: move %d %q: %v", ErrCorruptRecord, rec.ID, i+1, text, err)
		}
		pos, err = board.Apply(pos, m)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: move %d %q: %v", ErrCorruptRecord, rec.ID, i+1, text, err)
		}
		positions = append(positions, pos)
		moves = append(moves, m)
	}
	if rec.FEN != "" && pos.FEN() != rec.FEN {
		return nil, fmt.Errorf("%w: %s: replay ends at %q, record says %q", ErrCorruptRecord, rec.ID, pos.FEN(), rec.FEN)
	}
	if rec.Pot != rec.WhiteStake+rec.BlackStake {
		return nil, fmt.Errorf("%w: %s: pot %d does not match stakes", ErrCorruptRecord, rec.ID, rec.Pot)
	}
	if rec.Status.Terminal() != (rec.Outcome != nil) {
		return nil, fmt.Errorf("%w: %s: status %s disagrees with outcome", ErrCorruptRecord, rec.ID, rec.Status)
	}
	if rec.Outcome != nil && rec.Outcome.Status() != rec.Status {
		return nil, fmt.Errorf("%w: %s: status %s disagrees with outcome %s", ErrCorruptRecord, rec.ID, rec.Status, rec.Outcome.Kind)
	}

	s := &Session{
		ID:          rec.ID,
		White:       rec.White,
		Black:       rec.Black,
		WhiteStake:  rec.WhiteStake,
		BlackStake:  rec.BlackStake,
		Pot:         rec.Pot,
		Difficulty:  rec.Difficulty,
		Status:      rec.Status,
		InCheck:     board.IsInCheck(pos, pos.Turn()),
		Positions:   positions,
		Moves:       moves,
		DrawHistory: append([]DrawEvent(nil), rec.DrawHistory...),
		Settled:     rec.Settled,
		Settlement:  append([]Credit(nil), rec.Settlement...),
		Version:     rec.Version,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.Outcome != nil {
		o := *rec.Outcome
		s.Outcome = &o
	}
	if rec.DrawOffer != nil {
		c := *rec.DrawOffer
		s.DrawOffer = &c
	}
	if rec.EndedAt != nil {
		s.EndedAt = *rec.EndedAt
	}
	return s, nil
}
