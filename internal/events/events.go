// Package events publishes match state changes to observers. Publishing is
// best effort: a failed sink never undoes a committed match mutation.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/chess/notation"
	"github.com/park285/wager-chess/internal/match"
)

type Kind string

const (
	KindCreated       Kind = "created"
	KindMove          Kind = "move"
	KindDrawOffered   Kind = "draw_offered"
	KindDrawDeclined  Kind = "draw_declined"
	KindFinished      Kind = "finished"
	KindSettled       Kind = "settled"
	KindSettleFailure Kind = "settle_failed"
)

// StateUpdate is the wire frame sent to every sink.
type StateUpdate struct {
	Kind       Kind           `json:"kind"`
	MatchID    string         `json:"match_id"`
	Version    int64          `json:"version"`
	FEN        string         `json:"fen"`
	Turn       board.Color    `json:"turn"`
	Status     match.Status   `json:"status"`
	InCheck    bool           `json:"in_check,omitempty"`
	LastMove   string         `json:"last_move,omitempty"`
	LastSAN    string         `json:"last_san,omitempty"`
	DrawOffer  *board.Color   `json:"draw_offer,omitempty"`
	Outcome    *match.Outcome `json:"outcome,omitempty"`
	Settlement []match.Credit `json:"settlement,omitempty"`
	At         time.Time      `json:"at"`
}

// FromSession snapshots s into a frame of the given kind.
func FromSession(kind Kind, s *match.Session) StateUpdate {
	cur := s.Current()
	u := StateUpdate{
		Kind:    kind,
		MatchID: s.ID,
		Version: s.Version,
		FEN:     cur.FEN(),
		Turn:    cur.Turn(),
		Status:  s.Status,
		InCheck: s.InCheck,
		At:      s.UpdatedAt,
	}
	if m, ok := s.LastMove(); ok {
		u.LastMove = m.UCI()
		if san, err := notation.SAN(s.Positions[len(s.Positions)-2], m); err == nil {
			u.LastSAN = san
		}
	}
	if s.DrawOffer != nil {
		c := *s.DrawOffer
		u.DrawOffer = &c
	}
	if s.Outcome != nil {
		o := *s.Outcome
		u.Outcome = &o
	}
	if len(s.Settlement) > 0 {
		u.Settlement = append([]match.Credit(nil), s.Settlement...)
	}
	return u
}

type Sink interface {
	Publish(ctx context.Context, u StateUpdate) error
}

type nop struct{}

func (nop) Publish(context.Context, StateUpdate) error { return nil }

// Nop discards every update.
func Nop() Sink { return nop{} }

// Multi fans out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, u StateUpdate) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every update in memory; used by tests and the local CLI.
type Recorder struct {
	mu      sync.Mutex
	updates []StateUpdate
}

func (r *Recorder) Publish(_ context.Context, u StateUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

func (r *Recorder) Updates() []StateUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StateUpdate(nil), r.updates...)
}
