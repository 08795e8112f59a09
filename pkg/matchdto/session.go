package matchdto

import (
	"time"

	"github.com/park285/wager-chess/internal/match"
)

type SessionState struct {
	ID         string         `json:"id"`
	WhiteID    string         `json:"white_id"`
	BlackID    string         `json:"black_id"`
	Computer   string         `json:"computer,omitempty"`
	Difficulty string         `json:"difficulty,omitempty"`
	Pot        int64          `json:"pot"`
	Status     string         `json:"status"`
	Outcome    string         `json:"outcome,omitempty"`
	Winner     string         `json:"winner,omitempty"`
	FEN        string         `json:"fen"`
	Turn       string         `json:"turn"`
	InCheck    bool           `json:"in_check"`
	Moves      []string       `json:"moves"`
	DrawOffer  string         `json:"draw_offer,omitempty"`
	Settlement []match.Credit `json:"settlement,omitempty"`
	Version    int64          `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	EndedAt    *time.Time     `json:"ended_at,omitempty"`
}

func FromSession(s *match.Session) *SessionState {
	if s == nil {
		return nil
	}
	moves := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		moves[i] = m.UCI()
	}
	st := &SessionState{
		ID:         s.ID,
		WhiteID:    s.White.ID,
		BlackID:    s.Black.ID,
		Difficulty: s.Difficulty,
		Pot:        s.Pot,
		Status:     string(s.Status),
		FEN:        s.Current().FEN(),
		Turn:       s.Turn().String(),
		InCheck:    s.InCheck,
		Moves:      moves,
		Settlement: s.Settlement,
		Version:    s.Version,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if c, ok := s.ComputerColor(); ok {
		st.Computer = c.String()
	}
	if s.Outcome != nil {
		st.Outcome = string(s.Outcome.Kind)
		if s.Outcome.Decisive() {
			st.Winner = s.Outcome.Winner.String()
		}
	}
	if s.DrawOffer != nil {
		st.DrawOffer = s.DrawOffer.String()
	}
	if !s.EndedAt.IsZero() {
		t := s.EndedAt
		st.EndedAt = &t
	}
	return st
}
