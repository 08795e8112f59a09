// Package archive stores finished matches for history queries. Live match
// state lives in the matchsvc store; the archive only ever sees terminal
// sessions.
package archive

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/park285/wager-chess/internal/chess/notation"
	"github.com/park285/wager-chess/internal/match"
)

var (
	ErrNotFound    = errors.New("archived match not found")
	ErrNotFinished = errors.New("match is not finished")
)

const defaultRecentLimit = 20

// Result is one archived match.
type Result struct {
	MatchID    string
	WhiteID    string
	BlackID    string
	WhiteStake int64
	BlackStake int64
	Pot        int64
	Difficulty string
	Status     match.Status
	Outcome    match.OutcomeKind
	// WinnerID is empty for drawn outcomes.
	WinnerID   string
	MovesUCI   []string
	MovesSAN   []string
	FinalFEN   string
	Settlement []match.Credit
	StartedAt  time.Time
	EndedAt    time.Time
}

func (r Result) Duration() time.Duration {
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

type Archive interface {
	SaveResult(ctx context.Context, r Result) error
	Get(ctx context.Context, matchID string) (Result, error)
	// RecentByPlayer lists a player's matches, newest first.
	RecentByPlayer(ctx context.Context, playerID string, limit int) ([]Result, error)
}

// FromSession builds the archive row for a finished session.
func FromSession(s *match.Session) (Result, error) {
	if s == nil || s.Outcome == nil {
		return Result{}, ErrNotFinished
	}
	uci := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		uci[i] = m.UCI()
	}
	san, err := notation.SANLine(s.Positions[0], s.Moves)
	if err != nil {
		return Result{}, fmt.Errorf("archive %s: %w", s.ID, err)
	}
	r := Result{
		MatchID:    s.ID,
		WhiteID:    s.White.ID,
		BlackID:    s.Black.ID,
		WhiteStake: s.WhiteStake,
		BlackStake: s.BlackStake,
		Pot:        s.Pot,
		Difficulty: s.Difficulty,
		Status:     s.Status,
		Outcome:    s.Outcome.Kind,
		MovesUCI:   uci,
		MovesSAN:   san,
		FinalFEN:   s.Current().FEN(),
		Settlement: append([]match.Credit(nil), s.Settlement...),
		StartedAt:  s.CreatedAt,
		EndedAt:    s.EndedAt,
	}
	if s.Outcome.Decisive() {
		r.WinnerID = s.Player(s.Outcome.Winner).ID
	}
	return r, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	return min(limit, 200)
}

// Memory is an in-process archive.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]Result
}

func NewMemory() *Memory { return &Memory{rows: make(map[string]Result)} }

func (m *Memory) SaveResult(_ context.Context, r Result) error {
	if strings.TrimSpace(r.MatchID) == "" {
		return errors.New("archive: match id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.MatchID] = r
	return nil
}

func (m *Memory) Get(_ context.Context, matchID string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[matchID]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, matchID)
	}
	return r, nil
}

func (m *Memory) RecentByPlayer(_ context.Context, playerID string, limit int) ([]Result, error) {
	m.mu.RLock()
	out := make([]Result, 0)
	for _, r := range m.rows {
		if r.WhiteID == playerID || r.BlackID == playerID {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Result) int {
		if c := b.EndedAt.Compare(a.EndedAt); c != 0 {
			return c
		}
		return strings.Compare(a.MatchID, b.MatchID)
	})
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
