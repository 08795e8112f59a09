package matchsvc

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/park285/wager-chess/internal/match"
)

var ErrVersionConflict = errors.New("match was modified concurrently")

// Store persists live sessions. Save is a compare-and-set on Version:
// expected is the version the caller loaded, or 0 for a new match.
type Store interface {
	Load(ctx context.Context, matchID string) (*match.Session, error)
	Save(ctx context.Context, s *match.Session, expected int64) error
	// ActiveIDs lists the ids of a player's matches that are still active.
	ActiveIDs(ctx context.Context, playerID string) ([]string, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*match.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*match.Session)}
}

func (st *MemoryStore) Load(_ context.Context, matchID string) (*match.Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return s.Clone(), nil
}

func (st *MemoryStore) Save(_ context.Context, s *match.Session, expected int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	var current int64
	if cur, ok := st.sessions[s.ID]; ok {
		current = cur.Version
	}
	if current != expected {
		return ErrVersionConflict
	}
	st.sessions[s.ID] = s.Clone()
	return nil
}

func (st *MemoryStore) ActiveIDs(_ context.Context, playerID string) ([]string, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var ids []string
	for id, s := range st.sessions {
		if s.Status.Terminal() {
			continue
		}
		if _, ok := s.ColorOf(playerID); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
